package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/colimport/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "colimport",
	Short: "Import column data into tables",
	Long: `colimport reads delimited text, XLSX, parquet, image and SQL sources
into a column table and writes it back as CSV or JSON.

Settings come from flags, then COLIMPORT_* environment variables, then
colimport.yaml in the executable or current directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr so stdout carries only the exported table.
		slog.SetDefault(logging.New(os.Stderr, viper.GetString("log.level"), viper.GetString("log.format")))
		if used := viper.ConfigFileUsed(); used != "" {
			slog.Debug("using config file", "path", used)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./colimport.yaml)")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")

	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))

	rootCmd.AddCommand(importCmd, inspectCmd, sqlCmd, generateCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("colimport")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("colimport")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// A missing default config file is fine; a broken one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			slog.Warn("config file not read", "error", err)
		}
	}
}
