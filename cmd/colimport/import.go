package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/colimport/internal/core"
)

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Import files into one table and write it out",
	Long: `Import reads each file with the reader selected by --format or its
extension and merges the columns into one table, in argument order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	addOptionFlags(importCmd)
	addOutputFlags(importCmd)
	importCmd.Flags().StringP("format", "f", "", "reader key (default: by file extension)")
	importCmd.Flags().String("table", "", "table name (default: first file name)")
	importCmd.Flags().Bool("progress", true, "show a progress bar on stderr")
}

func runImport(cmd *cobra.Command, args []string) error {
	bindOptionFlags(cmd)
	opts, err := importOptions()
	if err != nil {
		return err
	}
	out, err := outputConfig()
	if err != nil {
		return err
	}

	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			return err
		}
		if _, err := core.ReaderFor(viper.GetString("import.format"), path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	name := viper.GetString("import.table")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	svc := core.NewService(core.ServiceConfig{MaxConcurrent: 1})
	tbl := svc.CreateTable(name)

	var progress *uiprogress.Progress
	if viper.GetBool("import.progress") {
		progress = uiprogress.New()
		progress.SetOut(os.Stderr)
		progress.Start()
	}

	for _, path := range args {
		def, _ := core.ReaderFor(viper.GetString("import.format"), path)

		var report core.ProgressFunc
		if progress != nil {
			label := filepath.Base(path)
			bar := progress.AddBar(100).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string { return label })
			report = func(percent int) { bar.Set(percent) }
		}

		sum, err := svc.ImportSource(ctx, tbl.ID, def.Open(path), opts, report)
		if err != nil {
			if progress != nil {
				progress.Stop()
			}
			return fmt.Errorf("%s: %w (code %s)", path, err, core.MapError(err).Code)
		}
		if progress == nil {
			fmt.Fprintf(os.Stderr, "%s: %d columns, %d rows (%s)\n", path, sum.ColumnsWritten, sum.RowsWritten, def.Info.Key)
		}
	}
	if progress != nil {
		progress.Stop()
	}

	info, err := svc.Table(tbl.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "table %q: %d columns, %d rows\n", info.Name, len(info.Columns), info.RowCount)
	return out.write(svc, tbl.ID)
}
