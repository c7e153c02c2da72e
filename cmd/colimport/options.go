package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/colimport/internal/core"
)

// addOptionFlags registers the import option flags on cmd. The flags are
// bound to viper keys under "import." when the command runs, so several
// commands can share the keys.
func addOptionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("settings", "", "load defaults from an <asciiFilter> settings file")
	f.String("mode", "append", "merge mode: append, prepend or replace")
	f.String("delimiter", core.AutoDelimiter, `separator; "auto" splits on whitespace, TAB and SPACE are aliases`)
	f.Bool("header", true, "use the first record of the window as column names")
	f.String("names", "", "whitespace-separated column names when --header=false")
	f.Bool("simplify", true, "collapse whitespace runs before splitting")
	f.Bool("skip-empty", true, "drop empty fields")
	f.Int("start-row", 0, "first record of the window")
	f.Int("end-row", -1, "last record of the window, -1 for the end")
	f.Int("start-col", 0, "first column to import")
	f.Int("end-col", -1, "last column to import, -1 for the end")
	f.String("comment", core.DefaultCommentPrefix, "comment prefix, empty to disable")
}

// addOutputFlags registers the output flags on cmd.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "csv", "output format: csv, json or none")
	f.String("out", "", "output file (default stdout)")
	f.String("out-delimiter", ",", `output field separator, "tab" for a tab`)
}

func bindFlags(cmd *cobra.Command, prefix string, names ...string) {
	for _, name := range names {
		if fl := cmd.Flags().Lookup(name); fl != nil {
			viper.BindPFlag(prefix+"."+name, fl)
		}
	}
}

func bindOptionFlags(cmd *cobra.Command) {
	var names []string
	cmd.LocalFlags().VisitAll(func(fl *pflag.Flag) {
		switch fl.Name {
		case "output", "out", "out-delimiter":
			viper.BindPFlag("output."+fl.Name, fl)
		default:
			names = append(names, fl.Name)
		}
	})
	bindFlags(cmd, "import", names...)
}

// importOptions layers the settings file, then config and environment, then
// flags over core.DefaultOptions. viper.IsSet ignores flag defaults, so an
// untouched flag never overrides the settings file.
func importOptions() (core.Options, error) {
	opts := core.DefaultOptions()

	if path := viper.GetString("import.settings"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return opts, err
		}
		defer f.Close()
		loaded, warnings, err := core.LoadSettings(f)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", path, err)
		}
		for _, w := range warnings {
			slog.Warn("settings attribute", "path", path, "warning", w.String())
		}
		opts = loaded
	}

	if viper.IsSet("import.mode") {
		mode, err := core.ParseMergeMode(viper.GetString("import.mode"))
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	strs := map[string]*string{
		"import.delimiter": &opts.Delimiter,
		"import.names":     &opts.ColumnNames,
		"import.comment":   &opts.CommentPrefix,
	}
	for key, dst := range strs {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	bools := map[string]*bool{
		"import.header":     &opts.Header,
		"import.simplify":   &opts.SimplifyWhitespace,
		"import.skip-empty": &opts.SkipEmptyTokens,
	}
	for key, dst := range bools {
		if viper.IsSet(key) {
			*dst = viper.GetBool(key)
		}
	}
	if viper.IsSet("import.start-row") {
		opts.StartRow = viper.GetInt("import.start-row")
	}
	if viper.IsSet("import.start-col") {
		opts.StartColumn = viper.GetInt("import.start-col")
	}
	if viper.IsSet("import.end-row") {
		opts.EndRow = core.BoundFromInt(viper.GetInt("import.end-row"))
	}
	if viper.IsSet("import.end-col") {
		opts.EndColumn = core.BoundFromInt(viper.GetInt("import.end-col"))
	}

	if opts.StartRow < 0 || opts.StartColumn < 0 {
		return opts, fmt.Errorf("start row and column must not be negative")
	}
	return opts, nil
}

// output writes the table with the configured format and destination.
type output struct {
	format    string
	path      string
	delimiter rune
}

func outputConfig() (output, error) {
	out := output{
		format: strings.ToLower(viper.GetString("output.output")),
		path:   viper.GetString("output.out"),
	}
	switch out.format {
	case "csv", "json", "none":
	default:
		return out, fmt.Errorf("unknown output format %q", out.format)
	}

	d := viper.GetString("output.out-delimiter")
	switch {
	case strings.EqualFold(d, "tab"):
		out.delimiter = '\t'
	case utf8.RuneCountInString(d) == 1:
		out.delimiter, _ = utf8.DecodeRuneInString(d)
	default:
		return out, fmt.Errorf("output delimiter must be one character, got %q", d)
	}
	return out, nil
}

// write exports one workspace table.
func (o output) write(svc *core.Service, tableID string) error {
	if o.format == "none" {
		return nil
	}

	var w io.Writer = os.Stdout
	if o.path != "" {
		f, err := os.Create(o.path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if o.format == "json" {
		snap, err := svc.Snapshot(tableID, 0)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	return svc.ExportCSV(tableID, w, o.delimiter)
}
