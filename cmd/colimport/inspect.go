package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/colimport/internal/core"
	"github.com/JonMunkholm/colimport/internal/reader"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE...",
	Short: "Show the shape of files and preview their first records",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

func init() {
	addOptionFlags(inspectCmd)
	inspectCmd.Flags().StringP("format", "f", "", "reader key (default: by file extension)")
	inspectCmd.Flags().Int("rows", core.DefaultPreviewRows, "preview rows, 0 for none")
}

func runInspect(cmd *cobra.Command, args []string) error {
	bindOptionFlags(cmd)
	opts, err := importOptions()
	if err != nil {
		return err
	}
	rows := viper.GetInt("import.rows")

	for i, path := range args {
		if i > 0 {
			fmt.Println()
		}
		if err := inspect(cmd.Context(), path, opts, rows); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func inspect(ctx context.Context, path string, opts core.Options, rows int) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	def, err := core.ReaderFor(viper.GetString("import.format"), path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file:\t%s\n", path)
	fmt.Fprintf(tw, "reader:\t%s (%s)\n", def.Info.Key, def.Info.Label)
	switch def.Info.Key {
	case reader.KeyText:
		fmt.Fprintf(tw, "columns:\t%d\n", reader.ColumnCount(path))
		fmt.Fprintf(tw, "lines:\t%d\n", reader.LineCount(path))
	case reader.KeyXLSX:
		sheets, err := reader.Sheets(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "sheets:\t%s\n", strings.Join(sheets, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}

	res, err := core.Preview(ctx, def.Open(path), opts, rows)
	if err != nil {
		return err
	}
	if res.Unavailable {
		return core.ErrSourceUnavailable
	}

	fmt.Printf("records: %d, window: %d..%d\n\n", res.TotalRecords, res.Window.StartRow, res.Window.EndRow)
	tw = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t")+"\t")
	for _, row := range res.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}
