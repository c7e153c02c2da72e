package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/colimport/internal/core"
	"github.com/JonMunkholm/colimport/internal/reader"
)

var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Import a query result or a whole table from a database",
	Long: `sql runs --query, or selects every row of --table, and imports the
result set as a grid: one column per result column, values converted to
numbers where possible. With --preview it prints the first rows instead.

The driver and DSN may also come from colimport.yaml (sql.driver, sql.dsn)
or COLIMPORT_SQL_DRIVER and COLIMPORT_SQL_DSN.`,
	Args: cobra.NoArgs,
	RunE: runSQL,
}

func init() {
	addOptionFlags(sqlCmd)
	addOutputFlags(sqlCmd)
	f := sqlCmd.Flags()
	f.String("driver", "postgres", "database driver: postgres, mysql, sqlserver or oracle")
	f.String("dsn", "", "data source name")
	f.String("query", "", "query to run")
	f.String("table", "", "table to select from instead of --query")
	f.Bool("preview", false, "print the first rows and column kinds instead of importing")
	f.Int("limit", core.DefaultPreviewRows, "rows to preview")
	f.Duration("connect-timeout", 10*time.Second, "connection timeout")
	sqlCmd.MarkFlagsMutuallyExclusive("query", "table")
}

func runSQL(cmd *cobra.Command, args []string) error {
	bindOptionFlags(cmd)
	for _, name := range []string{"driver", "dsn"} {
		viper.BindPFlag("sql."+name, cmd.Flags().Lookup(name))
	}

	driver := viper.GetString("sql.driver")
	dsn := viper.GetString("sql.dsn")
	query := strings.TrimSpace(viper.GetString("import.query"))
	table := strings.TrimSpace(viper.GetString("import.table"))
	if dsn == "" {
		return fmt.Errorf("sql.dsn is required (via --dsn, config or COLIMPORT_SQL_DSN)")
	}
	if query == "" && table == "" {
		return fmt.Errorf("one of --query or --table is required")
	}

	connectCtx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("import.connect-timeout"))
	db, err := reader.OpenDB(connectCtx, driver, dsn)
	cancel()
	if err != nil {
		return err
	}
	defer db.Close()

	if viper.GetBool("import.preview") {
		limit := viper.GetInt("import.limit")
		if table != "" {
			query = reader.DialectFor(driver).PreviewQuery(table, limit)
		}
		p, err := reader.PreviewQuery(cmd.Context(), db, query, limit)
		if err != nil {
			return err
		}
		return printQueryPreview(p)
	}

	opts, err := importOptions()
	if err != nil {
		return err
	}
	out, err := outputConfig()
	if err != nil {
		return err
	}

	src := reader.QuerySource{DB: db, Query: query}
	name := "query"
	if table != "" {
		src = reader.TableSource(db, driver, table)
		name = table
	}

	svc := core.NewService(core.ServiceConfig{MaxConcurrent: 1})
	tbl := svc.CreateTable(name)
	sum, err := svc.ImportSource(cmd.Context(), tbl.ID, src, opts, nil)
	if err != nil {
		return fmt.Errorf("%s: %w (code %s)", src.Name(), err, core.MapError(err).Code)
	}
	fmt.Fprintf(os.Stderr, "%s: %d columns, %d rows\n", src.Name(), sum.ColumnsWritten, sum.RowsWritten)
	return out.write(svc, tbl.ID)
}

func printQueryPreview(p reader.QueryPreview) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	names := make([]string, len(p.Columns))
	kinds := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
		kinds[i] = string(c.Kind)
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	fmt.Fprintln(tw, strings.Join(kinds, "\t"))
	for _, row := range p.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !p.Numeric {
		fmt.Fprintln(os.Stderr, "note: not every column is numeric; text values import as empty cells")
	}
	return nil
}
