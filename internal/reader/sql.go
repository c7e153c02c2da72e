package reader

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "github.com/sijms/go-ora/v2"

	"github.com/JonMunkholm/colimport/internal/core"
)

// Database driver names as registered with database/sql.
const (
	DriverPostgres  = "pgx"
	DriverMySQL     = "mysql"
	DriverSQLServer = "sqlserver"
	DriverOracle    = "oracle"
)

// NormalizeDriver maps common aliases to a registered driver name.
func NormalizeDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pgx", "postgres", "postgresql":
		return DriverPostgres, nil
	case "mysql", "mariadb":
		return DriverMySQL, nil
	case "sqlserver", "mssql":
		return DriverSQLServer, nil
	case "oracle", "ora":
		return DriverOracle, nil
	}
	return "", fmt.Errorf("%w: database driver %q", core.ErrUnknownReader, name)
}

// OpenDB opens and pings a database.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	name, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to connect to db: %v", core.ErrSourceUnavailable, err)
	}
	return db, nil
}

// Dialect builds the table queries a driver understands.
type Dialect interface {
	// TableQuery selects every row of a table.
	TableQuery(table string) string
	// PreviewQuery selects at most limit rows of a table.
	PreviewQuery(table string, limit int) string
}

// DialectFor returns the dialect of a driver. Unknown drivers use the
// LIMIT form.
func DialectFor(driver string) Dialect {
	name, _ := NormalizeDriver(driver)
	switch name {
	case DriverSQLServer:
		return sqlServerDialect{}
	case DriverOracle:
		return oracleDialect{}
	default:
		return limitDialect{}
	}
}

type limitDialect struct{}

func (limitDialect) TableQuery(table string) string { return "SELECT * FROM " + table }

func (limitDialect) PreviewQuery(table string, limit int) string {
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit)
}

type sqlServerDialect struct{}

func (sqlServerDialect) TableQuery(table string) string { return "SELECT * FROM " + table }

func (sqlServerDialect) PreviewQuery(table string, limit int) string {
	return fmt.Sprintf("SELECT TOP %d * FROM %s", limit, table)
}

type oracleDialect struct{}

func (oracleDialect) TableQuery(table string) string { return "SELECT * FROM " + table }

func (oracleDialect) PreviewQuery(table string, limit int) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE ROWNUM <= %d", table, limit)
}

// QuerySource is a grid source over the result set of a query. Column names
// come from the result set; values are converted with core.ToFloat.
type QuerySource struct {
	DB    *sql.DB
	Query string
	Label string // name used in logs, defaults to the query
	// MaxRows stops reading after this many rows. 0 reads the whole result.
	MaxRows int
}

// TableSource selects a whole table with the driver's dialect.
func TableSource(db *sql.DB, driver, table string) QuerySource {
	return QuerySource{DB: db, Query: DialectFor(driver).TableQuery(table), Label: table}
}

func (q QuerySource) Name() string {
	if q.Label != "" {
		return q.Label
	}
	return q.Query
}

// OpenGrid runs the query and buffers its rows.
func (q QuerySource) OpenGrid(ctx context.Context) (core.Grid, error) {
	res, err := runQuery(ctx, q.DB, q.Query, q.MaxRows)
	if err != nil {
		return nil, err
	}

	grid := &resultGrid{names: res.names, cells: make([][]float64, len(res.rows))}
	for i, row := range res.rows {
		cells := make([]float64, len(row))
		for k, v := range row {
			cells[k] = core.ToFloat(v)
		}
		grid.cells[i] = cells
	}
	return grid, nil
}

// ColumnKind classifies a result column by the value in its first row.
type ColumnKind string

const (
	ColumnNumeric  ColumnKind = "numeric"
	ColumnDateTime ColumnKind = "datetime"
	ColumnText     ColumnKind = "text"
)

// QueryColumn describes one column of a query result.
type QueryColumn struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// QueryPreview is the head of a query result rendered as text.
type QueryPreview struct {
	Columns []QueryColumn `json:"columns"`
	Rows    [][]string    `json:"rows"`
	// Numeric is true when every column of the first row holds a number.
	Numeric bool `json:"numeric"`
}

// PreviewQuery runs query and returns at most limit rows as text.
func PreviewQuery(ctx context.Context, db *sql.DB, query string, limit int) (QueryPreview, error) {
	if limit <= 0 {
		limit = core.DefaultPreviewRows
	}
	res, err := runQuery(ctx, db, query, limit)
	if err != nil {
		return QueryPreview{}, err
	}

	p := QueryPreview{Columns: make([]QueryColumn, len(res.names)), Numeric: len(res.rows) > 0}
	for i, name := range res.names {
		p.Columns[i] = QueryColumn{Name: name, Kind: ColumnText}
		if len(res.rows) == 0 {
			continue
		}
		p.Columns[i].Kind = kindOf(res.rows[0][i])
		if p.Columns[i].Kind != ColumnNumeric {
			p.Numeric = false
		}
	}

	for _, row := range res.rows {
		text := make([]string, len(row))
		for k, v := range row {
			text[k] = formatValue(v)
		}
		p.Rows = append(p.Rows, text)
	}
	return p, nil
}

type queryResult struct {
	names []string
	rows  [][]any
}

func runQuery(ctx context.Context, db *sql.DB, query string, maxRows int) (queryResult, error) {
	if strings.TrimSpace(query) == "" {
		return queryResult{}, fmt.Errorf("%w: empty query", core.ErrSourceUnavailable)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return queryResult{}, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return queryResult{}, fmt.Errorf("read columns: %w", err)
	}

	res := queryResult{names: names}
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return queryResult{}, fmt.Errorf("scan row %d: %w", len(res.rows), err)
		}
		res.rows = append(res.rows, vals)
		if maxRows > 0 && len(res.rows) >= maxRows {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return queryResult{}, fmt.Errorf("read rows: %w", err)
	}
	return res, nil
}

func kindOf(v any) ColumnKind {
	if _, ok := v.(time.Time); ok {
		return ColumnDateTime
	}
	if v == nil || math.IsNaN(core.ToFloat(v)) {
		return ColumnText
	}
	return ColumnNumeric
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

type resultGrid struct {
	names []string
	cells [][]float64
}

func (g *resultGrid) Width() int              { return len(g.names) }
func (g *resultGrid) Height() int             { return len(g.cells) }
func (g *resultGrid) At(row, col int) float64 { return g.cells[row][col] }
func (g *resultGrid) ColumnNames() []string   { return g.names }
