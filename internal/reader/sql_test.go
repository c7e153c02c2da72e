package reader

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/colimport/internal/core"
	"github.com/JonMunkholm/colimport/internal/table"
)

// fakeDriver serves canned result sets keyed by query text.
type fakeDriver struct{}

type fakeResult struct {
	cols []string
	rows [][]driver.Value
}

var fakeResults = map[string]fakeResult{
	"SELECT * FROM samples": {
		cols: []string{"t", "signal", "label"},
		rows: [][]driver.Value{
			{int64(0), 1.5, []byte("a")},
			{int64(1), nil, []byte("b")},
			{int64(2), 4.0, []byte("7")},
		},
	},
	"SELECT stamp FROM events": {
		cols: []string{"stamp"},
		rows: [][]driver.Value{{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}},
	},
}

func init() {
	sql.Register("colimport-fake", fakeDriver{})
}

func (fakeDriver) Open(string) (driver.Conn, error) { return fakeConn{}, nil }

type fakeConn struct{}

func (fakeConn) Prepare(query string) (driver.Stmt, error) { return fakeStmt{query: query}, nil }
func (fakeConn) Close() error                              { return nil }
func (fakeConn) Begin() (driver.Tx, error)                 { return nil, errors.New("not supported") }

type fakeStmt struct{ query string }

func (fakeStmt) Close() error  { return nil }
func (fakeStmt) NumInput() int { return -1 }

func (fakeStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, errors.New("not supported")
}

func (s fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	res, ok := fakeResults[s.query]
	if !ok {
		return nil, errors.New("no such table")
	}
	return &fakeRows{res: res}, nil
}

type fakeRows struct {
	res fakeResult
	i   int
}

func (r *fakeRows) Columns() []string { return r.res.cols }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.i >= len(r.res.rows) {
		return io.EOF
	}
	copy(dest, r.res.rows[r.i])
	r.i++
	return nil
}

func openFake(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("colimport-fake", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestQuerySource_Import(t *testing.T) {
	db := openFake(t)

	tbl := table.New("q")
	src := TableSource(db, "postgres", "samples")
	sum, err := core.Import(context.Background(), src, tbl, core.DefaultOptions(), nil)
	require.NoError(t, err)
	require.Equal(t, "samples", sum.Source)
	require.Equal(t, 3, sum.RowsWritten)
	require.Equal(t, []string{"t", "signal", "label"}, tbl.ColumnNames())

	require.Equal(t, 1.5, tbl.Value(1, 0))
	require.True(t, math.IsNaN(tbl.Value(1, 1)))
	require.True(t, math.IsNaN(tbl.Value(2, 0)))
	require.Equal(t, 7.0, tbl.Value(2, 2))
}

func TestQuerySource_MaxRows(t *testing.T) {
	db := openFake(t)

	grid, err := QuerySource{DB: db, Query: "SELECT * FROM samples", MaxRows: 2}.OpenGrid(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, grid.Height())
	require.Equal(t, 3, grid.Width())
}

func TestQuerySource_Errors(t *testing.T) {
	db := openFake(t)

	_, err := QuerySource{DB: db, Query: "SELECT * FROM nowhere"}.OpenGrid(context.Background())
	require.ErrorContains(t, err, "no such table")

	tbl := table.New("q")
	sum, err := core.Import(context.Background(), QuerySource{DB: db, Query: "  "}, tbl, core.DefaultOptions(), nil)
	require.NoError(t, err)
	require.True(t, sum.Empty())
}

func TestPreviewQuery(t *testing.T) {
	db := openFake(t)

	p, err := PreviewQuery(context.Background(), db, "SELECT * FROM samples", 2)
	require.NoError(t, err)
	require.Equal(t, []QueryColumn{
		{Name: "t", Kind: ColumnNumeric},
		{Name: "signal", Kind: ColumnNumeric},
		{Name: "label", Kind: ColumnText},
	}, p.Columns)
	require.False(t, p.Numeric)
	require.Equal(t, [][]string{{"0", "1.5", "a"}, {"1", "", "b"}}, p.Rows)

	p, err = PreviewQuery(context.Background(), db, "SELECT stamp FROM events", 0)
	require.NoError(t, err)
	require.Equal(t, ColumnDateTime, p.Columns[0].Kind)
	require.Equal(t, "2024-01-02T03:04:05Z", p.Rows[0][0])
}

func TestDialects(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"postgres", "SELECT * FROM m LIMIT 5"},
		{"mysql", "SELECT * FROM m LIMIT 5"},
		{"mssql", "SELECT TOP 5 * FROM m"},
		{"oracle", "SELECT * FROM m WHERE ROWNUM <= 5"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d := DialectFor(tt.driver)
			require.Equal(t, tt.want, d.PreviewQuery("m", 5))
			require.Equal(t, "SELECT * FROM m", d.TableQuery("m"))
		})
	}
}

func TestNormalizeDriver(t *testing.T) {
	for in, want := range map[string]string{
		"PostgreSQL": DriverPostgres,
		"pgx":        DriverPostgres,
		"mariadb":    DriverMySQL,
		"mssql":      DriverSQLServer,
		"ora":        DriverOracle,
	} {
		got, err := NormalizeDriver(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := NormalizeDriver("sqlite")
	require.ErrorIs(t, err, core.ErrUnknownReader)
}
