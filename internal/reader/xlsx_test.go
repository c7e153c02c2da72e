package reader

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/colimport/internal/core"
	"github.com/JonMunkholm/colimport/internal/table"
)

func writeWorkbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestWorkbook_Import(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"data": {
			{"x", "y"},
			{1, 2.5},
			{"# note"},
			{3, "n/a"},
		},
	})

	tbl := table.New("wb")
	sum, err := core.Import(context.Background(), Workbook{Path: path}, tbl, core.DefaultOptions(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, sum.ColumnsWritten)
	require.Equal(t, []string{"x", "y"}, tbl.ColumnNames())

	require.Equal(t, 1.0, tbl.Value(0, 0))
	require.Equal(t, 2.5, tbl.Value(1, 0))
	require.Equal(t, 3.0, tbl.Value(0, 1))
	require.True(t, math.IsNaN(tbl.Value(1, 1)))
}

func TestWorkbook_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"only": {{10}, {20}},
	})

	sheets, err := Sheets(path)
	require.NoError(t, err)
	require.Equal(t, []string{"only"}, sheets)

	opts := core.DefaultOptions()
	opts.Header = false
	tbl := table.New("wb")
	sum, err := core.Import(context.Background(), Workbook{Path: path, Sheet: "only"}, tbl, opts, nil)
	require.NoError(t, err)
	require.Equal(t, "book.xlsx:only", sum.Source)

	vals, err := tbl.Values(0)
	require.NoError(t, err)
	require.Equal(t, []float64{10, 20}, vals)
}

func TestWorkbook_Errors(t *testing.T) {
	_, err := Workbook{Path: filepath.Join(t.TempDir(), "none.xlsx")}.OpenRecords(context.Background())
	require.ErrorIs(t, err, core.ErrSourceUnavailable)

	path := writeFile(t, "bad.xlsx", "not a zip")
	_, err = Workbook{Path: path}.OpenRecords(context.Background())
	require.Error(t, err)
	require.Equal(t, "IMP003", core.MapError(err).Code)

	good := writeWorkbook(t, map[string][][]any{"s": {{1}}})
	_, err = Workbook{Path: good, Sheet: "missing"}.OpenRecords(context.Background())
	require.Error(t, err)
}
