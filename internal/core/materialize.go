package core

import (
	"context"
	"io"
	"math"

	"github.com/JonMunkholm/colimport/internal/table"
)

// materializer writes windowed records into the merged destination columns.
type materializer struct {
	dst      *table.Table
	schema   Schema
	window   Window
	offset   int
	progress ProgressFunc

	row    int // next destination row
	cursor int // source index of the last record read
}

// write stores one record and reports whether it produced a row. Comment
// and empty records are skipped without advancing the destination row.
func (m *materializer) write(rec record) bool {
	if rec.comment || len(rec.fields) == 0 || m.row >= m.window.Budget {
		return false
	}

	for k := 0; k < m.schema.ColumnCount(); k++ {
		v := math.NaN()
		if n := m.schema.StartColumn + k; n < len(rec.fields) {
			v = ParseFloat(rec.fields[n])
		}
		m.dst.SetValue(m.offset+k, m.row, v)
	}

	m.row++
	m.progress(100 * m.row / m.window.Budget)
	return true
}

// run consumes records until the row budget or the window end is reached.
// The context is checked once per record.
func (m *materializer) run(ctx context.Context, it recordIterator) (int, error) {
	m.cursor = m.window.StartRow
	for m.row < m.window.Budget && m.cursor < m.window.EndRow {
		if err := ctx.Err(); err != nil {
			return m.row, err
		}
		if !it.Next() {
			break
		}
		m.cursor++
		m.write(it.Record())
	}
	return m.row, it.Err()
}

func importGrid(ctx context.Context, src GridSource, dst *table.Table, opts Options, progress ProgressFunc) (Summary, error) {
	grid, err := src.OpenGrid(ctx)
	if err != nil {
		return Summary{}, err
	}
	if c, ok := grid.(io.Closer); ok {
		defer c.Close()
	}

	height, width := grid.Height(), grid.Width()
	win, err := ResolveWindow(opts.StartRow, opts.EndRow, height, false)
	if err != nil {
		return Summary{}, err
	}
	if win.Empty() {
		return Summary{}, nil
	}

	start, end, err := ColumnWindow(opts.StartColumn, opts.EndColumn, width)
	if err != nil {
		return Summary{}, err
	}
	schema := Schema{StartColumn: start, EndColumn: end, Names: gridNames(grid, opts, start, end)}

	offset, err := Merge(dst, schema, opts.Mode, win.Budget)
	if err != nil {
		return Summary{}, err
	}

	restore := suppressNotifications(dst, offset, schema.ColumnCount())
	defer restore()

	rows := 0
	for r := 0; r < win.Budget; r++ {
		if err := ctx.Err(); err != nil {
			annotate(dst, offset, schema.ColumnCount(), rows)
			return Summary{ColumnsWritten: schema.ColumnCount(), RowsWritten: rows, ColumnOffset: offset}, err
		}
		for k := 0; k < schema.ColumnCount(); k++ {
			dst.SetValue(offset+k, r, grid.At(win.StartRow+r, start+k))
		}
		rows++
		progress(100 * rows / win.Budget)
	}

	annotate(dst, offset, schema.ColumnCount(), rows)
	return Summary{ColumnsWritten: schema.ColumnCount(), RowsWritten: rows, ColumnOffset: offset}, nil
}

// gridNames takes names from the grid when it has them, otherwise from the
// configured list with generated defaults. Generated names are numbered
// within the window, like explicitNames.
func gridNames(grid Grid, opts Options, start, end int) []string {
	count := end - start + 1
	if n, ok := grid.(Namer); ok {
		all := n.ColumnNames()
		names := make([]string, count)
		for k := range names {
			if pos := start + k; pos < len(all) && all[pos] != "" {
				names[k] = all[pos]
			} else {
				names[k] = DefaultColumnName(k + 1)
			}
		}
		return names
	}
	return explicitNames(opts.ColumnNames, count)
}
