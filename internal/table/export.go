package table

// export.go converts a table into transport-friendly shapes: a JSON snapshot
// (NaN and infinities become null, since JSON cannot carry them) and
// delimited text.

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// ColumnSnapshot is a point-in-time copy of one column.
type ColumnSnapshot struct {
	Name    string     `json:"name"`
	Type    string     `json:"type"`
	Comment string     `json:"comment,omitempty"`
	Values  []*float64 `json:"values"`
}

// Snapshot is a point-in-time copy of a whole table.
type Snapshot struct {
	Name     string           `json:"name"`
	RowCount int              `json:"rowCount"`
	Columns  []ColumnSnapshot `json:"columns"`
}

// Snapshot copies the table. maxRows <= 0 copies every row.
func (t *Table) Snapshot(maxRows int) Snapshot {
	rows := t.rows
	if maxRows > 0 && maxRows < rows {
		rows = maxRows
	}

	snap := Snapshot{Name: t.name, RowCount: t.rows, Columns: make([]ColumnSnapshot, len(t.columns))}
	for i, c := range t.columns {
		vals := make([]*float64, rows)
		for r := 0; r < rows; r++ {
			v := c.values[r]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			vals[r] = &v
		}
		snap.Columns[i] = ColumnSnapshot{
			Name:    c.name,
			Type:    c.typ.String(),
			Comment: c.comment,
			Values:  vals,
		}
	}
	return snap
}

// WriteCSV writes the table as delimited text with a header row of column names.
// NaN cells are written as empty fields.
func (t *Table) WriteCSV(w io.Writer, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(t.columns))
	for r := 0; r < t.rows; r++ {
		for i, c := range t.columns {
			v := c.values[r]
			if math.IsNaN(v) {
				record[i] = ""
				continue
			}
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
