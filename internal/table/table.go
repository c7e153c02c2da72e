// Package table provides the resizable, column-oriented in-memory table that
// imports write into.
//
// A Table exclusively owns its columns. Columns have no identity outside the
// table: callers address them by index, and every accessor validates the
// index against the current column list. All columns always hold exactly
// RowCount values; growing the row count fills new cells with NaN.
//
// The table does no internal locking. Callers that share a table between
// goroutines must serialize access themselves (see core.Service).
package table

import (
	"errors"
	"fmt"
	"math"
)

// ErrLocked is returned when a structural mutation is attempted on a locked table.
var ErrLocked = errors.New("table is locked against structural changes")

// ErrColumnIndex is returned when a column index is out of range.
var ErrColumnIndex = errors.New("column index out of range")

// ColumnType is the declared type of a column.
type ColumnType int

const (
	Numeric ColumnType = iota
	Text
)

func (t ColumnType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

type column struct {
	name       string
	typ        ColumnType
	values     []float64
	comment    string
	suppressed bool
	dirty      bool
}

// Table is an ordered sequence of columns with a shared row count.
type Table struct {
	name      string
	columns   []*column
	rows      int
	locked    bool
	observers []Observer
}

// New creates an empty table.
func New(name string) *Table {
	return &Table{name: name}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// SetName renames the table.
func (t *Table) SetName(name string) { t.name = name }

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return len(t.columns) }

// RowCount returns the number of rows every column holds.
func (t *Table) RowCount() int { return t.rows }

// Lock makes the table reject structural mutations with ErrLocked.
func (t *Table) Lock() { t.locked = true }

// Unlock re-enables structural mutations.
func (t *Table) Unlock() { t.locked = false }

// Locked reports whether structural mutations are rejected.
func (t *Table) Locked() bool { return t.locked }

func (t *Table) col(i int) (*column, error) {
	if i < 0 || i >= len(t.columns) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrColumnIndex, i, len(t.columns))
	}
	return t.columns[i], nil
}

func newColumn(name string, typ ColumnType, rows int) *column {
	return &column{name: name, typ: typ, values: nanSlice(rows)}
}

func nanSlice(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}

// AddColumn appends a new column and returns its index.
func (t *Table) AddColumn(name string, typ ColumnType) (int, error) {
	if t.locked {
		return -1, ErrLocked
	}
	t.columns = append(t.columns, newColumn(name, typ, t.rows))
	idx := len(t.columns) - 1
	t.emit(Event{Kind: ColumnInserted, Column: idx})
	return idx, nil
}

// InsertColumn inserts a new column at position pos, shifting later columns right.
// pos == ColumnCount() appends.
func (t *Table) InsertColumn(pos int, name string, typ ColumnType) error {
	if t.locked {
		return ErrLocked
	}
	if pos < 0 || pos > len(t.columns) {
		return fmt.Errorf("%w: insert at %d (have %d)", ErrColumnIndex, pos, len(t.columns))
	}
	t.columns = append(t.columns, nil)
	copy(t.columns[pos+1:], t.columns[pos:])
	t.columns[pos] = newColumn(name, typ, t.rows)
	t.emit(Event{Kind: ColumnInserted, Column: pos})
	return nil
}

// RemoveColumn removes the column at index i.
func (t *Table) RemoveColumn(i int) error {
	if t.locked {
		return ErrLocked
	}
	if _, err := t.col(i); err != nil {
		return err
	}
	t.columns = append(t.columns[:i], t.columns[i+1:]...)
	t.emit(Event{Kind: ColumnRemoved, Column: i})
	return nil
}

// SetRowCount resizes every column. Growing fills NaN, shrinking truncates.
func (t *Table) SetRowCount(n int) error {
	if t.locked {
		return ErrLocked
	}
	if n < 0 {
		return fmt.Errorf("negative row count %d", n)
	}
	if n == t.rows {
		return nil
	}
	for _, c := range t.columns {
		if n < len(c.values) {
			c.values = c.values[:n]
		} else {
			c.values = append(c.values, nanSlice(n-len(c.values))...)
		}
	}
	t.rows = n
	t.emit(Event{Kind: RowsResized, Column: -1})
	return nil
}

// Clear drops every row while keeping the columns.
func (t *Table) Clear() error {
	if t.locked {
		return ErrLocked
	}
	for _, c := range t.columns {
		c.values = c.values[:0]
	}
	t.rows = 0
	t.emit(Event{Kind: RowsResized, Column: -1})
	return nil
}

// ColumnName returns the name of column i.
func (t *Table) ColumnName(i int) (string, error) {
	c, err := t.col(i)
	if err != nil {
		return "", err
	}
	return c.name, nil
}

// ColumnNames returns the names of all columns in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// SetColumnName renames column i.
func (t *Table) SetColumnName(i int, name string) error {
	if t.locked {
		return ErrLocked
	}
	c, err := t.col(i)
	if err != nil {
		return err
	}
	c.name = name
	t.emit(Event{Kind: ColumnRenamed, Column: i})
	return nil
}

// ColumnType returns the declared type of column i.
func (t *Table) ColumnType(i int) (ColumnType, error) {
	c, err := t.col(i)
	if err != nil {
		return 0, err
	}
	return c.typ, nil
}

// SetColumnType changes the declared type of column i.
func (t *Table) SetColumnType(i int, typ ColumnType) error {
	if t.locked {
		return ErrLocked
	}
	c, err := t.col(i)
	if err != nil {
		return err
	}
	c.typ = typ
	return nil
}

// Comment returns the free-text comment of column i.
func (t *Table) Comment(i int) (string, error) {
	c, err := t.col(i)
	if err != nil {
		return "", err
	}
	return c.comment, nil
}

// SetComment sets the free-text comment of column i.
func (t *Table) SetComment(i int, comment string) error {
	c, err := t.col(i)
	if err != nil {
		return err
	}
	c.comment = comment
	return nil
}

// Value returns the cell at (column i, row). Out of range cells read as NaN.
func (t *Table) Value(i, row int) float64 {
	if i < 0 || i >= len(t.columns) || row < 0 || row >= t.rows {
		return math.NaN()
	}
	return t.columns[i].values[row]
}

// SetValue writes the cell at (column i, row). Writes outside the table are ignored.
func (t *Table) SetValue(i, row int, v float64) {
	if i < 0 || i >= len(t.columns) || row < 0 || row >= t.rows {
		return
	}
	c := t.columns[i]
	c.values[row] = v
	if c.suppressed {
		c.dirty = true
		return
	}
	t.emit(Event{Kind: DataChanged, Column: i})
}

// Values returns a copy of column i's values.
func (t *Table) Values(i int) ([]float64, error) {
	c, err := t.col(i)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(c.values))
	copy(out, c.values)
	return out, nil
}

// SetNotificationsSuppressed toggles change notifications for column i.
// While suppressed, value writes only mark the column dirty; lifting the
// suppression emits a single DataChanged event if anything was written.
func (t *Table) SetNotificationsSuppressed(i int, suppressed bool) error {
	c, err := t.col(i)
	if err != nil {
		return err
	}
	c.suppressed = suppressed
	if !suppressed && c.dirty {
		c.dirty = false
		t.emit(Event{Kind: DataChanged, Column: i})
	}
	return nil
}

// NotificationsSuppressed reports whether column i has notifications suppressed.
func (t *Table) NotificationsSuppressed(i int) bool {
	c, err := t.col(i)
	if err != nil {
		return false
	}
	return c.suppressed
}
