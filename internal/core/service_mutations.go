package core

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/JonMunkholm/colimport/internal/table"
)

// Reset drops every row of a table while keeping its columns.
func (s *Service) Reset(tableID string) error {
	rows := 0
	err := s.WithTable(tableID, func(t *table.Table) error {
		rows = t.RowCount()
		if err := t.Clear(); err != nil {
			return &StateError{Op: "clear", Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.add(AuditEntry{Action: ActionTableReset, TableID: tableID, Column: -1, Rows: rows})
	return nil
}

// ResetAll clears every table in the workspace. It stops at the first
// failure, typically a locked table.
func (s *Service) ResetAll() error {
	for _, info := range s.Tables() {
		if err := s.Reset(info.ID); err != nil {
			return fmt.Errorf("reset %s: %w", info.Name, err)
		}
	}
	return nil
}

// DeleteRows removes rows by index and compacts the table. Indices outside
// the table are ignored. Returns the number of rows removed.
func (s *Service) DeleteRows(tableID string, rows []int) (int, error) {
	deleted := 0
	err := s.WithTable(tableID, func(t *table.Table) error {
		if t.Locked() {
			return &StateError{Op: "delete rows", Err: table.ErrLocked}
		}
		drop := make(map[int]bool, len(rows))
		for _, r := range rows {
			if r >= 0 && r < t.RowCount() {
				drop[r] = true
			}
		}
		if len(drop) == 0 {
			return nil
		}

		restore := suppressNotifications(t, 0, t.ColumnCount())
		defer restore()
		for i := 0; i < t.ColumnCount(); i++ {
			values, err := t.Values(i)
			if err != nil {
				return err
			}
			kept := 0
			for r, v := range values {
				if !drop[r] {
					t.SetValue(i, kept, v)
					kept++
				}
			}
		}
		deleted = len(drop)
		return t.SetRowCount(t.RowCount() - deleted)
	})
	return deleted, err
}

// UpdateCellRequest addresses a single cell by row index and column name.
type UpdateCellRequest struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// UpdateCellResult contains the result of a cell update.
type UpdateCellResult struct {
	Success         bool   `json:"success"`
	OldValue        string `json:"oldValue,omitempty"`
	ValidationError string `json:"validationError,omitempty"`
}

// UpdateCell writes one cell. The value is parsed like imported text: an
// empty value clears the cell to NaN, anything else must be numeric.
func (s *Service) UpdateCell(tableID string, req UpdateCellRequest) (*UpdateCellResult, error) {
	v := math.NaN()
	if raw := strings.TrimSpace(req.Value); raw != "" {
		v = ParseFloat(raw)
		if math.IsNaN(v) {
			return &UpdateCellResult{ValidationError: fmt.Sprintf("%q is not a number", req.Value)}, nil
		}
	}

	var old float64
	err := s.WithTable(tableID, func(t *table.Table) error {
		col := indexOf(t.ColumnNames(), req.Column)
		if col < 0 {
			return fmt.Errorf("%w: %q", table.ErrColumnIndex, req.Column)
		}
		if req.Row < 0 || req.Row >= t.RowCount() {
			return &RangeError{Axis: "row", Start: req.Row, End: t.RowCount() - 1}
		}
		old = t.Value(col, req.Row)
		t.SetValue(col, req.Row, v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.add(AuditEntry{
		Action:     ActionCellEdit,
		TableID:    tableID,
		Column:     -1,
		ColumnName: req.Column,
		Rows:       req.Row,
		OldValue:   formatCell(old),
		NewValue:   formatCell(v),
	})
	return &UpdateCellResult{Success: true, OldValue: formatCell(old)}, nil
}

// RenameColumn renames a column by its current name.
func (s *Service) RenameColumn(tableID, from, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("column name is required")
	}
	return s.WithTable(tableID, func(t *table.Table) error {
		col := indexOf(t.ColumnNames(), from)
		if col < 0 {
			return fmt.Errorf("%w: %q", table.ErrColumnIndex, from)
		}
		if err := t.SetColumnName(col, to); err != nil {
			return &StateError{Op: "rename column", Err: err}
		}
		return nil
	})
}

// RenameTable changes a table's display name.
func (s *Service) RenameTable(tableID, name string) error {
	return s.WithTable(tableID, func(t *table.Table) error {
		t.SetName(name)
		return nil
	})
}

// RemoveColumns drops columns by name. Unknown names are ignored.
func (s *Service) RemoveColumns(tableID string, names []string) (int, error) {
	removed := 0
	err := s.WithTable(tableID, func(t *table.Table) error {
		idx := make([]int, 0, len(names))
		for _, n := range names {
			if i := indexOf(t.ColumnNames(), n); i >= 0 {
				idx = append(idx, i)
			}
		}
		// Highest index first so earlier removals do not shift later ones.
		sort.Sort(sort.Reverse(sort.IntSlice(idx)))
		for _, i := range idx {
			if err := t.RemoveColumn(i); err != nil {
				return &StateError{Op: "remove column", Err: err}
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
