package core

import (
	"github.com/JonMunkholm/colimport/internal/table"
)

// Merge prepares the destination to receive the schema's columns and returns
// the index of the first of them. On return, columns [offset, offset+N) exist,
// are Numeric and are named after s.Names.
//
// A refused mutation is returned as a *StateError. Earlier steps are not
// rolled back, so the destination must be inspected or reset afterwards.
func Merge(t *table.Table, s Schema, mode MergeMode, budget int) (offset int, err error) {
	switch mode {
	case Prepend:
		offset, err = mergePrepend(t, s)
	case Replace:
		return mergeReplace(t, s, budget)
	default:
		offset, err = mergeAppend(t, s)
	}
	if err != nil {
		return 0, err
	}

	if t.RowCount() < budget {
		if err := t.SetRowCount(budget); err != nil {
			return 0, &StateError{Op: "resize", Err: err}
		}
	}
	return offset, nil
}

func mergeAppend(t *table.Table, s Schema) (int, error) {
	offset := t.ColumnCount()
	for _, name := range s.Names {
		if _, err := t.AddColumn(name, table.Numeric); err != nil {
			return 0, &StateError{Op: "add column", Err: err}
		}
	}
	return offset, nil
}

func mergePrepend(t *table.Table, s Schema) (int, error) {
	for i, name := range s.Names {
		// Inserting at i keeps the new columns in schema order ahead of the
		// existing ones; on an empty table i is also the end.
		if err := t.InsertColumn(i, name, table.Numeric); err != nil {
			return 0, &StateError{Op: "insert column", Err: err}
		}
	}
	return 0, nil
}

func mergeReplace(t *table.Table, s Schema, budget int) (int, error) {
	n := s.ColumnCount()

	for t.ColumnCount() > n {
		if err := t.RemoveColumn(0); err != nil {
			return 0, &StateError{Op: "remove column", Err: err}
		}
	}

	existing := t.ColumnCount()
	for i := 0; i < existing; i++ {
		if err := t.SetColumnName(i, s.Names[i]); err != nil {
			return 0, &StateError{Op: "rename column", Err: err}
		}
		if err := t.SetColumnType(i, table.Numeric); err != nil {
			return 0, &StateError{Op: "retype column", Err: err}
		}
	}
	for _, name := range s.Names[existing:] {
		if _, err := t.AddColumn(name, table.Numeric); err != nil {
			return 0, &StateError{Op: "add column", Err: err}
		}
	}

	if err := t.Clear(); err != nil {
		return 0, &StateError{Op: "clear", Err: err}
	}
	if err := t.SetRowCount(budget); err != nil {
		return 0, &StateError{Op: "resize", Err: err}
	}
	return 0, nil
}
