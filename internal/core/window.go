package core

// Window is the clipped row range of one import.
type Window struct {
	StartRow int `json:"startRow"`
	EndRow   int `json:"endRow"`

	// Budget is the number of destination rows the import will write.
	Budget int `json:"budget"`
}

// Empty reports whether the window contributes no rows.
func (w Window) Empty() bool { return w.Budget <= 0 }

// ResolveWindow clips the requested rows against the total record count.
// A start at or past the end of the source yields an empty window, not an
// error. With a header, one record of the window is consumed as names.
func ResolveWindow(startRow int, endRow Bound, total int, header bool) (Window, error) {
	if startRow < 0 {
		return Window{}, &RangeError{Axis: "row", Start: startRow, End: endRow.Int()}
	}
	if startRow >= total {
		return Window{StartRow: startRow, EndRow: startRow - 1}, nil
	}

	last := total - 1
	end := endRow.Resolve(last)
	if end > last {
		end = last
	}
	if end < startRow {
		return Window{}, &RangeError{Axis: "row", Start: startRow, End: end}
	}

	budget := end - startRow + 1
	if header {
		budget--
	}
	return Window{StartRow: startRow, EndRow: end, Budget: budget}, nil
}

// ColumnWindow clips a requested column range against a known width. It is
// used by grid sources, where the width is fixed up front.
func ColumnWindow(startColumn int, endColumn Bound, width int) (start, end int, err error) {
	end = endColumn.Resolve(width - 1)
	if end > width-1 {
		end = width - 1
	}
	if startColumn < 0 || end < startColumn {
		return 0, 0, &RangeError{Axis: "column", Start: startColumn, End: end}
	}
	return startColumn, end, nil
}
