package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/colimport/internal/logging"
	"github.com/JonMunkholm/colimport/internal/table"
)

// ProgressFunc receives the import progress as a percentage. Values are
// non-decreasing within one import. A nil ProgressFunc is allowed.
type ProgressFunc func(percent int)

// Summary describes what one import wrote.
type Summary struct {
	Source         string `json:"source"`
	ColumnsWritten int    `json:"columnsWritten"`
	RowsWritten    int    `json:"rowsWritten"`
	ColumnOffset   int    `json:"columnOffset"`
}

// Empty reports whether the import wrote nothing.
func (s Summary) Empty() bool {
	return s.ColumnsWritten == 0 && s.RowsWritten == 0
}

// Import reads src into dst according to opts.
//
// A missing or unopenable source is not an error: Import logs a warning and
// returns an empty Summary. Invalid bounds return a *RangeError before dst is
// modified. A refused table mutation returns a *StateError and leaves dst in
// an indeterminate state. Cancelling ctx stops the import between rows.
func Import(ctx context.Context, src Source, dst *table.Table, opts Options, progress ProgressFunc) (Summary, error) {
	if progress == nil {
		progress = func(int) {}
	}

	log := logging.WithFields(ctx, "source", src.Name(), "mode", opts.Mode.String())
	start := time.Now()
	log.Debug("import started")

	var (
		sum Summary
		err error
	)
	if g, ok := src.(GridSource); ok {
		sum, err = importGrid(ctx, g, dst, opts, progress)
	} else {
		sum, err = importRecords(ctx, src, dst, opts, progress)
	}
	sum.Source = src.Name()

	if errors.Is(err, ErrSourceUnavailable) {
		log.Warn("import source unavailable", "error", err)
		return Summary{Source: src.Name()}, nil
	}
	if err != nil {
		return sum, err
	}

	log.Info("import completed",
		"columns", sum.ColumnsWritten,
		"rows", sum.RowsWritten,
		"offset", sum.ColumnOffset,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sum, nil
}

func importRecords(ctx context.Context, src Source, dst *table.Table, opts Options, progress ProgressFunc) (Summary, error) {
	total, err := countRecords(ctx, src, opts)
	if err != nil {
		return Summary{}, err
	}

	win, err := ResolveWindow(opts.StartRow, opts.EndRow, total, opts.Header)
	if err != nil {
		return Summary{}, err
	}
	if win.StartRow >= total {
		return Summary{}, nil
	}

	it, err := openRecords(ctx, src, opts)
	if err != nil {
		return Summary{}, err
	}
	defer it.Close()

	for i := 0; i < win.StartRow; i++ {
		if !it.Next() {
			return Summary{}, it.Err()
		}
	}
	first, ok, err := firstRecord(it, &win)
	if !ok {
		return Summary{}, err
	}

	schema, err := ResolveSchema(first.fields, opts)
	if err != nil {
		return Summary{}, err
	}

	offset, err := Merge(dst, schema, opts.Mode, win.Budget)
	if err != nil {
		return Summary{}, err
	}

	restore := suppressNotifications(dst, offset, schema.ColumnCount())
	defer restore()

	m := &materializer{
		dst:      dst,
		schema:   schema,
		window:   win,
		offset:   offset,
		progress: progress,
	}
	if !schema.HeaderConsumed {
		m.write(first)
	}
	rows, err := m.run(ctx, it)

	annotate(dst, offset, schema.ColumnCount(), rows)
	sum := Summary{ColumnsWritten: schema.ColumnCount(), RowsWritten: rows, ColumnOffset: offset}
	return sum, err
}

// firstRecord reads the record that supplies the schema: the first one of
// the window that is neither a comment nor empty. Each record skipped on
// the way is taken out of the window.
func firstRecord(it recordIterator, win *Window) (record, bool, error) {
	for win.StartRow <= win.EndRow {
		if !it.Next() {
			return record{}, false, it.Err()
		}
		rec := it.Record()
		if !rec.comment && len(rec.fields) > 0 {
			return rec, true, nil
		}
		win.StartRow++
		win.Budget--
	}
	return record{}, false, nil
}

// suppressNotifications silences the touched columns and returns the
// function that restores them.
func suppressNotifications(t *table.Table, offset, n int) (restore func()) {
	for i := offset; i < offset+n; i++ {
		_ = t.SetNotificationsSuppressed(i, true)
	}
	return func() {
		for i := offset; i < offset+n; i++ {
			_ = t.SetNotificationsSuppressed(i, false)
		}
	}
}

func annotate(t *table.Table, offset, n, rows int) {
	comment := fmt.Sprintf("numerical data, %d elements", rows)
	for i := offset; i < offset+n; i++ {
		_ = t.SetComment(i, comment)
	}
}
