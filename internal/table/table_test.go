package table

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func newFilled(t *testing.T, names []string, rows int) *Table {
	t.Helper()
	tbl := New("test")
	for _, n := range names {
		if _, err := tbl.AddColumn(n, Numeric); err != nil {
			t.Fatalf("AddColumn(%q) error = %v", n, err)
		}
	}
	if err := tbl.SetRowCount(rows); err != nil {
		t.Fatalf("SetRowCount(%d) error = %v", rows, err)
	}
	for i := range names {
		for r := 0; r < rows; r++ {
			tbl.SetValue(i, r, float64(i*100+r))
		}
	}
	return tbl
}

func TestSetRowCount_GrowFillsNaN(t *testing.T) {
	tbl := newFilled(t, []string{"a"}, 2)

	if err := tbl.SetRowCount(4); err != nil {
		t.Fatalf("SetRowCount error = %v", err)
	}
	if got := tbl.Value(0, 1); got != 1 {
		t.Errorf("Value(0,1) = %v, want 1", got)
	}
	for r := 2; r < 4; r++ {
		if !math.IsNaN(tbl.Value(0, r)) {
			t.Errorf("Value(0,%d) = %v, want NaN", r, tbl.Value(0, r))
		}
	}
}

func TestSetRowCount_ShrinkTruncates(t *testing.T) {
	tbl := newFilled(t, []string{"a", "b"}, 5)

	if err := tbl.SetRowCount(2); err != nil {
		t.Fatalf("SetRowCount error = %v", err)
	}
	for i := 0; i < 2; i++ {
		vals, _ := tbl.Values(i)
		if len(vals) != 2 {
			t.Errorf("column %d has %d values, want 2", i, len(vals))
		}
	}
}

func TestAddColumn_MatchesRowCount(t *testing.T) {
	tbl := newFilled(t, []string{"a"}, 3)

	idx, err := tbl.AddColumn("b", Numeric)
	if err != nil {
		t.Fatalf("AddColumn error = %v", err)
	}
	vals, _ := tbl.Values(idx)
	if len(vals) != 3 {
		t.Fatalf("new column has %d values, want 3", len(vals))
	}
	for _, v := range vals {
		if !math.IsNaN(v) {
			t.Errorf("new column value = %v, want NaN", v)
		}
	}
}

func TestInsertColumn_Positions(t *testing.T) {
	tbl := newFilled(t, []string{"a", "b"}, 1)

	if err := tbl.InsertColumn(0, "x", Numeric); err != nil {
		t.Fatalf("InsertColumn error = %v", err)
	}
	if err := tbl.InsertColumn(3, "z", Numeric); err != nil {
		t.Fatalf("InsertColumn at end error = %v", err)
	}
	if err := tbl.InsertColumn(9, "bad", Numeric); !errors.Is(err, ErrColumnIndex) {
		t.Errorf("InsertColumn out of range error = %v, want ErrColumnIndex", err)
	}

	want := []string{"x", "a", "b", "z"}
	got := tbl.ColumnNames()
	if len(got) != len(want) {
		t.Fatalf("ColumnNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ColumnNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRemoveColumn(t *testing.T) {
	tbl := newFilled(t, []string{"a", "b", "c"}, 1)

	if err := tbl.RemoveColumn(1); err != nil {
		t.Fatalf("RemoveColumn error = %v", err)
	}
	if got := tbl.ColumnNames(); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("ColumnNames() = %v, want [a c]", got)
	}
	if err := tbl.RemoveColumn(5); !errors.Is(err, ErrColumnIndex) {
		t.Errorf("RemoveColumn(5) error = %v, want ErrColumnIndex", err)
	}
}

func TestLocked_RejectsStructuralChanges(t *testing.T) {
	tbl := newFilled(t, []string{"a"}, 1)
	tbl.Lock()

	checks := map[string]error{
		"AddColumn":     func() error { _, err := tbl.AddColumn("b", Numeric); return err }(),
		"InsertColumn":  tbl.InsertColumn(0, "b", Numeric),
		"RemoveColumn":  tbl.RemoveColumn(0),
		"SetRowCount":   tbl.SetRowCount(10),
		"Clear":         tbl.Clear(),
		"SetColumnName": tbl.SetColumnName(0, "b"),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrLocked) {
			t.Errorf("%s error = %v, want ErrLocked", name, err)
		}
	}

	tbl.Unlock()
	if err := tbl.SetRowCount(2); err != nil {
		t.Errorf("SetRowCount after Unlock error = %v", err)
	}
}

func TestNotificationSuppression_BatchesDataChanged(t *testing.T) {
	tbl := newFilled(t, []string{"a"}, 3)

	var events []Event
	tbl.Subscribe(func(e Event) {
		if e.Kind == DataChanged {
			events = append(events, e)
		}
	})

	if err := tbl.SetNotificationsSuppressed(0, true); err != nil {
		t.Fatalf("SetNotificationsSuppressed error = %v", err)
	}
	for r := 0; r < 3; r++ {
		tbl.SetValue(0, r, 7)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events while suppressed, want 0", len(events))
	}

	_ = tbl.SetNotificationsSuppressed(0, false)
	if len(events) != 1 {
		t.Fatalf("got %d events after restore, want 1", len(events))
	}

	tbl.SetValue(0, 0, 8)
	if len(events) != 2 {
		t.Errorf("got %d events after unsuppressed write, want 2", len(events))
	}
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	tbl := New("t")
	count := 0
	unsubscribe := tbl.Subscribe(func(Event) { count++ })

	_, _ = tbl.AddColumn("a", Numeric)
	unsubscribe()
	_, _ = tbl.AddColumn("b", Numeric)

	if count != 1 {
		t.Errorf("observer called %d times, want 1", count)
	}
}

func TestSnapshot_NaNBecomesNull(t *testing.T) {
	tbl := newFilled(t, []string{"a"}, 2)
	tbl.SetValue(0, 1, math.NaN())

	snap := tbl.Snapshot(0)
	if snap.RowCount != 2 || len(snap.Columns) != 1 {
		t.Fatalf("snapshot shape = %d rows, %d cols", snap.RowCount, len(snap.Columns))
	}
	vals := snap.Columns[0].Values
	if vals[0] == nil || *vals[0] != 0 {
		t.Errorf("values[0] = %v, want 0", vals[0])
	}
	if vals[1] != nil {
		t.Errorf("values[1] = %v, want nil", *vals[1])
	}

	if limited := tbl.Snapshot(1); len(limited.Columns[0].Values) != 1 {
		t.Errorf("Snapshot(1) returned %d values, want 1", len(limited.Columns[0].Values))
	}
}

func TestWriteCSV(t *testing.T) {
	tbl := newFilled(t, []string{"x", "y"}, 2)
	tbl.SetValue(1, 1, math.NaN())

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf, ';'); err != nil {
		t.Fatalf("WriteCSV error = %v", err)
	}

	want := "x;y\n0;100\n1;\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() = %q, want %q", buf.String(), want)
	}
}
