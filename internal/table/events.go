package table

// EventKind identifies what changed in a table.
type EventKind int

const (
	ColumnInserted EventKind = iota
	ColumnRemoved
	ColumnRenamed
	RowsResized
	DataChanged
)

func (k EventKind) String() string {
	switch k {
	case ColumnInserted:
		return "column_inserted"
	case ColumnRemoved:
		return "column_removed"
	case ColumnRenamed:
		return "column_renamed"
	case RowsResized:
		return "rows_resized"
	case DataChanged:
		return "data_changed"
	default:
		return "unknown"
	}
}

// Event describes a single change. Column is -1 for table-wide changes.
type Event struct {
	Kind   EventKind
	Column int
}

// Observer receives change events synchronously on the mutating goroutine.
type Observer func(Event)

// Subscribe registers an observer and returns a function that removes it.
func (t *Table) Subscribe(o Observer) (unsubscribe func()) {
	t.observers = append(t.observers, o)
	idx := len(t.observers) - 1
	return func() {
		if idx < len(t.observers) {
			t.observers[idx] = nil
		}
	}
}

func (t *Table) emit(e Event) {
	for _, o := range t.observers {
		if o != nil {
			o(e)
		}
	}
}
