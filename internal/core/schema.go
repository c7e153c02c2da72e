package core

import (
	"fmt"
	"strings"
)

// Schema is the concrete column layout computed for one import call.
type Schema struct {
	StartColumn int
	EndColumn   int
	Names       []string

	// HeaderConsumed is true when the first record supplied the names and
	// must not be written as data.
	HeaderConsumed bool
}

// ColumnCount returns EndColumn - StartColumn + 1.
func (s Schema) ColumnCount() int { return len(s.Names) }

// DefaultColumnName returns the generated name for the 1-based position n.
func DefaultColumnName(n int) string {
	return fmt.Sprintf("Column %d", n)
}

// ResolveSchema computes the column window and names from the first record
// of the source. first is the record already tokenized. An explicit end
// column past the record's last field is clipped to it. It never touches a
// destination table.
func ResolveSchema(first []string, opts Options) (Schema, error) {
	start := opts.StartColumn
	end := opts.EndColumn.Resolve(len(first) - 1)
	if last := len(first) - 1; end > last {
		end = last
	}

	if start < 0 || end < start {
		return Schema{}, &RangeError{Axis: "column", Start: start, End: end}
	}

	count := end - start + 1
	s := Schema{StartColumn: start, EndColumn: end}

	if opts.Header {
		s.HeaderConsumed = true
		s.Names = append([]string(nil), first[start:end+1]...)
		return s, nil
	}

	s.Names = explicitNames(opts.ColumnNames, count)
	return s, nil
}

// explicitNames splits the configured names on whitespace and fills the
// missing suffix with generated names numbered after the supplied ones.
func explicitNames(list string, count int) []string {
	supplied := strings.Fields(list)
	if len(supplied) > count {
		supplied = supplied[:count]
	}

	names := make([]string, 0, count)
	names = append(names, supplied...)
	for k := 0; len(names) < count; k++ {
		names = append(names, DefaultColumnName(len(supplied)+k+1))
	}
	return names
}
