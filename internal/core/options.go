package core

import (
	"fmt"
	"strings"
)

// MergeMode decides how imported columns combine with the destination's
// existing columns. The mode is fixed for the duration of one import.
type MergeMode int

const (
	// Append adds the imported columns after the existing ones.
	Append MergeMode = iota
	// Prepend inserts the imported columns before the existing ones.
	Prepend
	// Replace reuses existing columns and drops whatever does not fit.
	Replace
)

func (m MergeMode) String() string {
	switch m {
	case Append:
		return "append"
	case Prepend:
		return "prepend"
	case Replace:
		return "replace"
	default:
		return fmt.Sprintf("MergeMode(%d)", int(m))
	}
}

// ParseMergeMode parses "append", "prepend" or "replace" (case-insensitive).
func ParseMergeMode(s string) (MergeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "append", "":
		return Append, nil
	case "prepend":
		return Prepend, nil
	case "replace":
		return Replace, nil
	default:
		return Append, fmt.Errorf("unknown merge mode %q (want append, prepend or replace)", s)
	}
}

// Bound is an inclusive end index that may be left open. The zero value is
// Unbounded, which resolves to the last row or column the source provides.
type Bound struct {
	index int
	set   bool
}

// Unbounded resolves to the last available row or column.
var Unbounded = Bound{}

// At returns a bound fixed at index n.
func At(n int) Bound { return Bound{index: n, set: true} }

// BoundFromInt converts the persisted form, where any negative value means unbounded.
func BoundFromInt(n int) Bound {
	if n < 0 {
		return Unbounded
	}
	return At(n)
}

// IsUnbounded reports whether the bound is open.
func (b Bound) IsUnbounded() bool { return !b.set }

// Index returns the fixed index and true, or 0 and false when unbounded.
func (b Bound) Index() (int, bool) { return b.index, b.set }

// Int returns the persisted form: the index, or -1 when unbounded.
func (b Bound) Int() int {
	if !b.set {
		return -1
	}
	return b.index
}

// Resolve returns the fixed index, or last when unbounded.
func (b Bound) Resolve(last int) int {
	if !b.set {
		return last
	}
	return b.index
}

func (b Bound) String() string {
	if !b.set {
		return "end"
	}
	return fmt.Sprintf("%d", b.index)
}

// AutoDelimiter splits records on runs of whitespace.
const AutoDelimiter = "auto"

// DefaultCommentPrefix marks comment records unless configured otherwise.
const DefaultCommentPrefix = "#"

// Options are the declarative parameters of one import call.
type Options struct {
	Mode MergeMode

	// Delimiter is AutoDelimiter or a literal separator. "TAB" and "SPACE"
	// inside the literal are replaced case-insensitively.
	Delimiter string

	// Header consumes the first record of the window as column names.
	Header bool

	// ColumnNames is a whitespace-separated list of names used when Header is off.
	ColumnNames string

	SimplifyWhitespace bool
	SkipEmptyTokens    bool

	StartRow    int
	EndRow      Bound
	StartColumn int
	EndColumn   Bound

	// CommentPrefix marks records to skip. Empty disables comment handling.
	CommentPrefix string

	// AutoMode is persisted for the import dialog and has no effect on reading.
	AutoMode bool

	// Transposed is persisted but not implemented: records are always read
	// as rows.
	Transposed bool
}

// DefaultOptions returns the options a freshly configured text reader starts with.
func DefaultOptions() Options {
	return Options{
		Mode:               Append,
		Delimiter:          AutoDelimiter,
		Header:             true,
		SimplifyWhitespace: true,
		SkipEmptyTokens:    true,
		EndRow:             Unbounded,
		EndColumn:          Unbounded,
		CommentPrefix:      DefaultCommentPrefix,
		AutoMode:           true,
	}
}

// TokenizerOptions returns the subset of options the tokenizer needs.
func (o Options) TokenizerOptions() TokenizerOptions {
	return TokenizerOptions{
		Delimiter:          o.Delimiter,
		SimplifyWhitespace: o.SimplifyWhitespace,
		SkipEmptyTokens:    o.SkipEmptyTokens,
	}
}
