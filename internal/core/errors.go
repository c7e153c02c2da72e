package core

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable marks a source that is missing or cannot be opened.
// Import treats it as "nothing to do" and returns an empty summary.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrUnknownReader is returned when no reader is registered under a key or extension.
var ErrUnknownReader = errors.New("unknown reader")

// RangeError reports row or column bounds that cannot be satisfied.
// It is always returned before the destination is touched.
type RangeError struct {
	Axis  string // "row" or "column"
	Start int
	End   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: %s end %d is before start %d", e.Axis, e.End, e.Start)
}

// StateError reports that the destination refused a structural mutation.
// The destination may have been partially modified.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("destination rejected %s: %v", e.Op, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

// SettingsWarning is a recovered problem found while loading persisted settings.
type SettingsWarning struct {
	Attribute string
	Message   string
}

func (w SettingsWarning) String() string {
	return w.Message
}
