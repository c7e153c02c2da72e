package core

import (
	"errors"
	"time"
)

var (
	// ErrTableNotFound is returned for an unknown workspace table ID.
	ErrTableNotFound = errors.New("table not found")

	// ErrImportNotFound is returned for an unknown or expired import job ID.
	ErrImportNotFound = errors.New("import not found")

	// ErrImportCancelled is reported when a job was cancelled before it finished.
	ErrImportCancelled = errors.New("import cancelled")

	// ErrFileTooLarge is returned when an upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when an import request carries no body.
	ErrNoFile = errors.New("no file provided")

	// ErrEmptyFile is returned for uploads without content.
	ErrEmptyFile = errors.New("empty file")
)

// TableInfo describes a workspace table.
type TableInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Columns   []string  `json:"columns"`
	RowCount  int       `json:"rowCount"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"createdAt"`
}

// ImportPhase is the lifecycle state of an import job.
type ImportPhase string

const (
	PhaseQueued    ImportPhase = "queued"
	PhaseReading   ImportPhase = "reading"
	PhaseComplete  ImportPhase = "complete"
	PhaseFailed    ImportPhase = "failed"
	PhaseCancelled ImportPhase = "cancelled"
)

// Finished reports whether the phase is terminal.
func (p ImportPhase) Finished() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// ImportProgress is broadcast to subscribers while a job runs.
type ImportProgress struct {
	JobID    string      `json:"jobId"`
	TableID  string      `json:"tableId"`
	FileName string      `json:"fileName"`
	Reader   string      `json:"reader"`
	Phase    ImportPhase `json:"phase"`
	Percent  int         `json:"percent"`
	Error    string      `json:"error,omitempty"`
}

// ImportResult is the outcome of a finished job.
type ImportResult struct {
	JobID     string        `json:"jobId"`
	TableID   string        `json:"tableId"`
	FileName  string        `json:"fileName"`
	Reader    string        `json:"reader"`
	Mode      string        `json:"mode"`
	Summary   Summary       `json:"summary"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	ErrorCode string        `json:"errorCode,omitempty"`
	Cancelled bool          `json:"cancelled,omitempty"`
}

// Succeeded reports whether the job finished without error.
func (r ImportResult) Succeeded() bool { return r.Error == "" && !r.Cancelled }
