package core

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/colimport/internal/table"
)

// AuditAction represents the type of change being recorded.
type AuditAction string

const (
	ActionTableCreate    AuditAction = "table_create"
	ActionTableDelete    AuditAction = "table_delete"
	ActionTableReset     AuditAction = "table_reset"
	ActionTableLock      AuditAction = "table_lock"
	ActionTableUnlock    AuditAction = "table_unlock"
	ActionImport         AuditAction = "import"
	ActionImportFailed   AuditAction = "import_failed"
	ActionCellEdit       AuditAction = "cell_edit"
	ActionColumnInsert   AuditAction = "column_insert"
	ActionColumnRemove   AuditAction = "column_remove"
	ActionColumnRename   AuditAction = "column_rename"
	ActionRowsResize     AuditAction = "rows_resize"
	ActionDataChange     AuditAction = "data_change"
	ActionTemplateCreate AuditAction = "template_create"
	ActionTemplateDelete AuditAction = "template_delete"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// DefaultAuditSize is the number of audit entries kept when unconfigured.
const DefaultAuditSize = 1000

// AuditEntry represents a single recorded change.
type AuditEntry struct {
	ID         string        `json:"id"`
	Action     AuditAction   `json:"action"`
	Severity   AuditSeverity `json:"severity"`
	TableID    string        `json:"tableId,omitempty"`
	Column     int           `json:"column"`
	ColumnName string        `json:"columnName,omitempty"`
	OldValue   string        `json:"oldValue,omitempty"`
	NewValue   string        `json:"newValue,omitempty"`
	JobID      string        `json:"jobId,omitempty"`
	Rows       int           `json:"rows,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionImport, ActionImportFailed, ActionColumnRemove, ActionCellEdit:
		return SeverityHigh
	case ActionTableReset, ActionTableDelete:
		return SeverityCritical
	case ActionTemplateCreate, ActionTemplateDelete, ActionDataChange, ActionRowsResize:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// auditLog is a bounded, newest-first record of workspace changes.
type auditLog struct {
	mu      sync.Mutex
	size    int
	entries []AuditEntry
}

func newAuditLog(size int) *auditLog {
	if size <= 0 {
		size = DefaultAuditSize
	}
	return &auditLog{size: size}
}

func (l *auditLog) add(e AuditEntry) {
	e.ID = uuid.New().String()
	e.Severity = determineSeverity(e.Action)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]AuditEntry{e}, l.entries...)
	if len(l.entries) > l.size {
		l.entries = l.entries[:l.size]
	}
}

// AuditFilter narrows an audit log query.
type AuditFilter struct {
	TableID  string
	Action   AuditAction
	Severity AuditSeverity
	Since    time.Time
	Limit    int
}

func (f AuditFilter) matches(e AuditEntry) bool {
	switch {
	case f.TableID != "" && e.TableID != f.TableID:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case f.Severity != "" && e.Severity != f.Severity:
		return false
	case !f.Since.IsZero() && e.CreatedAt.Before(f.Since):
		return false
	}
	return true
}

func (l *auditLog) list(f AuditFilter) []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]AuditEntry, 0)
	for _, e := range l.entries {
		if !f.matches(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// AuditLog returns recorded changes, newest first.
func (s *Service) AuditLog(f AuditFilter) []AuditEntry {
	return s.audit.list(f)
}

// observe records the structural and data events of one workspace table.
// Observers run on the mutating goroutine, which already holds the table lock.
func (s *Service) observe(wt *workspaceTable) {
	wt.t.Subscribe(func(e table.Event) {
		entry := AuditEntry{TableID: wt.id, Column: e.Column}
		switch e.Kind {
		case table.ColumnInserted:
			entry.Action = ActionColumnInsert
		case table.ColumnRemoved:
			entry.Action = ActionColumnRemove
		case table.ColumnRenamed:
			entry.Action = ActionColumnRename
		case table.RowsResized:
			entry.Action = ActionRowsResize
			entry.Rows = wt.t.RowCount()
		case table.DataChanged:
			entry.Action = ActionDataChange
		default:
			return
		}
		if e.Kind != table.ColumnRemoved {
			entry.ColumnName, _ = wt.t.ColumnName(e.Column)
		}
		s.audit.add(entry)
	})
}
