package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuditLog_Bounded(t *testing.T) {
	l := newAuditLog(2)
	l.add(AuditEntry{Action: ActionTableCreate, TableID: "a"})
	l.add(AuditEntry{Action: ActionImport, TableID: "b"})
	l.add(AuditEntry{Action: ActionTableLock, TableID: "a"})

	all := l.list(AuditFilter{})
	require.Len(t, all, 2)
	require.Equal(t, ActionTableLock, all[0].Action)
	require.Equal(t, SeverityMedium, all[0].Severity)
	require.Equal(t, SeverityHigh, all[1].Severity)
	require.NotEmpty(t, all[0].ID)
	require.NotEqual(t, all[0].ID, all[1].ID)
}

func TestAuditLog_Filter(t *testing.T) {
	l := newAuditLog(10)
	old := time.Now().Add(-time.Hour)
	l.add(AuditEntry{Action: ActionImport, TableID: "a", CreatedAt: old})
	l.add(AuditEntry{Action: ActionImport, TableID: "b"})
	l.add(AuditEntry{Action: ActionTableReset, TableID: "a"})

	require.Len(t, l.list(AuditFilter{TableID: "a"}), 2)
	require.Len(t, l.list(AuditFilter{Action: ActionImport}), 2)
	require.Len(t, l.list(AuditFilter{Severity: SeverityCritical}), 1)
	require.Len(t, l.list(AuditFilter{Since: old.Add(time.Minute)}), 2)
	require.Len(t, l.list(AuditFilter{Limit: 1}), 1)
}

func TestService_AuditsTableEvents(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	info := s.CreateTable("audited")

	_, err := s.ImportSource(context.Background(), info.ID, textSource{name: "mem", body: "a b\n1 2\n"}, DefaultOptions(), nil)
	require.NoError(t, err)

	entries := s.AuditLog(AuditFilter{TableID: info.ID})
	require.NotEmpty(t, entries)
	require.Equal(t, ActionImport, entries[0].Action)
	require.Equal(t, 1, entries[0].Rows)
	require.Equal(t, ActionTableCreate, entries[len(entries)-1].Action)

	var inserted []string
	for _, e := range entries {
		if e.Action == ActionColumnInsert {
			inserted = append(inserted, e.ColumnName)
		}
	}
	require.ElementsMatch(t, []string{"a", "b"}, inserted)

	// One data event per column once notifications are restored.
	require.Len(t, s.AuditLog(AuditFilter{TableID: info.ID, Action: ActionDataChange}), 2)

	_, err = s.ImportSource(context.Background(), info.ID, textSource{name: "gone", err: ErrSourceUnavailable}, DefaultOptions(), nil)
	require.NoError(t, err)

	require.NoError(t, s.SetLocked(info.ID, true))
	_, err = s.ImportSource(context.Background(), info.ID, textSource{name: "mem", body: "c\n1\n"}, DefaultOptions(), nil)
	require.Error(t, err)

	failed := s.AuditLog(AuditFilter{TableID: info.ID, Action: ActionImportFailed})
	require.Len(t, failed, 1)
	require.True(t, strings.Contains(failed[0].Reason, "locked"))
}
