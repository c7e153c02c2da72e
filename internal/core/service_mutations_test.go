package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func importedTable(t *testing.T, s *Service, body string) string {
	t.Helper()
	info := s.CreateTable("m")
	_, err := s.ImportSource(context.Background(), info.ID, textSource{name: "mem", body: body}, DefaultOptions(), nil)
	require.NoError(t, err)
	return info.ID
}

func exportCSV(t *testing.T, s *Service, id string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(id, &buf, ','))
	return buf.String()
}

func TestService_Reset(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	id := importedTable(t, s, "a b\n1 2\n3 4\n")

	require.NoError(t, s.Reset(id))
	info, err := s.Table(id)
	require.NoError(t, err)
	require.Equal(t, 0, info.RowCount)
	require.Equal(t, []string{"a", "b"}, info.Columns)

	entries := s.AuditLog(AuditFilter{TableID: id, Action: ActionTableReset})
	require.Len(t, entries, 1)
	require.Equal(t, 2, entries[0].Rows)
	require.Equal(t, SeverityCritical, entries[0].Severity)
}

func TestService_ResetLocked(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	id := importedTable(t, s, "a\n1\n")
	require.NoError(t, s.SetLocked(id, true))

	err := s.ResetAll()
	require.Error(t, err)
	require.Equal(t, "STA001", MapError(err).Code)
}

func TestService_DeleteRows(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	id := importedTable(t, s, "a b\n1 2\n3 4\n5 6\n")

	n, err := s.DeleteRows(id, []int{1, 1, 7, -1})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "a,b\n1,2\n5,6\n", exportCSV(t, s, id))

	n, err = s.DeleteRows(id, nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestService_UpdateCell(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	id := importedTable(t, s, "a b\n1 2\n")

	res, err := s.UpdateCell(id, UpdateCellRequest{Row: 0, Column: "b", Value: "9.5"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "2", res.OldValue)

	res, err = s.UpdateCell(id, UpdateCellRequest{Row: 0, Column: "a", Value: ""})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "a,b\n,9.5\n", exportCSV(t, s, id))

	res, err = s.UpdateCell(id, UpdateCellRequest{Row: 0, Column: "a", Value: "abc"})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.NotEmpty(t, res.ValidationError)

	_, err = s.UpdateCell(id, UpdateCellRequest{Row: 5, Column: "a", Value: "1"})
	require.Equal(t, "RNG001", MapError(err).Code)

	_, err = s.UpdateCell(id, UpdateCellRequest{Row: 0, Column: "zz", Value: "1"})
	require.Equal(t, "VAL001", MapError(err).Code)

	edits := s.AuditLog(AuditFilter{TableID: id, Action: ActionCellEdit})
	require.Len(t, edits, 2)
	require.Equal(t, "", edits[0].NewValue)
	require.Equal(t, "9.5", edits[1].NewValue)
}

func TestService_RenameAndRemoveColumns(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	id := importedTable(t, s, "a b c\n1 2 3\n")

	require.NoError(t, s.RenameColumn(id, "b", "beta"))
	require.Error(t, s.RenameColumn(id, "b", "x"))
	require.Error(t, s.RenameColumn(id, "a", "  "))

	n, err := s.RemoveColumns(id, []string{"a", "c", "missing"})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, s.RenameTable(id, "renamed"))
	info, err := s.Table(id)
	require.NoError(t, err)
	require.Equal(t, "renamed", info.Name)
	require.Equal(t, []string{"beta"}, info.Columns)
}
