package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/colimport/internal/core"
	"github.com/JonMunkholm/colimport/internal/logging"
	"github.com/JonMunkholm/colimport/internal/web/templates"
)

// defaultPageRows is the number of rows the table page renders.
const defaultPageRows = 100

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"tables":  len(s.service.Tables()),
		"imports": s.service.LimiterStatus(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(s.service.Tables(), core.Readers()).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render dashboard", "error", err)
	}
}

func (s *Server) handleTablePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, err := s.service.Table(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rows := parseIntParam(r, "rows", defaultPageRows)
	snap, err := s.service.Snapshot(id, rows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	shown := snap.RowCount
	if rows > 0 && rows < shown {
		shown = rows
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.TablePage(templates.TablePageParams{
		Info:     info,
		Snapshot: snap,
		History:  s.service.History(id),
		Shown:    shown,
	})
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render table page", "error", err)
	}
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Tables())
}

type createTableRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	info := s.service.CreateTable(strings.TrimSpace(req.Name))
	logging.FromContext(r.Context()).Info("table created", "table_id", info.ID, "name", info.Name)
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Table(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// updateTableRequest carries the table properties a client may change.
// Absent fields are left alone.
type updateTableRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=255"`
	Locked *bool   `json:"locked"`
}

func (s *Server) handleUpdateTable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateTableRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Name != nil {
		if err := s.service.RenameTable(id, strings.TrimSpace(*req.Name)); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if req.Locked != nil {
		if err := s.service.SetLocked(id, *req.Locked); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	s.handleGetTable(w, r)
}

func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTable(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTableData(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot(chi.URLParam(r, "id"), parseIntParam(r, "rows", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// exportDelimiter reads the single-character delimiter query parameter.
// "tab" is accepted since a literal tab is awkward in a URL.
func exportDelimiter(r *http.Request) (rune, error) {
	raw := r.URL.Query().Get("delimiter")
	switch {
	case raw == "":
		return ',', nil
	case strings.EqualFold(raw, "tab"):
		return '\t', nil
	case utf8.RuneCountInString(raw) == 1:
		d, _ := utf8.DecodeRuneInString(raw)
		if d == '"' || d == '\r' || d == '\n' || d == utf8.RuneError {
			break
		}
		return d, nil
	}
	return 0, fmt.Errorf("%w: unsupported delimiter %q", errInvalidRequest, raw)
}

func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, err := s.service.Table(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	delim, err := exportDelimiter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("%s_%s.csv", sanitizeName(info.Name), time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := s.service.ExportCSV(id, w, delim); err != nil {
		// Headers are sent; the client sees a truncated file.
		logging.FromContext(r.Context()).Error("export table", "table_id", id, "error", err)
	}
}

// sanitizeName keeps a table name safe for a Content-Disposition filename.
func sanitizeName(name string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if out == "" {
		return "table"
	}
	return out
}

func (s *Server) handleTableHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.service.Table(id); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.History(id))
}

func (s *Server) handleResetTable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.Reset(id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.handleGetTable(w, r)
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ResetAll(); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.Tables())
}

type updateCellRequest struct {
	Row    int    `json:"row" validate:"min=0"`
	Column string `json:"column" validate:"required"`
	Value  string `json:"value" validate:"max=64"`
}

func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var req updateCellRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.service.UpdateCell(chi.URLParam(r, "id"), core.UpdateCellRequest{
		Row:    req.Row,
		Column: req.Column,
		Value:  req.Value,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

type deleteRowsRequest struct {
	Rows []int `json:"rows" validate:"required,min=1,max=100000,dive,min=0"`
}

func (s *Server) handleDeleteRows(w http.ResponseWriter, r *http.Request) {
	var req deleteRowsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	n, err := s.service.DeleteRows(chi.URLParam(r, "id"), req.Rows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

type renameColumnRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required,max=255"`
}

func (s *Server) handleRenameColumn(w http.ResponseWriter, r *http.Request) {
	var req renameColumnRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.service.RenameColumn(chi.URLParam(r, "id"), req.From, strings.TrimSpace(req.To)); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.handleGetTable(w, r)
}

type deleteColumnsRequest struct {
	Columns []string `json:"columns" validate:"required,min=1,dive,required"`
}

func (s *Server) handleDeleteColumns(w http.ResponseWriter, r *http.Request) {
	var req deleteColumnsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	n, err := s.service.RemoveColumns(chi.URLParam(r, "id"), req.Columns)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// handleAuditLog lists audit entries, newest first. Query filters are
// table, action, severity, since (RFC 3339) and limit. Under
// /tables/{id}/audit the table comes from the path.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := core.AuditFilter{
		TableID:  firstNonEmpty(chi.URLParam(r, "id"), q.Get("table")),
		Action:   core.AuditAction(q.Get("action")),
		Severity: core.AuditSeverity(q.Get("severity")),
		Limit:    parseIntParam(r, "limit", 100),
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: since must be an RFC 3339 time", errInvalidRequest))
			return
		}
		f.Since = since
	}
	writeJSON(w, http.StatusOK, s.service.AuditLog(f))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
