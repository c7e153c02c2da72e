package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/colimport/internal/core"
	"github.com/JonMunkholm/colimport/internal/logging"
	"github.com/JonMunkholm/colimport/internal/reader"
)

// sqlRequest names a query or a table of the configured database.
// Exactly one of Query and Table is set.
type sqlRequest struct {
	Query   string       `json:"query" validate:"required_without=Table,excluded_with=Table,max=65536"`
	Table   string       `json:"table" validate:"omitempty,identifier,max=255"`
	Limit   int          `json:"limit" validate:"min=0,max=1000"`
	Options *optionsView `json:"options"`
}

// sqlSource returns the query source of the request. Previews are capped at
// limit rows; imports read the whole result.
func (s *Server) sqlSource(req sqlRequest, limit int) reader.QuerySource {
	if req.Table != "" {
		src := reader.TableSource(s.db, s.driver, req.Table)
		src.MaxRows = limit
		return src
	}
	return reader.QuerySource{DB: s.db, Query: req.Query, MaxRows: limit}
}

func (s *Server) handleSQLPreview(w http.ResponseWriter, r *http.Request) {
	var req sqlRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.cfg.Import.PreviewRows
	}

	query := req.Query
	if req.Table != "" {
		query = reader.DialectFor(s.driver).PreviewQuery(req.Table, limit)
	}
	preview, err := reader.PreviewQuery(r.Context(), s.db, query, limit)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleSQLImport imports a query result into a table. Result sets are
// buffered, so the import runs within the request.
func (s *Server) handleSQLImport(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	var req sqlRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	opts, err := s.resolveOptions(req.Options)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	src := s.sqlSource(req, req.Limit)
	sum, err := s.service.ImportSource(r.Context(), tableID, src, opts, nil)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("sql import finished",
		"table_id", tableID,
		"source", src.Name(),
		"driver", s.driver,
		"rows", sum.RowsWritten,
	)
	writeJSON(w, http.StatusOK, sum)
}
