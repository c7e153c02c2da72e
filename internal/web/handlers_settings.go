package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/colimport/internal/core"
	"github.com/JonMunkholm/colimport/internal/logging"
)

// maxSettingsBody bounds an uploaded settings document.
const maxSettingsBody = 64 << 10

// optionsChoices is what a client needs to build an import form.
type optionsChoices struct {
	Readers    []core.ReaderInfo `json:"readers"`
	Separators []string          `json:"separators"`
	Comments   []string          `json:"comments"`
	Modes      []string          `json:"modes"`
	Defaults   optionsView       `json:"defaults"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, optionsChoices{
		Readers:    core.Readers(),
		Separators: core.SeparatorChoices(),
		Comments:   core.CommentChoices(),
		Modes:      []string{core.Append.String(), core.Prepend.String(), core.Replace.String()},
		Defaults:   viewOf(s.defaultOptions()),
	})
}

// handleGetSettings returns the default options as an <asciiFilter> document.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := core.SaveSettings(&buf, s.defaultOptions()); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write(buf.Bytes())
}

// settingsResponse reports the loaded defaults and the attributes that
// fell back to their default value.
type settingsResponse struct {
	Defaults optionsView `json:"defaults"`
	Warnings []string    `json:"warnings"`
}

// handlePutSettings replaces the default options from an <asciiFilter>
// document and persists them when a settings file is configured.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	opts, warnings, err := core.LoadSettings(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	// The document carries no merge mode; keep the current one.
	opts.Mode = s.defaultOptions().Mode
	if err := s.setDefaults(opts); err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := settingsResponse{Defaults: viewOf(opts), Warnings: make([]string, 0, len(warnings))}
	for _, warn := range warnings {
		resp.Warnings = append(resp.Warnings, warn.String())
	}
	logging.FromContext(r.Context()).Info("default settings replaced", "warnings", len(warnings))
	writeJSON(w, http.StatusOK, resp)
}

// templateView adds the editable options to a template's JSON form.
type templateView struct {
	core.ImportTemplate
	Options optionsView `json:"options"`
}

func viewOfTemplate(t core.ImportTemplate) templateView {
	return templateView{ImportTemplate: t, Options: viewOf(t.Options)}
}

type templateRequest struct {
	Name    string       `json:"name" validate:"required,max=255"`
	Reader  string       `json:"reader" validate:"max=64"`
	Options *optionsView `json:"options"`
}

type templateUpdateRequest struct {
	Options *optionsView `json:"options" validate:"required"`
}

// resolveOptions turns an optional options view into core options,
// starting from the server defaults when none is given.
func (s *Server) resolveOptions(v *optionsView) (core.Options, error) {
	if v == nil {
		return s.defaultOptions(), nil
	}
	return v.options()
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list := s.service.ListTemplates()
	out := make([]templateView, 0, len(list))
	for _, t := range list {
		out = append(out, viewOfTemplate(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	opts, err := s.resolveOptions(req.Options)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	tpl, err := s.service.CreateTemplate(req.Name, strings.TrimSpace(req.Reader), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOfTemplate(*tpl))
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.service.GetTemplate(chi.URLParam(r, "tplID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOfTemplate(*tpl))
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateUpdateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	opts, err := req.Options.options()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	tpl, err := s.service.UpdateTemplate(chi.URLParam(r, "tplID"), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOfTemplate(*tpl))
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTemplate(chi.URLParam(r, "tplID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMatchTemplates suggests templates for a column list given as
// repeated or comma-separated "columns" parameters.
func (s *Server) handleMatchTemplates(w http.ResponseWriter, r *http.Request) {
	var columns []string
	for _, raw := range r.URL.Query()["columns"] {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				columns = append(columns, c)
			}
		}
	}
	if len(columns) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: columns is required", errInvalidRequest))
		return
	}

	matches := s.service.MatchTemplates(columns)
	if matches == nil {
		matches = []core.TemplateMatch{}
	}
	writeJSON(w, http.StatusOK, matches)
}
