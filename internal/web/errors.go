package web

// errors.go provides unified error responses for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The status code is derived from the error's identity
//  4. The error is mapped via core.MapError to a user-friendly message
//  5. The technical error is logged with the request ID for correlation
//  6. The message is rendered as JSON for API routes, HTML elsewhere

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/colimport/internal/core"
	"github.com/JonMunkholm/colimport/internal/logging"
	"github.com/JonMunkholm/colimport/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	var rangeErr *core.RangeError
	var stateErr *core.StateError
	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, core.ErrTableNotFound),
		errors.Is(err, core.ErrImportNotFound),
		errors.Is(err, core.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests
	case errors.As(err, &stateErr), errors.Is(err, core.ErrTemplateExists):
		return http.StatusConflict
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrUnknownReader),
		errors.Is(err, core.ErrSettingsNotFound),
		errors.As(err, &rangeErr):
		return http.StatusBadRequest
	}

	switch core.MapError(err).Code {
	case "IMP001", "IMP003", "RNG001", "VAL001", "VAL002":
		return http.StatusUnprocessableEntity
	case "UPL005":
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes its user-facing form.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		userMsg = core.MapError(core.ErrFileTooLarge)
	}

	log := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", args...)
	} else {
		log.Warn("request error", args...)
	}

	if wantsJSON(r) {
		writeJSON(w, status, ErrorResponse{
			Error:   err.Error(),
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if rerr := templates.ErrorPage(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w); rerr != nil {
		log.Error("render error page", "error", rerr)
	}
}

// wantsJSON reports whether the client should get a JSON error.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
