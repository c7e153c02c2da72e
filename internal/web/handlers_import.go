package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/colimport/internal/core"
	"github.com/JonMunkholm/colimport/internal/logging"
)

// multipartOverhead is the form data allowed on top of the file itself.
const multipartOverhead = 1 << 20

// upload is the file and form fields of an import or preview request.
type upload struct {
	FileName string
	Body     io.Reader
	Form     url.Values
	close    func()
}

func (u *upload) Close() {
	if u.close != nil {
		u.close()
	}
}

// readUpload accepts either a multipart form with a "file" part or a raw
// body named by the "name" query parameter. Query parameters are merged
// into the form so options may be given either way.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	form := r.URL.Query()
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType != "multipart/form-data" {
		name := strings.TrimSpace(form.Get("name"))
		if name == "" {
			return nil, fmt.Errorf("%w: name is required for a raw upload", errInvalidRequest)
		}
		return &upload{FileName: name, Body: r.Body, Form: form}, nil
	}

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, core.ErrFileTooLarge
		}
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		r.MultipartForm.RemoveAll()
		return nil, core.ErrNoFile
	}
	if err != nil {
		r.MultipartForm.RemoveAll()
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if header.Size > maxSize {
		file.Close()
		r.MultipartForm.RemoveAll()
		return nil, core.ErrFileTooLarge
	}

	for key, vals := range r.MultipartForm.Value {
		form[key] = vals
	}
	return &upload{
		FileName: header.Filename,
		Body:     file,
		Form:     form,
		close: func() {
			file.Close()
			r.MultipartForm.RemoveAll()
		},
	}, nil
}

// importAccepted is the response to a started import.
type importAccepted struct {
	JobID       string `json:"jobId"`
	TableID     string `json:"tableId"`
	Reader      string `json:"reader,omitempty"`
	ProgressURL string `json:"progressUrl"`
	StatusURL   string `json:"statusUrl"`
}

// handleImport spools an upload and starts importing it into a table.
// The import runs in the background; follow it through the progress stream.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	if _, err := s.service.Table(tableID); err != nil {
		s.respondError(w, r, err)
		return
	}

	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.Close()

	params, opts, err := s.importOptions(up.Form)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	jobID, err := s.service.StartImport(r.Context(), core.ImportRequest{
		TableID:  tableID,
		FileName: up.FileName,
		Reader:   params.Reader,
		Body:     up.Body,
		Options:  opts,
	})
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			err = core.ErrFileTooLarge
		}
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(logging.WithJobID(r.Context(), jobID)).Info("import started",
		"table_id", tableID,
		"file", up.FileName,
		"mode", opts.Mode.String(),
	)
	writeJSON(w, http.StatusAccepted, importAccepted{
		JobID:       jobID,
		TableID:     tableID,
		Reader:      params.Reader,
		ProgressURL: "/api/import/" + jobID + "/progress",
		StatusURL:   "/api/import/" + jobID,
	})
}

// importStatus is the state of one job; Result is set once it finished.
type importStatus struct {
	Progress core.ImportProgress `json:"progress"`
	Result   *core.ImportResult  `json:"result,omitempty"`
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	progress, err := s.service.Progress(jobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status := importStatus{Progress: progress}
	if progress.Phase.Finished() {
		res, err := s.service.Result(r.Context(), jobID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		status.Result = res
	}
	writeJSON(w, http.StatusOK, status)
}

// handleImportProgress streams job progress via Server-Sent Events.
// The event ID is the progress percentage, so a reconnecting client that
// sends Last-Event-ID (or ?lastEventId=) skips what it already saw. A final
// "complete" event carries the import result.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	lastEventIDStr := r.Header.Get("Last-Event-ID")
	if lastEventIDStr == "" {
		lastEventIDStr = r.URL.Query().Get("lastEventId")
	}
	lastEventID := -1
	if n, err := strconv.Atoi(lastEventIDStr); err == nil {
		lastEventID = n
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"))
		return
	}

	progressCh, err := s.service.SubscribeProgress(jobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				s.sendComplete(w, r, jobID)
				flusher.Flush()
				return
			}
			if progress.Percent <= lastEventID && !progress.Phase.Finished() {
				continue
			}
			lastEventID = progress.Percent

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", progress.Percent, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) sendComplete(w io.Writer, r *http.Request, jobID string) {
	data := []byte("{}")
	if res, err := s.service.Result(r.Context(), jobID); err == nil && res != nil {
		data, _ = json.Marshal(res)
	}
	fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
}

func (s *Server) handleCancelImport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := s.service.CancelImport(jobID); err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(logging.WithJobID(r.Context(), jobID)).Info("import cancel requested")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	history := s.service.History(r.URL.Query().Get("table"))
	if limit := parseIntParam(r, "limit", 0); limit > 0 && limit < len(history) {
		history = history[:limit]
	}
	writeJSON(w, http.StatusOK, history)
}

// previewResponse is a preview plus the saved templates whose column
// names fit the previewed columns.
type previewResponse struct {
	Preview   core.PreviewResult   `json:"preview"`
	Templates []core.TemplateMatch `json:"templates"`
}

// handlePreview shows what an import of the upload would produce without
// touching any table.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer up.Close()

	params, opts, err := s.importOptions(up.Form)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rows := params.Rows
	if rows == 0 {
		rows = s.cfg.Import.PreviewRows
	}

	res, err := s.service.Preview(r.Context(), core.ImportRequest{
		FileName: up.FileName,
		Reader:   params.Reader,
		Body:     up.Body,
		Options:  opts,
	}, rows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	matches := s.service.MatchTemplates(res.Columns)
	if matches == nil {
		matches = []core.TemplateMatch{}
	}
	writeJSON(w, http.StatusOK, previewResponse{Preview: res, Templates: matches})
}
