package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/colimport/internal/table"
)

// ServiceConfig tunes the import service.
type ServiceConfig struct {
	MaxConcurrent int           // parallel import jobs
	MaxWait       time.Duration // how long StartImport waits for a slot
	Timeout       time.Duration // per-job deadline
	MaxFileSize   int64         // upload size limit in bytes, 0 for none
	SpoolDir      string        // where uploads are buffered, "" for os.TempDir
	HistorySize   int           // finished jobs kept for History
	JobRetention  time.Duration // how long a finished job stays queryable
	AuditSize     int           // audit entries kept for AuditLog
}

// DefaultImportTimeout bounds a single import job.
const DefaultImportTimeout = 10 * time.Minute

// Service owns a workspace of named tables and runs import jobs into them.
// Imports into one table are serialized; imports into different tables run
// in parallel up to the limiter's capacity.
type Service struct {
	cfg     ServiceConfig
	limiter *ImportLimiter
	history *history
	audit   *auditLog

	mu        sync.RWMutex
	tables    map[string]*workspaceTable
	jobs      map[string]*activeImport
	templates map[string]*ImportTemplate
}

type workspaceTable struct {
	mu      sync.Mutex
	id      string
	created time.Time
	t       *table.Table
}

type activeImport struct {
	ID       string
	TableID  string
	FileName string
	Reader   string
	Mode     MergeMode
	Cancel   context.CancelFunc
	Done     chan struct{}

	mu        sync.Mutex
	progress  ImportProgress
	result    *ImportResult
	finishing bool
	listeners []chan ImportProgress
	doneOnce  sync.Once
}

// NewService creates a service with an empty workspace.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultImportTimeout
	}
	if cfg.JobRetention <= 0 {
		cfg.JobRetention = 5 * time.Minute
	}
	return &Service{
		cfg:       cfg,
		limiter:   NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		history:   newHistory(cfg.HistorySize),
		audit:     newAuditLog(cfg.AuditSize),
		tables:    make(map[string]*workspaceTable),
		jobs:      make(map[string]*activeImport),
		templates: make(map[string]*ImportTemplate),
	}
}

// CreateTable adds an empty table to the workspace.
func (s *Service) CreateTable(name string) TableInfo {
	wt := &workspaceTable{
		id:      uuid.New().String(),
		created: time.Now(),
		t:       table.New(name),
	}
	s.observe(wt)

	s.mu.Lock()
	s.tables[wt.id] = wt
	s.mu.Unlock()

	s.audit.add(AuditEntry{Action: ActionTableCreate, TableID: wt.id, Column: -1, NewValue: name})

	return wt.info()
}

// Tables lists the workspace tables, oldest first.
func (s *Service) Tables() []TableInfo {
	s.mu.RLock()
	list := make([]*workspaceTable, 0, len(s.tables))
	for _, wt := range s.tables {
		list = append(list, wt)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].created.Before(list[j].created) })

	infos := make([]TableInfo, len(list))
	for i, wt := range list {
		infos[i] = wt.info()
	}
	return infos
}

// Table returns one workspace table's description.
func (s *Service) Table(id string) (TableInfo, error) {
	wt, err := s.lookup(id)
	if err != nil {
		return TableInfo{}, err
	}
	return wt.info(), nil
}

// DeleteTable removes a table. A running import keeps its own reference and
// finishes into the detached table.
func (s *Service) DeleteTable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[id]; !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	delete(s.tables, id)
	s.audit.add(AuditEntry{Action: ActionTableDelete, TableID: id, Column: -1})
	return nil
}

// SetLocked locks or unlocks a table against structural changes.
func (s *Service) SetLocked(id string, locked bool) error {
	action := ActionTableUnlock
	err := s.WithTable(id, func(t *table.Table) error {
		if locked {
			action = ActionTableLock
			t.Lock()
		} else {
			t.Unlock()
		}
		return nil
	})
	if err == nil {
		s.audit.add(AuditEntry{Action: action, TableID: id, Column: -1})
	}
	return err
}

// WithTable runs fn with exclusive access to the table.
func (s *Service) WithTable(id string, fn func(*table.Table) error) error {
	wt, err := s.lookup(id)
	if err != nil {
		return err
	}
	wt.mu.Lock()
	defer wt.mu.Unlock()
	return fn(wt.t)
}

// Snapshot copies a table for rendering. maxRows <= 0 copies every row.
func (s *Service) Snapshot(id string, maxRows int) (table.Snapshot, error) {
	var snap table.Snapshot
	err := s.WithTable(id, func(t *table.Table) error {
		snap = t.Snapshot(maxRows)
		return nil
	})
	return snap, err
}

// ExportCSV writes a table as delimited text.
func (s *Service) ExportCSV(id string, w io.Writer, delimiter rune) error {
	return s.WithTable(id, func(t *table.Table) error {
		return t.WriteCSV(w, delimiter)
	})
}

// ImportSource runs an import synchronously into a workspace table. It takes
// a limiter slot and the table lock for the whole run.
func (s *Service) ImportSource(ctx context.Context, tableID string, src Source, opts Options, progress ProgressFunc) (Summary, error) {
	wt, err := s.lookup(tableID)
	if err != nil {
		return Summary{}, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return Summary{}, err
	}
	defer s.limiter.Release()

	sum, err := func() (Summary, error) {
		wt.mu.Lock()
		defer wt.mu.Unlock()
		return Import(ctx, src, wt.t, opts, progress)
	}()

	res := ImportResult{TableID: tableID, FileName: src.Name(), Mode: opts.Mode.String(), Summary: sum}
	if err != nil {
		res.Error = err.Error()
	}
	s.auditImport(res)
	return sum, err
}

// ImportRequest describes an asynchronous import of uploaded content.
type ImportRequest struct {
	TableID  string
	FileName string
	Reader   string // reader key, or "" to pick by FileName's extension
	Body     io.Reader
	Options  Options
}

// StartImport spools the request body to disk and imports it in the
// background. It returns the job ID immediately; use SubscribeProgress and
// Result to follow the job.
//
// Returns ErrTooManyImports if no slot frees up within the configured wait.
func (s *Service) StartImport(ctx context.Context, req ImportRequest) (string, error) {
	wt, err := s.lookup(req.TableID)
	if err != nil {
		return "", err
	}
	def, err := ReaderFor(req.Reader, req.FileName)
	if err != nil {
		return "", err
	}

	path, err := s.spool(req.Body, req.FileName)
	if err != nil {
		return "", err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		os.Remove(path)
		return "", err
	}

	jobID := uuid.New().String()
	jobCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	jobCtx = ContextWithJobID(jobCtx, jobID)

	job := &activeImport{
		ID:       jobID,
		TableID:  req.TableID,
		FileName: req.FileName,
		Reader:   def.Info.Key,
		Mode:     req.Options.Mode,
		Cancel:   cancel,
		Done:     make(chan struct{}),
		progress: ImportProgress{
			JobID:    jobID,
			TableID:  req.TableID,
			FileName: req.FileName,
			Reader:   def.Info.Key,
			Phase:    PhaseQueued,
		},
	}

	s.mu.Lock()
	s.jobs[jobID] = job
	s.mu.Unlock()

	go func() {
		defer s.limiter.Release()
		defer os.Remove(path)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in import",
					"job_id", jobID,
					"table_id", req.TableID,
					"panic", r,
				)
				s.finish(job, ImportResult{StartedAt: time.Now()}, fmt.Errorf("internal error: %v", r))
			}
		}()
		s.runImport(jobCtx, job, wt, def.Open(path), req.Options)
	}()

	return jobID, nil
}

func (s *Service) runImport(ctx context.Context, job *activeImport, wt *workspaceTable, src Source, opts Options) {
	started := time.Now()

	job.setPhase(PhaseReading, 0)
	sum, err := func() (Summary, error) {
		wt.mu.Lock()
		defer wt.mu.Unlock()
		return Import(ctx, src, wt.t, opts, func(p int) {
			job.setPhase(PhaseReading, p)
		})
	}()

	s.finish(job, ImportResult{Summary: sum, StartedAt: started}, err)
}

// finish records the result, notifies listeners and schedules cleanup. Only
// the first call for a job has any effect, and Done is closed even when
// recording the result panics.
func (s *Service) finish(job *activeImport, res ImportResult, err error) {
	if !job.claimFinish() {
		return
	}
	defer job.markDone()

	res.JobID = job.ID
	res.TableID = job.TableID
	res.FileName = job.FileName
	res.Reader = job.Reader
	res.Mode = job.Mode.String()
	res.Duration = time.Since(res.StartedAt)

	phase := PhaseComplete
	switch {
	case errors.Is(err, context.Canceled):
		phase = PhaseCancelled
		res.Cancelled = true
		res.Error = ErrImportCancelled.Error()
	case err != nil:
		phase = PhaseFailed
		res.Error = err.Error()
		res.ErrorCode = MapError(err).Code
	}

	job.mu.Lock()
	job.result = &res
	job.progress.Phase = phase
	job.progress.Error = res.Error
	if phase == PhaseComplete {
		job.progress.Percent = 100
	}
	job.mu.Unlock()

	job.notify()
	job.markDone()

	s.history.add(res)
	s.auditImport(res)
	s.cleanup(job.ID, s.cfg.JobRetention)
}

// SubscribeProgress returns a channel of progress updates. The channel is
// closed when the job finishes.
func (s *Service) SubscribeProgress(jobID string) (<-chan ImportProgress, error) {
	job, err := s.job(jobID)
	if err != nil {
		return nil, err
	}

	ch := make(chan ImportProgress, 10)

	job.mu.Lock()
	defer job.mu.Unlock()

	// Send current progress immediately
	ch <- job.progress
	if job.result != nil {
		close(ch)
		return ch, nil
	}
	job.listeners = append(job.listeners, ch)
	return ch, nil
}

// CancelImport cancels a running job.
func (s *Service) CancelImport(jobID string) error {
	job, err := s.job(jobID)
	if err != nil {
		return err
	}
	job.Cancel()
	return nil
}

// Result blocks until the job finishes or ctx is done.
func (s *Service) Result(ctx context.Context, jobID string) (*ImportResult, error) {
	job, err := s.job(jobID)
	if err != nil {
		return nil, err
	}

	select {
	case <-job.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	return job.result, nil
}

// Progress returns the current progress without blocking.
func (s *Service) Progress(jobID string) (ImportProgress, error) {
	job, err := s.job(jobID)
	if err != nil {
		return ImportProgress{}, err
	}
	job.mu.Lock()
	defer job.mu.Unlock()
	return job.progress, nil
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// Shutdown cancels running jobs and waits for them to release their slots.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	for _, job := range s.jobs {
		job.Cancel()
	}
	s.mu.RUnlock()
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) lookup(id string) (*workspaceTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wt, ok := s.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	return wt, nil
}

func (s *Service) job(id string) (*activeImport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}
	return job, nil
}

// spool copies an upload to a temporary file so readers can open it by path
// and pre-scan it.
func (s *Service) spool(body io.Reader, name string) (string, error) {
	if body == nil {
		return "", ErrNoFile
	}

	f, err := os.CreateTemp(s.cfg.SpoolDir, "colimport-*-"+sanitizeFileName(name))
	if err != nil {
		return "", fmt.Errorf("create spool file: %w", err)
	}

	src := body
	if s.cfg.MaxFileSize > 0 {
		src = io.LimitReader(body, s.cfg.MaxFileSize+1)
	}
	counter := NewCountingReader(src, 0)

	_, copyErr := io.Copy(f, counter)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("spool upload: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("spool upload: %w", closeErr)
	case counter.BytesRead == 0:
		err = ErrEmptyFile
	case s.cfg.MaxFileSize > 0 && counter.BytesRead > s.cfg.MaxFileSize:
		err = fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.cfg.MaxFileSize)
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (wt *workspaceTable) info() TableInfo {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	return TableInfo{
		ID:        wt.id,
		Name:      wt.t.Name(),
		Columns:   wt.t.ColumnNames(),
		RowCount:  wt.t.RowCount(),
		Locked:    wt.t.Locked(),
		CreatedAt: wt.created,
	}
}

func (job *activeImport) setPhase(phase ImportPhase, percent int) {
	job.mu.Lock()
	changed := job.progress.Phase != phase || job.progress.Percent != percent
	job.progress.Phase = phase
	job.progress.Percent = percent
	job.mu.Unlock()

	if changed {
		job.notify()
	}
}

// notify sends the current progress to all listeners.
func (job *activeImport) notify() {
	job.mu.Lock()
	defer job.mu.Unlock()

	for _, ch := range job.listeners {
		select {
		case ch <- job.progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

// claimFinish reports whether the caller is the first to finish the job.
func (job *activeImport) claimFinish() bool {
	job.mu.Lock()
	defer job.mu.Unlock()

	if job.finishing {
		return false
	}
	job.finishing = true
	return true
}

// markDone closes the listeners and Done exactly once.
func (job *activeImport) markDone() {
	job.doneOnce.Do(func() {
		job.closeListeners()
		close(job.Done)
	})
}

// closeListeners closes all listener channels.
func (job *activeImport) closeListeners() {
	job.mu.Lock()
	defer job.mu.Unlock()

	for _, ch := range job.listeners {
		close(ch)
	}
	job.listeners = nil
}

func (s *Service) auditImport(res ImportResult) {
	entry := AuditEntry{
		Action:   ActionImport,
		TableID:  res.TableID,
		Column:   res.Summary.ColumnOffset,
		JobID:    res.JobID,
		Rows:     res.Summary.RowsWritten,
		NewValue: res.FileName,
		Reason:   res.Mode,
	}
	if !res.Succeeded() {
		entry.Action = ActionImportFailed
		entry.Reason = res.Error
	}
	s.audit.add(entry)
}

// cleanup removes the job from tracking after a delay.
func (s *Service) cleanup(jobID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.jobs, jobID)
		s.mu.Unlock()
	})
}
