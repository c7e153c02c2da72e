package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/colimport/internal/table"
)

// fileLines opens a text file from disk for the service tests.
type fileLines string

func (f fileLines) Name() string { return string(f) }

func (f fileLines) OpenLines(context.Context) (LineScanner, error) {
	fh, err := os.Open(string(f))
	if err != nil {
		return nil, errors.Join(ErrSourceUnavailable, err)
	}
	return NewTextScanner(fh), nil
}

var registerTestReader sync.Once

func newTestService(t *testing.T, cfg ServiceConfig) *Service {
	t.Helper()
	registerTestReader.Do(func() {
		RegisterReader(ReaderDefinition{
			Info: ReaderInfo{Key: "lines", Label: "Test lines", Kind: KindText, Extensions: []string{".txt"}},
			Open: func(path string) Source { return fileLines(path) },
		})
	})
	if cfg.SpoolDir == "" {
		cfg.SpoolDir = t.TempDir()
	}
	return NewService(cfg)
}

func waitResult(t *testing.T, s *Service, jobID string) *ImportResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := s.Result(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestService_StartImport(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	tbl := s.CreateTable("measurements")

	jobID, err := s.StartImport(context.Background(), ImportRequest{
		TableID:  tbl.ID,
		FileName: "data.txt",
		Body:     strings.NewReader("t v\n0 1.5\n1 2.5\n"),
		Options:  DefaultOptions(),
	})
	require.NoError(t, err)

	res := waitResult(t, s, jobID)
	require.True(t, res.Succeeded(), res.Error)
	require.Equal(t, 2, res.Summary.ColumnsWritten)
	require.Equal(t, 2, res.Summary.RowsWritten)
	require.Equal(t, "lines", res.Reader)
	require.Equal(t, "append", res.Mode)

	info, err := s.Table(tbl.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"t", "v"}, info.Columns)
	require.Equal(t, 2, info.RowCount)

	progress, err := s.Progress(jobID)
	require.NoError(t, err)
	require.Equal(t, PhaseComplete, progress.Phase)
	require.Equal(t, 100, progress.Percent)

	hist := s.History(tbl.ID)
	require.Len(t, hist, 1)
	require.Equal(t, jobID, hist[0].JobID)
}

func TestService_SubscribeAfterFinish(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	tbl := s.CreateTable("t")

	jobID, err := s.StartImport(context.Background(), ImportRequest{
		TableID:  tbl.ID,
		FileName: "a.txt",
		Body:     strings.NewReader("1\n"),
		Options:  Options{Mode: Append, Delimiter: AutoDelimiter, SkipEmptyTokens: true, EndRow: Unbounded, EndColumn: Unbounded},
	})
	require.NoError(t, err)
	waitResult(t, s, jobID)

	ch, err := s.SubscribeProgress(jobID)
	require.NoError(t, err)

	var last ImportProgress
	for p := range ch {
		last = p
	}
	require.Equal(t, PhaseComplete, last.Phase)
}

func TestService_ProgressStream(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	tbl := s.CreateTable("t")

	var body strings.Builder
	body.WriteString("n\n")
	for i := 0; i < 500; i++ {
		body.WriteString("1\n")
	}

	jobID, err := s.StartImport(context.Background(), ImportRequest{
		TableID:  tbl.ID,
		FileName: "big.txt",
		Body:     strings.NewReader(body.String()),
		Options:  DefaultOptions(),
	})
	require.NoError(t, err)

	ch, err := s.SubscribeProgress(jobID)
	require.NoError(t, err)

	prev := -1
	for p := range ch {
		require.GreaterOrEqual(t, p.Percent, prev)
		prev = p.Percent
	}

	// Slow listeners may miss updates, so the final state is read directly.
	res := waitResult(t, s, jobID)
	require.Equal(t, 500, res.Summary.RowsWritten)
	progress, err := s.Progress(jobID)
	require.NoError(t, err)
	require.Equal(t, 100, progress.Percent)
}

func TestService_UnknownTableAndJob(t *testing.T) {
	s := newTestService(t, ServiceConfig{})

	_, err := s.StartImport(context.Background(), ImportRequest{TableID: "missing", FileName: "a.txt", Body: strings.NewReader("1")})
	require.ErrorIs(t, err, ErrTableNotFound)
	require.Equal(t, "STA002", MapError(err).Code)

	_, err = s.Progress("nope")
	require.ErrorIs(t, err, ErrImportNotFound)
	require.ErrorIs(t, s.CancelImport("nope"), ErrImportNotFound)
}

func TestService_UnknownReader(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	tbl := s.CreateTable("t")

	_, err := s.StartImport(context.Background(), ImportRequest{TableID: tbl.ID, FileName: "a.unknown", Body: strings.NewReader("1")})
	require.ErrorIs(t, err, ErrUnknownReader)
	require.Equal(t, "IMP002", MapError(err).Code)
}

func TestService_UploadLimits(t *testing.T) {
	s := newTestService(t, ServiceConfig{MaxFileSize: 4})
	tbl := s.CreateTable("t")

	_, err := s.StartImport(context.Background(), ImportRequest{TableID: tbl.ID, FileName: "a.txt", Body: strings.NewReader("123456789")})
	require.ErrorIs(t, err, ErrFileTooLarge)

	_, err = s.StartImport(context.Background(), ImportRequest{TableID: tbl.ID, FileName: "a.txt", Body: strings.NewReader("")})
	require.ErrorIs(t, err, ErrEmptyFile)

	_, err = s.StartImport(context.Background(), ImportRequest{TableID: tbl.ID, FileName: "a.txt"})
	require.ErrorIs(t, err, ErrNoFile)
}

func TestService_LockedTableFails(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	tbl := s.CreateTable("t")
	require.NoError(t, s.SetLocked(tbl.ID, true))

	jobID, err := s.StartImport(context.Background(), ImportRequest{
		TableID:  tbl.ID,
		FileName: "a.txt",
		Body:     strings.NewReader("x\n1\n"),
		Options:  DefaultOptions(),
	})
	require.NoError(t, err)

	res := waitResult(t, s, jobID)
	require.False(t, res.Succeeded())
	require.Equal(t, "STA001", res.ErrorCode)

	progress, err := s.Progress(jobID)
	require.NoError(t, err)
	require.Equal(t, PhaseFailed, progress.Phase)
}

func TestService_ImportSourceAndExport(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	tbl := s.CreateTable("t")

	opts := DefaultOptions()
	opts.Header = false
	opts.ColumnNames = "a b"
	sum, err := s.ImportSource(context.Background(), tbl.ID, textSource{name: "mem", body: "1 2\n3 x\n"}, opts, nil)
	require.NoError(t, err)
	require.Equal(t, 2, sum.RowsWritten)

	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(tbl.ID, &buf, ','))
	require.Equal(t, "a,b\n1,2\n3,\n", buf.String())

	snap, err := s.Snapshot(tbl.ID, 1)
	require.NoError(t, err)
	require.Len(t, snap.Columns[0].Values, 1)
}

func TestService_TablesAndDelete(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	first := s.CreateTable("first")
	second := s.CreateTable("second")

	require.Len(t, s.Tables(), 2)
	require.NoError(t, s.DeleteTable(first.ID))
	require.ErrorIs(t, s.DeleteTable(first.ID), ErrTableNotFound)

	tables := s.Tables()
	require.Len(t, tables, 1)
	require.Equal(t, second.ID, tables[0].ID)

	err := s.WithTable(second.ID, func(t *table.Table) error {
		_, err := t.AddColumn("c", table.Numeric)
		return err
	})
	require.NoError(t, err)
	info, err := s.Table(second.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"c"}, info.Columns)
}

func TestService_HistoryBounded(t *testing.T) {
	h := newHistory(2)
	h.add(ImportResult{JobID: "1", TableID: "a"})
	h.add(ImportResult{JobID: "2", TableID: "b"})
	h.add(ImportResult{JobID: "3", TableID: "a"})

	all := h.list("")
	require.Len(t, all, 2)
	require.Equal(t, "3", all[0].JobID)
	require.Len(t, h.list("a"), 1)
}

func TestService_FinishOnce(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	job := &activeImport{ID: "job", TableID: "tbl", Mode: Append, Done: make(chan struct{})}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	ch, err := s.SubscribeProgress(job.ID)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		s.finish(job, ImportResult{StartedAt: time.Now()}, nil)
		s.finish(job, ImportResult{StartedAt: time.Now()}, errors.New("internal error: boom"))
		job.markDone()
	})

	<-job.Done
	for range ch {
	}
	require.True(t, job.result.Succeeded())
	require.Len(t, s.History(""), 1)
}

func TestService_Shutdown(t *testing.T) {
	s := newTestService(t, ServiceConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.Equal(t, 0, s.LimiterStatus().Active)
}

func TestPreview(t *testing.T) {
	src := textSource{name: "p", body: "x y\n# skip\n1 2\n3\n4 5\n"}

	res, err := Preview(context.Background(), src, DefaultOptions(), 2)
	require.NoError(t, err)
	require.Equal(t, 5, res.TotalRecords)
	require.Equal(t, []string{"x", "y"}, res.Columns)
	require.Equal(t, [][]string{{"1", "2"}, {"3", ""}}, res.Rows)
}

func TestPreview_HeaderAfterComment(t *testing.T) {
	src := textSource{name: "p", body: "# units\nx y\n1 2\n"}

	res, err := Preview(context.Background(), src, DefaultOptions(), 0)
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, res.Columns)
	require.Equal(t, [][]string{{"1", "2"}}, res.Rows)
	require.Equal(t, 1, res.Window.StartRow)
	require.Equal(t, 1, res.Window.Budget)
}

func TestPreview_Unavailable(t *testing.T) {
	res, err := Preview(context.Background(), textSource{name: "gone", err: ErrSourceUnavailable}, DefaultOptions(), 0)
	require.NoError(t, err)
	require.True(t, res.Unavailable)
}

func TestPreview_Grid(t *testing.T) {
	grid := matrixGrid{cells: [][]float64{{1, 2}, {3, 4}, {5, 6}}}
	opts := DefaultOptions()
	opts.EndColumn = At(0)

	res, err := Preview(context.Background(), grid, opts, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"Column 1"}, res.Columns)
	require.Equal(t, [][]string{{"1"}, {"3"}}, res.Rows)
}

func TestService_Preview(t *testing.T) {
	s := newTestService(t, ServiceConfig{})

	res, err := s.Preview(context.Background(), ImportRequest{
		FileName: "upload.txt",
		Body:     strings.NewReader("a b\n1 2\n"),
		Options:  DefaultOptions(),
	}, 0)
	require.NoError(t, err)
	require.Equal(t, "upload.txt", res.Source)
	require.Equal(t, []string{"a", "b"}, res.Columns)
	require.Equal(t, [][]string{{"1", "2"}}, res.Rows)
	require.Empty(t, s.Tables())
}
