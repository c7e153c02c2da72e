package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// DefaultPreviewRows is the number of records a preview shows by default.
const DefaultPreviewRows = 20

// PreviewResult is what an import would produce, computed without touching
// any table.
type PreviewResult struct {
	Source       string     `json:"source"`
	TotalRecords int        `json:"totalRecords"`
	Window       Window     `json:"window"`
	Columns      []string   `json:"columns"`
	Rows         [][]string `json:"rows"`
	Unavailable  bool       `json:"unavailable,omitempty"`
}

// Preview resolves the window and schema of src and returns up to maxRows
// records of the selected columns as text. NaN cells are rendered empty.
func Preview(ctx context.Context, src Source, opts Options, maxRows int) (PreviewResult, error) {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}

	res, err := preview(ctx, src, opts, maxRows)
	res.Source = src.Name()
	if errors.Is(err, ErrSourceUnavailable) {
		return PreviewResult{Source: src.Name(), Unavailable: true}, nil
	}
	return res, err
}

func preview(ctx context.Context, src Source, opts Options, maxRows int) (PreviewResult, error) {
	if g, ok := src.(GridSource); ok {
		return previewGrid(ctx, g, opts, maxRows)
	}

	total, err := countRecords(ctx, src, opts)
	if err != nil {
		return PreviewResult{}, err
	}
	win, err := ResolveWindow(opts.StartRow, opts.EndRow, total, opts.Header)
	if err != nil {
		return PreviewResult{}, err
	}
	res := PreviewResult{TotalRecords: total, Window: win}
	if win.StartRow >= total {
		return res, nil
	}

	it, err := openRecords(ctx, src, opts)
	if err != nil {
		return PreviewResult{}, err
	}
	defer it.Close()

	for i := 0; i < win.StartRow; i++ {
		if !it.Next() {
			return res, it.Err()
		}
	}
	first, ok, err := firstRecord(it, &win)
	if !ok {
		return res, err
	}
	res.Window = win

	schema, err := ResolveSchema(first.fields, opts)
	if err != nil {
		return PreviewResult{}, err
	}
	res.Columns = schema.Names

	add := func(rec record) {
		if rec.comment || len(rec.fields) == 0 || len(res.Rows) >= maxRows {
			return
		}
		row := make([]string, schema.ColumnCount())
		for k := range row {
			if n := schema.StartColumn + k; n < len(rec.fields) {
				row[k] = formatCell(ParseFloat(rec.fields[n]))
			}
		}
		res.Rows = append(res.Rows, row)
	}

	if !schema.HeaderConsumed {
		add(first)
	}
	for cursor := win.StartRow; cursor < win.EndRow && len(res.Rows) < maxRows && it.Next(); cursor++ {
		add(it.Record())
	}
	return res, it.Err()
}

func previewGrid(ctx context.Context, src GridSource, opts Options, maxRows int) (PreviewResult, error) {
	grid, err := src.OpenGrid(ctx)
	if err != nil {
		return PreviewResult{}, err
	}
	if c, ok := grid.(io.Closer); ok {
		defer c.Close()
	}

	win, err := ResolveWindow(opts.StartRow, opts.EndRow, grid.Height(), false)
	if err != nil {
		return PreviewResult{}, err
	}
	res := PreviewResult{TotalRecords: grid.Height(), Window: win}
	if win.Empty() {
		return res, nil
	}

	start, end, err := ColumnWindow(opts.StartColumn, opts.EndColumn, grid.Width())
	if err != nil {
		return PreviewResult{}, err
	}
	res.Columns = gridNames(grid, opts, start, end)

	for r := 0; r < win.Budget && r < maxRows; r++ {
		row := make([]string, end-start+1)
		for k := range row {
			row[k] = formatCell(grid.At(win.StartRow+r, start+k))
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// formatCell renders a cell for display. NaN is shown as an empty string.
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// String summarizes the preview for logs.
func (p PreviewResult) String() string {
	return fmt.Sprintf("%s: %d records, %d columns, %d preview rows", p.Source, p.TotalRecords, len(p.Columns), len(p.Rows))
}

// Preview spools an upload and previews it with the reader the request
// names or its file extension selects. No table is touched.
func (s *Service) Preview(ctx context.Context, req ImportRequest, maxRows int) (PreviewResult, error) {
	def, err := ReaderFor(req.Reader, req.FileName)
	if err != nil {
		return PreviewResult{}, err
	}
	path, err := s.spool(req.Body, req.FileName)
	if err != nil {
		return PreviewResult{}, err
	}
	defer os.Remove(path)

	res, err := Preview(ctx, def.Open(path), req.Options, maxRows)
	res.Source = req.FileName
	return res, err
}
