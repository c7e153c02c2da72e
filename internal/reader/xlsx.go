package reader

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/colimport/internal/core"
)

// Workbook is a field source over one sheet of an Excel workbook. Cells are
// read raw, so number formats do not leak into the parsed values.
type Workbook struct {
	Path  string
	Sheet string // "" for the first sheet
}

func (w Workbook) Name() string {
	if w.Sheet == "" {
		return filepath.Base(w.Path)
	}
	return filepath.Base(w.Path) + ":" + w.Sheet
}

// OpenRecords streams the sheet row by row.
func (w Workbook) OpenRecords(ctx context.Context) (core.RecordScanner, error) {
	fh, err := openSource(w.Path)
	if err != nil {
		return nil, err
	}

	book, err := excelize.OpenReader(fh)
	fh.Close()
	if err != nil {
		return nil, fmt.Errorf("decode workbook %s: %w", w.Name(), err)
	}

	sheet := w.Sheet
	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			book.Close()
			return nil, fmt.Errorf("decode workbook %s: no sheets found", w.Name())
		}
		sheet = sheets[0]
	}

	rows, err := book.Rows(sheet)
	if err != nil {
		book.Close()
		return nil, fmt.Errorf("decode workbook %s: open rows of sheet %s: %w", w.Name(), sheet, err)
	}
	return &sheetScanner{book: book, rows: rows}, nil
}

// Sheets lists the sheet names of a workbook, in workbook order.
func Sheets(path string) ([]string, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("decode workbook %s: %w", filepath.Base(path), err)
	}
	defer book.Close()
	return book.GetSheetList(), nil
}

type sheetScanner struct {
	book   *excelize.File
	rows   *excelize.Rows
	fields []string
	err    error
}

func (s *sheetScanner) Scan() bool {
	if s.err != nil || !s.rows.Next() {
		return false
	}
	s.fields, s.err = s.rows.Columns(excelize.Options{RawCellValue: true})
	return s.err == nil
}

func (s *sheetScanner) Fields() []string { return s.fields }

func (s *sheetScanner) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.rows.Error()
}

func (s *sheetScanner) Close() error {
	rowsErr := s.rows.Close()
	if err := s.book.Close(); err != nil {
		return err
	}
	return rowsErr
}
