package core

import (
	"context"
	"fmt"
)

// Source is anything an import can read from. A concrete source must also
// implement exactly one of LineSource, FieldSource or GridSource.
type Source interface {
	// Name identifies the source in logs and summaries.
	Name() string
}

// LineSource yields raw text records that the importer tokenizes.
type LineSource interface {
	Source
	OpenLines(ctx context.Context) (LineScanner, error)
}

// LineScanner iterates text records. It follows bufio.Scanner conventions.
type LineScanner interface {
	Scan() bool
	Text() string
	Err() error
	Close() error
}

// FieldSource yields records that are already split into fields, such as
// spreadsheet rows. Comment detection looks at the first field.
type FieldSource interface {
	Source
	OpenRecords(ctx context.Context) (RecordScanner, error)
}

// RecordScanner iterates pre-split records.
type RecordScanner interface {
	Scan() bool
	Fields() []string
	Err() error
	Close() error
}

// GridSource yields a numeric grid with a known extent. Grids skip
// tokenization and header handling.
type GridSource interface {
	Source
	OpenGrid(ctx context.Context) (Grid, error)
}

// Grid is a rectangular block of numeric cells.
type Grid interface {
	Width() int
	Height() int
	At(row, col int) float64
}

// Namer is implemented by grids that carry their own column names.
type Namer interface {
	ColumnNames() []string
}

// record is one windowed source record after tokenization.
type record struct {
	fields  []string
	comment bool
}

// recordIterator unifies line and field sources for the materializer.
type recordIterator interface {
	Next() bool
	Record() record
	Err() error
	Close() error
}

type lineIterator struct {
	sc   LineScanner
	opts Options
	cur  record
}

func (it *lineIterator) Next() bool {
	if !it.sc.Scan() {
		return false
	}
	line := it.sc.Text()
	if it.opts.SimplifyWhitespace {
		line = SimplifyWhitespace(line)
	}
	it.cur = record{
		comment: isComment(line, it.opts.CommentPrefix),
		fields:  Tokenize(line, it.opts.TokenizerOptions()),
	}
	return true
}

func (it *lineIterator) Record() record { return it.cur }
func (it *lineIterator) Err() error     { return it.sc.Err() }
func (it *lineIterator) Close() error   { return it.sc.Close() }

type fieldIterator struct {
	sc   RecordScanner
	opts Options
	cur  record
}

func (it *fieldIterator) Next() bool {
	if !it.sc.Scan() {
		return false
	}
	fields := it.sc.Fields()
	comment := len(fields) > 0 && isComment(fields[0], it.opts.CommentPrefix)
	if it.opts.SimplifyWhitespace {
		simplified := make([]string, len(fields))
		for i, f := range fields {
			simplified[i] = SimplifyWhitespace(f)
		}
		fields = simplified
	}
	it.cur = record{fields: fields, comment: comment}
	return true
}

func (it *fieldIterator) Record() record { return it.cur }
func (it *fieldIterator) Err() error     { return it.sc.Err() }
func (it *fieldIterator) Close() error   { return it.sc.Close() }

func isComment(s, prefix string) bool {
	return prefix != "" && len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// openRecords opens a line or field source as a recordIterator.
func openRecords(ctx context.Context, src Source, opts Options) (recordIterator, error) {
	switch s := src.(type) {
	case LineSource:
		sc, err := s.OpenLines(ctx)
		if err != nil {
			return nil, err
		}
		return &lineIterator{sc: sc, opts: opts}, nil
	case FieldSource:
		sc, err := s.OpenRecords(ctx)
		if err != nil {
			return nil, err
		}
		return &fieldIterator{sc: sc, opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %s offers no records or grid", ErrUnknownReader, src.Name())
	}
}

// countRecords does the full pre-scan that sizes the row window.
func countRecords(ctx context.Context, src Source, opts Options) (int, error) {
	it, err := openRecords(ctx, src, opts)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	n := 0
	for it.Next() {
		n++
	}
	return n, it.Err()
}
