package reader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/colimport/internal/core"
)

// TextFile is a line source over a delimited text file on disk.
type TextFile struct {
	Path string
}

func (f TextFile) Name() string { return filepath.Base(f.Path) }

// OpenLines opens the file for line reading. A missing or unreadable file
// reports core.ErrSourceUnavailable.
func (f TextFile) OpenLines(ctx context.Context) (core.LineScanner, error) {
	fh, err := openSource(f.Path)
	if err != nil {
		return nil, err
	}
	return core.NewTextScanner(fh), nil
}

// ColumnCount returns the number of whitespace separated fields in the first
// line of the file. A leading separator counts as an empty field. Returns 0
// when the file cannot be read or is empty.
func ColumnCount(path string) int {
	fh, err := os.Open(path)
	if err != nil {
		return 0
	}
	sc := core.NewTextScanner(fh)
	defer sc.Close()

	if !sc.Scan() {
		return 0
	}
	return len(core.Tokenize(sc.Text(), core.TokenizerOptions{Delimiter: core.AutoDelimiter}))
}

// LineCount returns the number of lines in the file, or 0 when it cannot be
// read.
func LineCount(path string) int {
	fh, err := os.Open(path)
	if err != nil {
		return 0
	}
	sc := core.NewTextScanner(fh)
	defer sc.Close()

	n := 0
	for sc.Scan() {
		n++
	}
	return n
}

// openSource opens path, mapping a missing or unreadable file to
// core.ErrSourceUnavailable.
func openSource(path string) (*os.File, error) {
	fh, err := os.Open(path)
	if err == nil {
		return fh, nil
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}
	return nil, fmt.Errorf("open %s: %w", path, err)
}
