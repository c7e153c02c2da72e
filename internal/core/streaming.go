package core

// streaming.go turns byte streams into text records without loading the
// whole source into memory:
//
//   - skipBOM drops a leading UTF-8 byte order mark (Windows editors add one)
//   - TextScanner splits lines, strips a trailing CR and repairs invalid UTF-8
//   - CountingReader tracks bytes for upload limits
//
// Use NewTextScanner to apply the transforms in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// MaxLineSize bounds a single text record.
const MaxLineSize = 16 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// TextScanner is a LineScanner over an io.Reader.
type TextScanner struct {
	sc     *bufio.Scanner
	closer io.Closer
	line   string
}

// NewTextScanner wraps r for line reading. If r is an io.Closer, Close
// closes it.
func NewTextScanner(r io.Reader) *TextScanner {
	sc := bufio.NewScanner(skipBOM(r))
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	ts := &TextScanner{sc: sc}
	if c, ok := r.(io.Closer); ok {
		ts.closer = c
	}
	return ts
}

// Scan advances to the next line.
func (s *TextScanner) Scan() bool {
	if !s.sc.Scan() {
		return false
	}
	line := strings.TrimSuffix(s.sc.Text(), "\r")
	s.line = strings.ToValidUTF8(line, "?")
	return true
}

// Text returns the current line without its terminator.
func (s *TextScanner) Text() string { return s.line }

// Err returns the first non-EOF error.
func (s *TextScanner) Err() error { return s.sc.Err() }

// Close releases the underlying reader.
func (s *TextScanner) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with an optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}
