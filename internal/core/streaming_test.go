package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func readLines(t *testing.T, input []byte) []string {
	t.Helper()
	sc := NewTextScanner(bytes.NewReader(input))
	defer sc.Close()

	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return lines
}

func TestTextScanner_BOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("x y\n1 2")...),
			expected: []string{"x y", "1 2"},
		},
		{
			name:     "file without BOM",
			input:    []byte("x y\n1 2\n"),
			expected: []string{"x y", "1 2"},
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: nil,
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: nil,
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a'},
			expected: []string{"?a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readLines(t, tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %q, want %q", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestTextScanner_Sanitizes(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"valid ascii", []byte("1 2 3"), "1 2 3"},
		{"valid multibyte", []byte("café 1"), "café 1"},
		{"invalid byte", []byte{'1', 0xFF, '2'}, "1?2"},
		{"windows line ending", []byte("1 2\r\n"), "1 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readLines(t, tt.input)
			if len(got) != 1 || got[0] != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTextScanner_LongLine(t *testing.T) {
	long := strings.Repeat("1 ", 100_000)
	got := readLines(t, []byte(long+"\n2"))
	if len(got) != 2 || len(got[0]) != len(long) {
		t.Fatalf("long line not preserved: got %d lines", len(got))
	}
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error { c.closed = true; return nil }

func TestTextScanner_ClosesUnderlying(t *testing.T) {
	rc := &closeTracker{Reader: strings.NewReader("1")}
	sc := NewTextScanner(rc)
	if err := sc.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if !rc.closed {
		t.Error("underlying reader was not closed")
	}
}

func TestCountingReader(t *testing.T) {
	r := NewCountingReader(strings.NewReader("0123456789"), 20)
	if _, err := io.ReadAll(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.BytesRead != 10 {
		t.Errorf("BytesRead = %d, want 10", r.BytesRead)
	}
	if r.Progress() != 50 {
		t.Errorf("Progress() = %d, want 50", r.Progress())
	}
	if NewCountingReader(strings.NewReader(""), 0).Progress() != 0 {
		t.Error("Progress() with unknown total should be 0")
	}
}
