package core

import (
	"context"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "data.csv", "data.csv"},
		{"spaces", "my data.txt", "my_data.txt"},
		{"unix path", "../../etc/passwd", "passwd"},
		{"windows path", `C:\Users\me\scan.png`, "scan.png"},
		{"empty", "", "upload"},
		{"unicode", "måling.dat", "m_ling.dat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeFileName(tt.in); got != tt.want {
				t.Errorf("sanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileName_Truncates(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	got := sanitizeFileName(string(long) + ".csv")
	if len(got) != maxSpoolNameLen {
		t.Fatalf("len = %d, want %d", len(got), maxSpoolNameLen)
	}
	if got[len(got)-4:] != ".csv" {
		t.Errorf("extension lost: %q", got)
	}
}

func TestContextWithJobID(t *testing.T) {
	ctx := ContextWithJobID(context.Background(), "job-1")
	if got := JobIDFromContext(ctx); got != "job-1" {
		t.Errorf("JobIDFromContext() = %q, want %q", got, "job-1")
	}
	if got := JobIDFromContext(context.Background()); got != "" {
		t.Errorf("JobIDFromContext() = %q, want empty", got)
	}
}
