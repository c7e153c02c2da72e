package web

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/JonMunkholm/colimport/internal/core"
)

func TestOptionsView_RoundTrip(t *testing.T) {
	opts := core.DefaultOptions()
	opts.Mode = core.Replace
	opts.EndRow = core.At(9)

	got, err := viewOf(opts).options()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != opts {
		t.Errorf("options() = %+v, want %+v", got, opts)
	}
	if v := viewOf(core.DefaultOptions()); v.EndRow != -1 || v.EndColumn != -1 {
		t.Errorf("unbounded ends = %d,%d, want -1,-1", v.EndRow, v.EndColumn)
	}
}

func TestOptionsView_ApplyForm(t *testing.T) {
	v := viewOf(core.DefaultOptions())
	form := url.Values{
		"mode":       {"prepend"},
		"delimiter":  {";TAB"},
		"header":     {"off"},
		"startRow":   {"2"},
		"endColumn":  {"end"},
		"transposed": {"on"},
	}
	if err := v.applyForm(form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Mode != "prepend" || v.Delimiter != ";TAB" || v.Header || v.StartRow != 2 || v.EndColumn != -1 || !v.Transposed {
		t.Errorf("applyForm result = %+v", v)
	}
	// Absent fields keep the base value.
	if !v.SkipEmptyTokens || v.CommentPrefix != "#" {
		t.Errorf("absent fields changed: %+v", v)
	}
}

func TestOptionsView_ApplyFormErrors(t *testing.T) {
	for _, form := range []url.Values{
		{"startRow": {"two"}},
		{"header": {"maybe"}},
	} {
		v := viewOf(core.DefaultOptions())
		if err := v.applyForm(form); !errors.Is(err, errInvalidRequest) {
			t.Errorf("applyForm(%v) error = %v, want errInvalidRequest", form, err)
		}
	}
}

func TestValidator_FieldNames(t *testing.T) {
	s := &Server{validate: newValidator()}

	err := s.check(&optionsView{StartRow: -1, EndRow: -1, EndColumn: -1})
	if !errors.Is(err, errInvalidRequest) {
		t.Fatalf("error = %v, want errInvalidRequest", err)
	}
	if got := err.Error(); got != "invalid request: startRow failed min=0" {
		t.Errorf("error = %q", got)
	}

	for table, ok := range map[string]bool{
		"readings":        true,
		"dbo.readings":    true,
		"x; DROP TABLE y": false,
		"1abc":            false,
	} {
		err := s.check(&sqlRequest{Table: table})
		if (err == nil) != ok {
			t.Errorf("table %q: error = %v, want ok=%v", table, err, ok)
		}
	}
	if err := s.check(&sqlRequest{}); err == nil {
		t.Error("expected an error when neither query nor table is set")
	}
	if err := s.check(&sqlRequest{Query: "SELECT 1", Table: "t"}); err == nil {
		t.Error("expected an error when both query and table are set")
	}
}

func TestExportDelimiter(t *testing.T) {
	tests := []struct {
		query string
		want  rune
		err   bool
	}{
		{"", ',', false},
		{"delimiter=tab", '\t', false},
		{"delimiter=%3B", ';', false},
		{"delimiter=ab", 0, true},
		{"delimiter=%22", 0, true},
	}
	for _, tt := range tests {
		got, err := exportDelimiter(httptest.NewRequest("GET", "/x?"+tt.query, nil))
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("exportDelimiter(%q) = %q, %v", tt.query, got, err)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, 1<<40)
	defer rl.stop()

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("a") {
		t.Error("third request should be limited")
	}
	if !rl.allow("b") {
		t.Error("other clients have their own budget")
	}
	rl.stop()
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrTableNotFound, 404},
		{core.ErrTemplateNotFound, 404},
		{core.ErrFileTooLarge, 413},
		{core.ErrTooManyImports, 429},
		{&core.StateError{Op: "reset", Err: errors.New("table is locked")}, 409},
		{core.ErrTemplateExists, 409},
		{&core.RangeError{Axis: "row", Start: 3, End: 1}, 400},
		{errInvalidRequest, 400},
		{errors.New("decode png: bad header"), 422},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
