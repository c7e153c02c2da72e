package core

import (
	"encoding/json"
	"math"
	"testing"
)

// ----------------------------------------------------------------------------
// ParseFloat Tests
// ----------------------------------------------------------------------------

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantNaN bool
	}{
		// Valid: integers and decimals
		{name: "positive integer", input: "123", want: 123},
		{name: "zero", input: "0", want: 0},
		{name: "negative integer", input: "-456", want: -456},
		{name: "explicit plus", input: "+7", want: 7},
		{name: "decimal number", input: "123.45", want: 123.45},
		{name: "leading decimal point", input: ".5", want: 0.5},
		{name: "trailing decimal point", input: "99.", want: 99},
		{name: "surrounding whitespace", input: "  3.25\t", want: 3.25},

		// Valid: scientific notation
		{name: "exponent", input: "1e3", want: 1000},
		{name: "negative exponent", input: "2.5E-2", want: 0.025},

		// Special values
		{name: "infinity", input: "inf", want: math.Inf(1)},
		{name: "negative infinity", input: "-Infinity", want: math.Inf(-1)},
		{name: "overflow saturates", input: "1e400", want: math.Inf(1)},
		{name: "nan literal", input: "NaN", wantNaN: true},

		// Invalid: become NaN
		{name: "empty", input: "", wantNaN: true},
		{name: "whitespace only", input: "   ", wantNaN: true},
		{name: "text", input: "abc", wantNaN: true},
		{name: "trailing garbage", input: "12abc", wantNaN: true},
		{name: "thousands separator", input: "1,000", wantNaN: true},
		{name: "hex", input: "0x10", wantNaN: true},
		{name: "double sign", input: "--1", wantNaN: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFloat(tt.input)
			if tt.wantNaN {
				if !math.IsNaN(got) {
					t.Errorf("ParseFloat(%q) = %v, want NaN", tt.input, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseFloat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToFloat Tests
// ----------------------------------------------------------------------------

type stringer string

func (s stringer) String() string { return string(s) }

func TestToFloat(t *testing.T) {
	f64 := 2.5
	i64 := int64(-3)
	var nilF64 *float64
	str := "42"

	tests := []struct {
		name    string
		input   any
		want    float64
		wantNaN bool
	}{
		{name: "nil", input: nil, wantNaN: true},
		{name: "float64", input: 1.5, want: 1.5},
		{name: "float32", input: float32(0.5), want: 0.5},
		{name: "int", input: 7, want: 7},
		{name: "int8", input: int8(-8), want: -8},
		{name: "int32", input: int32(32), want: 32},
		{name: "int64", input: int64(64), want: 64},
		{name: "uint16", input: uint16(16), want: 16},
		{name: "uint64", input: uint64(1 << 40), want: 1 << 40},
		{name: "true", input: true, want: 1},
		{name: "false", input: false, want: 0},
		{name: "numeric string", input: "12.5", want: 12.5},
		{name: "text string", input: "n/a", wantNaN: true},
		{name: "bytes", input: []byte("3"), want: 3},
		{name: "float pointer", input: &f64, want: 2.5},
		{name: "int64 pointer", input: &i64, want: -3},
		{name: "nil pointer", input: nilF64, wantNaN: true},
		{name: "string pointer", input: &str, want: 42},
		{name: "json number", input: json.Number("9.75"), want: 9.75},
		{name: "stringer", input: stringer("11"), want: 11},
		{name: "unsupported", input: struct{}{}, wantNaN: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToFloat(tt.input)
			if tt.wantNaN {
				if !math.IsNaN(got) {
					t.Errorf("ToFloat(%v) = %v, want NaN", tt.input, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ToFloat(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
