package core

// convert.go turns raw field text into cell values. Coercion never fails the
// import: anything that is not a plain number becomes NaN.

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseFloat converts a field to a float64. Empty, malformed or absent
// fields yield NaN.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}

	if !numericRegex.MatchString(s) {
		switch strings.ToLower(s) {
		case "nan":
			return math.NaN()
		case "inf", "+inf", "infinity", "+infinity":
			return math.Inf(1)
		case "-inf", "-infinity":
			return math.Inf(-1)
		}
		return math.NaN()
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out of range values still parse to ±Inf.
		if errors.Is(err, strconv.ErrRange) {
			return v
		}
		return math.NaN()
	}
	return v
}

// ToFloat converts a driver or decoder value to a float64. Numbers convert
// directly, strings and byte slices go through ParseFloat, booleans become
// 0 or 1, and everything else is NaN.
func ToFloat(v any) float64 {
	switch x := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		return ParseFloat(x)
	case []byte:
		return ParseFloat(string(x))
	case *float64:
		if x == nil {
			return math.NaN()
		}
		return *x
	case *int64:
		if x == nil {
			return math.NaN()
		}
		return float64(*x)
	case *int32:
		if x == nil {
			return math.NaN()
		}
		return float64(*x)
	case *float32:
		if x == nil {
			return math.NaN()
		}
		return float64(*x)
	case *bool:
		if x == nil {
			return math.NaN()
		}
		return ToFloat(*x)
	case *string:
		if x == nil {
			return math.NaN()
		}
		return ParseFloat(*x)
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case interface{ String() string }:
		return ParseFloat(x.String())
	default:
		return math.NaN()
	}
}
