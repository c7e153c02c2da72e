// Package templates renders the HTML views of the web server. The
// components are written in .templ files; run `templ generate` after
// editing them.
package templates

//go:generate templ generate

import (
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/colimport/internal/core"
)

func formatCell(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func importStatus(r core.ImportResult) string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case r.Error != "":
		return joinNonEmpty("failed", r.ErrorCode)
	}
	return "ok"
}
