package core

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	tabAlias      = regexp.MustCompile(`(?i)TAB`)
	spaceAlias    = regexp.MustCompile(`(?i)SPACE`)
)

// TokenizerOptions controls how one record is split into fields.
type TokenizerOptions struct {
	Delimiter          string
	SimplifyWhitespace bool
	SkipEmptyTokens    bool
}

// Tokenize splits a single record into fields. It has no side effects.
func Tokenize(line string, o TokenizerOptions) []string {
	if o.SimplifyWhitespace {
		line = SimplifyWhitespace(line)
	}

	var fields []string
	if IsAutoDelimiter(o.Delimiter) {
		fields = whitespaceRun.Split(line, -1)
	} else {
		fields = strings.Split(line, ResolveDelimiter(o.Delimiter))
	}

	if !o.SkipEmptyTokens {
		return fields
	}

	kept := fields[:0]
	for _, f := range fields {
		if f != "" {
			kept = append(kept, f)
		}
	}
	return kept
}

// SimplifyWhitespace collapses interior whitespace runs to one space and trims both ends.
func SimplifyWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsAutoDelimiter reports whether d requests whitespace splitting.
// An empty delimiter is treated as auto.
func IsAutoDelimiter(d string) bool {
	return d == "" || strings.EqualFold(d, AutoDelimiter)
}

// ResolveDelimiter substitutes the TAB and SPACE aliases with the literal characters.
func ResolveDelimiter(d string) string {
	d = tabAlias.ReplaceAllLiteralString(d, "\t")
	return spaceAlias.ReplaceAllLiteralString(d, " ")
}
