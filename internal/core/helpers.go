package core

import (
	"path/filepath"
	"strings"
)

// maxSpoolNameLen bounds the original-name suffix of spool files.
const maxSpoolNameLen = 64

// sanitizeFileName reduces an uploaded file name to a safe temp file suffix:
// the base name with every character outside [A-Za-z0-9._-] replaced by '_'.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return "upload"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if len(out) > maxSpoolNameLen {
		out = out[len(out)-maxSpoolNameLen:]
	}
	return out
}
