package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ReaderKind groups readers by the capability their sources provide.
type ReaderKind string

const (
	KindText    ReaderKind = "text"
	KindRecords ReaderKind = "records"
	KindGrid    ReaderKind = "grid"
)

// ReaderInfo describes a registered file reader.
type ReaderInfo struct {
	Key        string     `json:"key"`
	Label      string     `json:"label"`
	Kind       ReaderKind `json:"kind"`
	Extensions []string   `json:"extensions"`
}

// ReaderDefinition pairs reader metadata with a source factory.
type ReaderDefinition struct {
	Info ReaderInfo

	// Open returns a source for the file at path. It must not fail for a
	// missing file; the source reports ErrSourceUnavailable when opened.
	Open func(path string) Source
}

var (
	readers   = make(map[string]ReaderDefinition)
	readersMu sync.RWMutex
)

// RegisterReader adds a reader to the registry.
// Panics if a reader with the same key is already registered.
func RegisterReader(def ReaderDefinition) {
	readersMu.Lock()
	defer readersMu.Unlock()

	if _, exists := readers[def.Info.Key]; exists {
		panic(fmt.Sprintf("reader already registered: %s", def.Info.Key))
	}
	for i, ext := range def.Info.Extensions {
		def.Info.Extensions[i] = normalizeExt(ext)
	}
	readers[def.Info.Key] = def
}

// Reader returns a reader by key.
func Reader(key string) (ReaderDefinition, bool) {
	readersMu.RLock()
	defer readersMu.RUnlock()

	def, ok := readers[key]
	return def, ok
}

// ReaderFor picks a reader by key, or by the file extension of path when key
// is empty. Unknown keys and extensions return ErrUnknownReader.
func ReaderFor(key, path string) (ReaderDefinition, error) {
	if key != "" {
		if def, ok := Reader(key); ok {
			return def, nil
		}
		return ReaderDefinition{}, fmt.Errorf("%w: %q", ErrUnknownReader, key)
	}

	ext := normalizeExt(filepath.Ext(path))
	readersMu.RLock()
	defer readersMu.RUnlock()

	// Sorted for a stable pick when two readers claim one extension.
	for _, def := range sortedReaders() {
		for _, e := range def.Info.Extensions {
			if e == ext {
				return def, nil
			}
		}
	}
	return ReaderDefinition{}, fmt.Errorf("%w: no reader for extension %q", ErrUnknownReader, ext)
}

// Readers returns all registered readers sorted by key.
func Readers() []ReaderInfo {
	readersMu.RLock()
	defer readersMu.RUnlock()

	defs := sortedReaders()
	infos := make([]ReaderInfo, len(defs))
	for i, d := range defs {
		infos[i] = d.Info
	}
	return infos
}

// ClearReaders removes all registered readers.
// Primarily useful for testing.
func ClearReaders() {
	readersMu.Lock()
	defer readersMu.Unlock()
	readers = make(map[string]ReaderDefinition)
}

// sortedReaders must be called with readersMu held.
func sortedReaders() []ReaderDefinition {
	result := make([]ReaderDefinition, 0, len(readers))
	for _, def := range readers {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})
	return result
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
