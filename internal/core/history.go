package core

import "sync"

// DefaultHistorySize is the number of finished jobs kept when unconfigured.
const DefaultHistorySize = 100

// history is a bounded, newest-first log of finished import jobs.
type history struct {
	mu      sync.Mutex
	size    int
	entries []ImportResult
}

func newHistory(size int) *history {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &history{size: size}
}

func (h *history) add(r ImportResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]ImportResult{r}, h.entries...)
	if len(h.entries) > h.size {
		h.entries = h.entries[:h.size]
	}
}

// list returns entries for one table, or all entries when tableID is "".
func (h *history) list(tableID string) []ImportResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ImportResult, 0, len(h.entries))
	for _, e := range h.entries {
		if tableID == "" || e.TableID == tableID {
			out = append(out, e)
		}
	}
	return out
}

// History returns finished imports, newest first. An empty tableID returns
// the imports of every table.
func (s *Service) History(tableID string) []ImportResult {
	return s.history.list(tableID)
}

// LastImport returns the most recent finished import into a table.
func (s *Service) LastImport(tableID string) (ImportResult, bool) {
	entries := s.history.list(tableID)
	if len(entries) == 0 {
		return ImportResult{}, false
	}
	return entries[0], true
}
