package correlation

import "time"

type storedResult struct {
	result   Result
	storedAt time.Time
}

// resultStore holds completed results. Not safe for concurrent use; the
// Correlator serializes access.
type resultStore struct {
	entries map[string]storedResult
}

func newResultStore() *resultStore {
	return &resultStore{entries: make(map[string]storedResult)}
}

// put stores r, overwriting any previous result for the same ID.
// It reports whether a previous result was replaced.
func (s *resultStore) put(r Result, now time.Time) bool {
	_, replaced := s.entries[r.CommandID]
	s.entries[r.CommandID] = storedResult{result: r, storedAt: now}
	return replaced
}

func (s *resultStore) get(id string) (Result, bool) {
	e, ok := s.entries[id]
	return e.result, ok
}

func (s *resultStore) has(id string) bool {
	_, ok := s.entries[id]
	return ok
}

// evictOlderThan removes results stored before cutoff, skipping IDs for
// which keep returns true.
func (s *resultStore) evictOlderThan(cutoff time.Time, keep func(id string) bool) int {
	removed := 0
	for id, e := range s.entries {
		if !e.storedAt.Before(cutoff) {
			continue
		}
		if keep != nil && keep(id) {
			continue
		}
		delete(s.entries, id)
		removed++
	}
	return removed
}

func (s *resultStore) len() int {
	return len(s.entries)
}
