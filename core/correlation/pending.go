package correlation

import "time"

// pendingRegistry records dispatched IDs that have no result yet.
// Not safe for concurrent use.
type pendingRegistry struct {
	since map[string]time.Time
}

func newPendingRegistry() *pendingRegistry {
	return &pendingRegistry{since: make(map[string]time.Time)}
}

// markPending registers id. It reports false if id was already pending.
func (p *pendingRegistry) markPending(id string, now time.Time) bool {
	if _, ok := p.since[id]; ok {
		return false
	}
	p.since[id] = now
	return true
}

func (p *pendingRegistry) isPending(id string) bool {
	_, ok := p.since[id]
	return ok
}

func (p *pendingRegistry) clearPending(id string) {
	delete(p.since, id)
}

// evictOlderThan drops entries registered before cutoff (abandoned commands),
// skipping IDs for which keep returns true.
func (p *pendingRegistry) evictOlderThan(cutoff time.Time, keep func(id string) bool) int {
	removed := 0
	for id, at := range p.since {
		if !at.Before(cutoff) {
			continue
		}
		if keep != nil && keep(id) {
			continue
		}
		delete(p.since, id)
		removed++
	}
	return removed
}

func (p *pendingRegistry) len() int {
	return len(p.since)
}
