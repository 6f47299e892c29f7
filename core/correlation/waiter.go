package correlation

import (
	"time"

	"github.com/dmitrymomot/pluginbridge/pkg/async"
)

// waiter is one suspended WaitForResult call.
type waiter struct {
	id       string
	deadline time.Time
	resolve  async.Resolver[Result]
	timer    *time.Timer
}

// waiterManager indexes waiters by command ID. A waiter is resolved by
// whoever removes it from the manager, which makes resolution exactly-once.
// Not safe for concurrent use.
type waiterManager struct {
	byID  map[string][]*waiter
	count int
}

func newWaiterManager() *waiterManager {
	return &waiterManager{byID: make(map[string][]*waiter)}
}

func (m *waiterManager) add(w *waiter) {
	m.byID[w.id] = append(m.byID[w.id], w)
	m.count++
}

// remove unregisters w. It reports false if w was already taken.
func (m *waiterManager) remove(w *waiter) bool {
	list := m.byID[w.id]
	for i, candidate := range list {
		if candidate != w {
			continue
		}
		list = append(list[:i], list[i+1:]...)
		if len(list) == 0 {
			delete(m.byID, w.id)
		} else {
			m.byID[w.id] = list
		}
		m.count--
		return true
	}
	return false
}

// take unregisters and returns every waiter for id.
func (m *waiterManager) take(id string) []*waiter {
	list, ok := m.byID[id]
	if !ok {
		return nil
	}
	delete(m.byID, id)
	m.count -= len(list)
	return list
}

// drain unregisters and returns all waiters.
func (m *waiterManager) drain() []*waiter {
	all := make([]*waiter, 0, m.count)
	for id, list := range m.byID {
		all = append(all, list...)
		delete(m.byID, id)
	}
	m.count = 0
	return all
}

func (m *waiterManager) has(id string) bool {
	return len(m.byID[id]) > 0
}

func (m *waiterManager) len() int {
	return m.count
}
