package correlation

import "sync/atomic"

// Subscriber receives every stored result.
type Subscriber func(Result)

type subscription struct {
	id     uint64
	fn     Subscriber
	active atomic.Bool
}

// subscriptionBus is the observer registry. Registration changes are
// serialized by the Correlator; delivery happens outside its state lock.
type subscriptionBus struct {
	nextID uint64
	subs   []*subscription
}

func newSubscriptionBus() *subscriptionBus {
	return &subscriptionBus{}
}

func (b *subscriptionBus) add(fn Subscriber) *subscription {
	b.nextID++
	s := &subscription{id: b.nextID, fn: fn}
	s.active.Store(true)
	b.subs = append(b.subs, s)
	return s
}

func (b *subscriptionBus) remove(s *subscription) bool {
	for i, candidate := range b.subs {
		if candidate == s {
			s.active.Store(false)
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot returns the current subscribers. The returned slice is not
// modified by later add/remove calls.
func (b *subscriptionBus) snapshot() []*subscription {
	if len(b.subs) == 0 {
		return nil
	}
	out := make([]*subscription, len(b.subs))
	copy(out, b.subs)
	return out
}

func (b *subscriptionBus) clear() {
	for _, s := range b.subs {
		s.active.Store(false)
	}
	b.subs = nil
}

func (b *subscriptionBus) len() int {
	return len(b.subs)
}
