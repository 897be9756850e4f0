package series

import (
	"sync/atomic"
	"weak"
)

// Subscriber receives wakeups from a Completable series.
// TryComplete is called once per notification round; force is true
// only when the series has just transitioned to completed (so that a
// quiesced subscriber — one with no outstanding request — is still
// released), and cancel is true only when the subscription itself was
// torn down due to context cancellation rather than new data.
type Subscriber interface {
	TryComplete(force, cancel bool)
}

// Completable is a Series that can be watched for new data.
type Completable[K, V any] interface {
	Series[K, V]
	// Subscribe registers sub for wakeups. Closing the returned Handle
	// unsubscribes; dropping the Handle without closing it also
	// eventually unsubscribes once the Handle is collected, since the
	// series only holds a weak reference to the subscription record
	// the Handle keeps alive (that record in turn keeps sub alive).
	Subscribe(sub Subscriber) *Handle
}

// Handle is returned by Subscribe. Close unsubscribes.
type Handle struct {
	set    *SubscriberSet
	holder *subscriberHolder
}

// Close unsubscribes. Safe to call more than once, and safe to call
// on a nil *Handle.
func (h *Handle) Close() {
	if h == nil || h.set == nil {
		return
	}
	h.set.Remove(h.holder)
	h.set = nil
}

type subscriberHolder struct {
	sub Subscriber
}

// SubscriberSet holds zero, one or many weak subscriber references,
// mutated through compare-and-swap snapshot replacement rather than a
// mutex. A snapshot of length 0 or 1 is the common case and notifies
// in O(1).
type SubscriberSet struct {
	snapshot atomic.Pointer[[]weak.Pointer[subscriberHolder]]
}

func NewSubscriberSet() *SubscriberSet {
	s := &SubscriberSet{}
	empty := []weak.Pointer[subscriberHolder]{}
	s.snapshot.Store(&empty)
	return s
}

func (s *SubscriberSet) Subscribe(sub Subscriber) *Handle {
	holder := &subscriberHolder{sub: sub}
	wp := weak.Make(holder)
	for {
		old := s.snapshot.Load()
		next := make([]weak.Pointer[subscriberHolder], len(*old)+1)
		copy(next, *old)
		next[len(*old)] = wp
		if s.snapshot.CompareAndSwap(old, &next) {
			return &Handle{set: s, holder: holder}
		}
	}
}

func (s *SubscriberSet) Remove(holder *subscriberHolder) {
	for {
		old := s.snapshot.Load()
		idx := -1
		for i, wp := range *old {
			if wp.Value() == holder {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		next := make([]weak.Pointer[subscriberHolder], 0, len(*old)-1)
		next = append(next, (*old)[:idx]...)
		next = append(next, (*old)[idx+1:]...)
		if s.snapshot.CompareAndSwap(old, &next) {
			return
		}
	}
}

// NotifyAll dispatches TryComplete(force, false) to every live
// subscriber via dispatch (typically a bounded worker pool's submit
// function), then prunes any entries whose weak reference has gone
// dead. It returns the number of subscribers dispatched to, for
// callers that feed it into Metrics.
func (s *SubscriberSet) NotifyAll(force bool, dispatch func(func())) int {
	snap := *s.snapshot.Load()
	if len(snap) == 0 {
		return 0
	}
	anyDead := false
	dispatched := 0
	for _, wp := range snap {
		holder := wp.Value()
		if holder == nil {
			anyDead = true
			continue
		}
		sub := holder.sub
		dispatch(func() { sub.TryComplete(force, false) })
		dispatched++
	}
	if anyDead {
		s.pruneDead()
	}
	return dispatched
}

func (s *SubscriberSet) pruneDead() {
	for {
		old := s.snapshot.Load()
		next := make([]weak.Pointer[subscriberHolder], 0, len(*old))
		for _, wp := range *old {
			if wp.Value() != nil {
				next = append(next, wp)
			}
		}
		if len(next) == len(*old) {
			return
		}
		if s.snapshot.CompareAndSwap(old, &next) {
			return
		}
	}
}
