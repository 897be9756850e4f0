package seriestest

import "sync"

// FakeSubscriber is a deterministic series.Subscriber for tests that
// exercise the reactive completion protocol without depending on
// goroutine scheduling: TryComplete just records the call under a
// mutex instead of signaling a channel, so a test can call it,
// synchronously inspect Calls(), and reset between assertions.
type FakeSubscriber struct {
	mu    sync.Mutex
	calls []Call
}

// Call records one TryComplete invocation.
type Call struct {
	Force  bool
	Cancel bool
}

// TryComplete implements series.Subscriber.
func (f *FakeSubscriber) TryComplete(force, cancel bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Force: force, Cancel: cancel})
}

// Calls returns a snapshot of every TryComplete call received so far.
func (f *FakeSubscriber) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns the number of TryComplete calls received so far.
func (f *FakeSubscriber) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// SyncDispatch is a series.NotifyPool-compatible dispatch function that
// runs fn inline instead of handing it to a worker goroutine, so tests
// that assert "exactly N notifications happened" don't race the pool.
func SyncDispatch(fn func()) { fn() }
