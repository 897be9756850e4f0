package series

import (
	"context"
	"sync"
)

// AsyncCursor wraps a Cursor over a Completable source and implements
// an asynchronous move-next: block past the current end of data until
// either new data arrives, the source completes, or ctx is cancelled.
type AsyncCursor[K, V any] struct {
	inner  Cursor[K, V]
	source Completable[K, V]
}

// NewAsyncCursor returns an AsyncCursor positioned identically to a
// fresh Cursor() over source.
func NewAsyncCursor[K, V any](source Completable[K, V]) *AsyncCursor[K, V] {
	return &AsyncCursor[K, V]{inner: source.Cursor(), source: source}
}

// Cursor exposes the underlying synchronous cursor for the
// non-blocking navigation methods (MoveAt, TryGetValue, ...); only
// advancing past the end of currently-available data needs Next.
func (ac *AsyncCursor[K, V]) Cursor() Cursor[K, V] { return ac.inner }

// Next implements the async move-next protocol in five steps:
//
//  1. Attempt MoveNext; return true immediately on success.
//  2. Else register a one-shot notification request against the source.
//  3. Retry MoveNext once after registering, to avoid the lost wakeup
//     if an update landed between steps 1 and 2.
//  4. If the source is completed, make one final MoveNext attempt and
//     resolve with its result.
//  5. Else suspend until notified or ctx is cancelled.
func (ac *AsyncCursor[K, V]) Next(ctx context.Context) (bool, error) {
	if ac.inner.MoveNext() {
		return true, nil
	}
	for {
		w := newWaiter()
		handle := ac.source.Subscribe(w)

		if ac.inner.MoveNext() {
			handle.Close()
			return true, nil
		}

		if ac.source.IsCompleted() {
			handle.Close()
			return ac.inner.MoveNext(), nil
		}

		select {
		case <-w.ready:
			handle.Close()
			if w.cancelled {
				return false, ErrCancelled
			}
			if ac.inner.MoveNext() {
				return true, nil
			}
			if ac.source.IsCompleted() {
				return false, nil
			}
			// Spurious wakeup (e.g. a write that didn't add keys
			// past our position): loop and wait again.
		case <-ctx.Done():
			handle.Close()
			return false, ErrCancelled
		}
	}
}

// waiter is a one-shot Subscriber: the first TryComplete call (forced
// or not) releases Next's select. A pending notification request is
// removed on cancellation by closing the Handle.
type waiter struct {
	ready     chan struct{}
	once      sync.Once
	cancelled bool
}

func newWaiter() *waiter {
	return &waiter{ready: make(chan struct{})}
}

func (w *waiter) TryComplete(force, cancel bool) {
	w.once.Do(func() {
		w.cancelled = cancel
		close(w.ready)
	})
}
