package series

import (
	"runtime"
	"sync/atomic"
)

// VersionLatch implements a single-writer spin-latch with optimistic
// versioning: one in-flight mutation at a time, readers retrying
// across concurrent writes rather than blocking. Exported so
// seriessorted.Container can embed the same discipline rather than
// reimplementing it.
type VersionLatch struct {
	locked      atomic.Uint32
	version     atomic.Uint64
	nextVersion atomic.Uint64
	completed   atomic.Bool
	Metrics     *Metrics
}

// Version returns the last published version.
func (l *VersionLatch) Version() uint64 { return l.version.Load() }

// IsCompleted reports whether Complete has been called.
func (l *VersionLatch) IsCompleted() bool { return l.completed.Load() }

// BeginWrite spin-acquires the latch, then increments nextVersion.
// Returns the new next_version so the caller can detect races against
// concurrent reads. Returns ErrCompleted if the series is already
// completed: a mutation attempted after completion is surfaced as a
// terminal error, not retried.
func (l *VersionLatch) BeginWrite(op string) (nextVersion uint64, err error) {
	if l.completed.Load() {
		return 0, completedErr(op)
	}
	for !l.locked.CompareAndSwap(0, 1) {
		l.Metrics.recordWriteConflict()
		runtime.Gosched()
	}
	if l.completed.Load() {
		l.locked.Store(0)
		return 0, completedErr(op)
	}
	return l.nextVersion.Add(1), nil
}

// CommitWrite publishes next_version as version when changed is true,
// or rolls next_version back to version otherwise, then releases the
// latch.
func (l *VersionLatch) CommitWrite(changed bool) {
	if changed {
		l.version.Store(l.nextVersion.Load())
		l.Metrics.recordMutation()
	} else {
		l.nextVersion.Store(l.version.Load())
	}
	l.locked.Store(0)
}

// RecordNotification feeds n (the number of subscribers a mutation
// just dispatched a wakeup to) into the latch's Metrics, letting
// seriessorted.Container report notification counts without reaching
// into Metrics' unexported recorder methods directly.
func (l *VersionLatch) RecordNotification(n uint64) {
	l.Metrics.recordNotification(n)
}

// Complete performs the one-way transition to completed, itself under
// the write latch so it linearizes with any in-flight mutation.
func (l *VersionLatch) Complete() {
	for !l.locked.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
	l.completed.Store(true)
	l.locked.Store(0)
}

// ReadOptimistic runs an optimistic read: it samples version before
// fn, runs fn, samples next_version after, and retries fn if a write
// was in flight during the read window. fn must be idempotent and
// side-effect free, since it may run more than once.
func ReadOptimistic[T any](l *VersionLatch, fn func() T) T {
	spins := 0
	for {
		before := l.version.Load()
		result := fn()
		after := l.nextVersion.Load()
		if before == after {
			return result
		}
		spins++
		l.Metrics.recordReadRetry()
		if spins > 4 {
			runtime.Gosched()
		}
	}
}
