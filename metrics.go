package series

import "sync/atomic"

// Metrics holds the atomic counters published by containers and
// async cursors, ported from the teacher's DB.ReaderCount/WriterCount/
// ReadCount/WriteCount idiom (db.go) and generalized to the series
// write-latch/notify/retry events this module actually has.
type Metrics struct {
	Mutations     atomic.Uint64
	Notifications atomic.Uint64
	ReadRetries   atomic.Uint64
	WriteConflict atomic.Uint64
}

// NewMetrics returns a fresh, independent Metrics.
func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) recordMutation() {
	if m != nil {
		m.Mutations.Add(1)
	}
}

func (m *Metrics) recordNotification(n uint64) {
	if m != nil {
		m.Notifications.Add(n)
	}
}

func (m *Metrics) recordReadRetry() {
	if m != nil {
		m.ReadRetries.Add(1)
	}
}

func (m *Metrics) recordWriteConflict() {
	if m != nil {
		m.WriteConflict.Add(1)
	}
}

// Snapshot is a point-in-time copy of Metrics' counters, mirroring
// the teacher's TableStats snapshot-not-live-pointer convention
// (monitoring.go).
type Snapshot struct {
	Mutations     uint64
	Notifications uint64
	ReadRetries   uint64
	WriteConflict uint64
}

// Snapshot reads all counters without synchronizing them against
// each other (each is read with its own atomic load).
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Mutations:     m.Mutations.Load(),
		Notifications: m.Notifications.Load(),
		ReadRetries:   m.ReadRetries.Load(),
		WriteConflict: m.WriteConflict.Load(),
	}
}
