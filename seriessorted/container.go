// Package seriessorted provides the shipped concrete implementation
// of series.MutableSeries backed by two parallel growable slices, one
// sorted (or insertion-ordered) by key. It is the direct descendant of
// the teacher pack's in-memory bucket (storage_mem.go's memBucket/
// memCursor), generalized from []byte/[]byte key-value pairs to
// generic K/V, and from a transactional snapshot-per-Tx model to the
// module's single-writer optimistic-version discipline
// (series.VersionLatch).
package seriessorted

import (
	"log/slog"
	"sort"

	series "github.com/chronocursor/seriesdb"
)

// Container is a sorted (or insertion-indexed) in-memory series. It
// implements series.MutableSeries[K,V] and series.Completable[K,V]
// directly; construct one with New or NewIndexed.
type Container[K, V any] struct {
	latch   series.VersionLatch
	cmp     series.Comparer[K]
	indexed bool
	keys    []K
	values  []V
	subs    *series.SubscriberSet
	pool    *series.NotifyPool
	logger  *slog.Logger
}

// New returns an empty Container sorted by cmp.
func New[K, V any](cmp series.Comparer[K], opts ...series.Option) *Container[K, V] {
	return newContainer[K, V](cmp, false, opts)
}

// NewIndexed returns an empty Container ordered by insertion rather
// than by key. cmp is still required: point lookups and TryGetValue
// use it for equality, only navigation order is insertion-based.
func NewIndexed[K, V any](cmp series.Comparer[K], opts ...series.Option) *Container[K, V] {
	return newContainer[K, V](cmp, true, opts)
}

func newContainer[K, V any](cmp series.Comparer[K], indexed bool, opts []series.Option) *Container[K, V] {
	cfg := series.NewConfig(opts...)
	c := &Container[K, V]{
		cmp:     cmp,
		indexed: indexed,
		subs:    series.NewSubscriberSet(),
		pool:    series.NewNotifyPool(cfg.NotifyConcurrency()),
		logger:  cfg.Logger(),
	}
	c.latch.Metrics = cfg.Metrics()
	return c
}

// Comparer returns the total order this container was constructed with.
func (c *Container[K, V]) Comparer() series.Comparer[K] { return c.cmp }

// IsIndexed reports whether this container is insertion-ordered.
func (c *Container[K, V]) IsIndexed() bool { return c.indexed }

// IsCompleted reports whether Complete has been called.
func (c *Container[K, V]) IsCompleted() bool { return c.latch.IsCompleted() }

// Version returns the current monotonic version counter.
func (c *Container[K, V]) Version() uint64 { return c.latch.Version() }

// First returns the smallest (or first-inserted, if indexed) element.
func (c *Container[K, V]) First() (k K, v V, ok bool) {
	return series.ReadOptimistic(&c.latch, func() kvResult[K, V] {
		if len(c.keys) == 0 {
			return kvResult[K, V]{}
		}
		return kvResult[K, V]{c.keys[0], c.values[0], true}
	}).split()
}

// Last returns the largest (or last-inserted, if indexed) element.
func (c *Container[K, V]) Last() (k K, v V, ok bool) {
	return series.ReadOptimistic(&c.latch, func() kvResult[K, V] {
		n := len(c.keys)
		if n == 0 {
			return kvResult[K, V]{}
		}
		return kvResult[K, V]{c.keys[n-1], c.values[n-1], true}
	}).split()
}

type kvResult[K, V any] struct {
	k  K
	v  V
	ok bool
}

func (p kvResult[K, V]) split() (K, V, bool) { return p.k, p.v, p.ok }

// Cursor returns a new, Uninitialized cursor over this container.
func (c *Container[K, V]) Cursor() series.Cursor[K, V] {
	return &containerCursor[K, V]{c: c, pos: -1}
}

// Subscribe registers sub for wakeups on the next mutation or
// completion, implementing series.Completable.
func (c *Container[K, V]) Subscribe(sub series.Subscriber) *series.Handle {
	return c.subs.Subscribe(sub)
}

// Stats reports the container's current slice length and capacity,
// mirroring the teacher's TableStats/bucketStats snapshot
// (monitoring.go), minus the byte-accounting fields that only made
// sense for the teacher's flat-encoded row format.
type Stats struct {
	Len int
	Cap int
}

// Stats returns a point-in-time snapshot of this container's storage.
func (c *Container[K, V]) Stats() Stats {
	return series.ReadOptimistic(&c.latch, func() Stats {
		return Stats{Len: len(c.keys), Cap: cap(c.keys)}
	})
}

// find returns the index of key in c.keys (sorted mode: binary search
// via sort.Search, matching the teacher's memBucketHandle.find;
// indexed mode: linear scan, since insertion order carries no
// ordering information to binary-search against).
func (c *Container[K, V]) find(key K) (idx int, ok bool) {
	if c.indexed {
		for i, k := range c.keys {
			if c.cmp.Compare(k, key) == 0 {
				return i, true
			}
		}
		return len(c.keys), false
	}
	i := sort.Search(len(c.keys), func(i int) bool {
		return c.cmp.Compare(c.keys[i], key) >= 0
	})
	if i < len(c.keys) && c.cmp.Compare(c.keys[i], key) == 0 {
		return i, true
	}
	return i, false
}
