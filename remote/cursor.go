package remote

import (
	"context"

	series "github.com/chronocursor/seriesdb"
)

// chunkedCursor walks the chunk keys captured in idx at construction
// time, holding one inner series.Cursor[K,V] over the currently-loaded
// chunk. Crossing a chunk boundary loads the neighboring chunk through
// the facade's cache. initialized and side track navigation state the
// same way seriessorted.containerCursor's pos sentinel does: a cursor
// that has moved but landed on neither a loaded chunk nor a next/prev
// neighbor still needs to report BeforeStart or AfterEnd, not
// Uninitialized.
type chunkedCursor[K, V any] struct {
	cs          *ChunkedSeries[K, V]
	idx         *chunkIndex
	chunkPos    int // index into idx.keys of the chunk `inner` is over, -1 if none loaded
	inner       series.Cursor[K, V]
	initialized bool
	side        series.State // BeforeStart or AfterEnd when inner == nil and initialized
}

func (c *chunkedCursor[K, V]) loadChunkAt(i int) bool {
	if i < 0 || i >= len(c.idx.keys) {
		c.inner = nil
		return false
	}
	chunk, err := c.cs.loadChunk(context.Background(), c.idx.keys[i])
	if err != nil {
		c.inner = nil
		return false
	}
	c.chunkPos = i
	c.inner = chunk.Cursor()
	return true
}

func (c *chunkedCursor[K, V]) MoveFirst() bool {
	c.initialized = true
	if len(c.idx.keys) == 0 {
		c.inner = nil
		c.side = series.BeforeStart
		return false
	}
	if !c.loadChunkAt(0) {
		c.side = series.BeforeStart
		return false
	}
	return c.inner.MoveFirst()
}

func (c *chunkedCursor[K, V]) MoveLast() bool {
	c.initialized = true
	n := len(c.idx.keys)
	if n == 0 {
		c.inner = nil
		c.side = series.AfterEnd
		return false
	}
	if !c.loadChunkAt(n - 1) {
		c.side = series.AfterEnd
		return false
	}
	return c.inner.MoveLast()
}

func (c *chunkedCursor[K, V]) MoveNext() bool {
	c.initialized = true
	if c.inner == nil {
		if c.side == series.AfterEnd {
			return false
		}
		return c.MoveFirst()
	}
	if c.inner.MoveNext() {
		return true
	}
	// inner is now AfterEnd within its own chunk; only cross into the
	// next chunk if one exists, otherwise leave inner's AfterEnd state
	// as this cursor's reported state.
	if c.chunkPos+1 >= len(c.idx.keys) {
		return false
	}
	if !c.loadChunkAt(c.chunkPos + 1) {
		c.side = series.AfterEnd
		return false
	}
	return c.inner.MoveFirst()
}

func (c *chunkedCursor[K, V]) MovePrevious() bool {
	c.initialized = true
	if c.inner == nil {
		if c.side == series.BeforeStart {
			return false
		}
		return c.MoveLast()
	}
	if c.inner.MovePrevious() {
		return true
	}
	if c.chunkPos-1 < 0 {
		return false
	}
	if !c.loadChunkAt(c.chunkPos - 1) {
		c.side = series.BeforeStart
		return false
	}
	return c.inner.MoveLast()
}

func (c *chunkedCursor[K, V]) MoveAt(k K, dir series.Direction) bool {
	c.initialized = true
	i, _, ok := chunkForKey(c.idx, chunkKeyFor(c.cs.cmp, k))
	if !ok {
		c.inner = nil
		if dir == series.GT || dir == series.GE {
			c.side = series.BeforeStart
			return c.MoveFirst()
		}
		c.side = series.BeforeStart
		return false
	}
	if !c.loadChunkAt(i) {
		c.side = series.BeforeStart
		return false
	}
	if c.inner.MoveAt(k, dir) {
		return true
	}
	// inner is loaded and non-nil here regardless of outcome: its own
	// MoveAt already positioned it BeforeStart/AfterEnd within its
	// chunk on a miss, so State() delegates to it correctly without
	// consulting side unless crossing a chunk boundary leaves c.inner nil.
	switch dir {
	case series.LT, series.LE:
		return c.MovePrevious()
	case series.GT, series.GE:
		return c.MoveNext()
	default:
		return false
	}
}

func (c *chunkedCursor[K, V]) TryGetValue(k K) (v V, ok bool) {
	_, chunkKey, found := chunkForKey(c.idx, chunkKeyFor(c.cs.cmp, k))
	if !found {
		return v, false
	}
	chunk, err := c.cs.loadChunk(context.Background(), chunkKey)
	if err != nil {
		return v, false
	}
	return chunk.Cursor().TryGetValue(k)
}

func (c *chunkedCursor[K, V]) CurrentKey() K   { return c.inner.CurrentKey() }
func (c *chunkedCursor[K, V]) CurrentValue() V { return c.inner.CurrentValue() }

func (c *chunkedCursor[K, V]) State() series.State {
	if !c.initialized {
		return series.Uninitialized
	}
	if c.inner == nil {
		return c.side
	}
	return c.inner.State()
}

func (c *chunkedCursor[K, V]) Comparer() series.Comparer[K] { return c.cs.cmp }
func (c *chunkedCursor[K, V]) IsContinuous() bool           { return false }

func (c *chunkedCursor[K, V]) Clone() series.Cursor[K, V] {
	clone := &chunkedCursor[K, V]{cs: c.cs, idx: c.idx, chunkPos: c.chunkPos, initialized: c.initialized, side: c.side}
	if c.inner != nil {
		clone.inner = c.inner.Clone()
	}
	return clone
}
