package seriessorted

import (
	series "github.com/chronocursor/seriesdb"
)

// containerCursor navigates a Container by index into its parallel
// key/value slices, re-resolving its position against the live
// container on every access via series.ReadOptimistic, so a concurrent
// mutation never hands back a stale key/value pair.
type containerCursor[K, V any] struct {
	c           *Container[K, V]
	pos         int
	initialized bool
}

func (cur *containerCursor[K, V]) MoveFirst() bool {
	return series.ReadOptimistic(&cur.c.latch, func() bool {
		cur.initialized = true
		if len(cur.c.keys) == 0 {
			cur.pos = -1
			return false
		}
		cur.pos = 0
		return true
	})
}

func (cur *containerCursor[K, V]) MoveLast() bool {
	return series.ReadOptimistic(&cur.c.latch, func() bool {
		cur.initialized = true
		n := len(cur.c.keys)
		if n == 0 {
			cur.pos = n
			return false
		}
		cur.pos = n - 1
		return true
	})
}

func (cur *containerCursor[K, V]) MoveNext() bool {
	return series.ReadOptimistic(&cur.c.latch, func() bool {
		cur.initialized = true
		n := len(cur.c.keys)
		if cur.pos < 0 {
			cur.pos = 0
		} else {
			cur.pos++
		}
		return cur.pos < n
	})
}

func (cur *containerCursor[K, V]) MovePrevious() bool {
	return series.ReadOptimistic(&cur.c.latch, func() bool {
		cur.initialized = true
		n := len(cur.c.keys)
		if cur.pos > n {
			cur.pos = n
		}
		cur.pos--
		return cur.pos >= 0
	})
}

// MoveAt resolves k/dir against the live container. Sorted containers
// resolve via the binary-search insertion point (O(log n)); indexed
// containers fall back to a linear scan that still honors the
// comparer-defined notion of "nearest": an indexed series retains its
// Comparer for equality and directional lookups even though navigation
// order is insertion order.
func (cur *containerCursor[K, V]) MoveAt(k K, dir series.Direction) bool {
	return series.ReadOptimistic(&cur.c.latch, func() bool {
		cur.initialized = true
		if cur.c.indexed {
			return cur.moveAtIndexed(k, dir)
		}
		return cur.moveAtSorted(k, dir)
	})
}

func (cur *containerCursor[K, V]) moveAtSorted(k K, dir series.Direction) bool {
	c := cur.c
	i, exact := c.find(k)
	switch dir {
	case series.EQ:
		if !exact {
			cur.pos = -1
			return false
		}
		cur.pos = i
		return true
	case series.LT:
		cur.pos = i - 1
	case series.LE:
		if exact {
			cur.pos = i
		} else {
			cur.pos = i - 1
		}
	case series.GT:
		if exact {
			cur.pos = i + 1
		} else {
			cur.pos = i
		}
	case series.GE:
		cur.pos = i
	}
	if cur.pos < 0 || cur.pos >= len(c.keys) {
		return false
	}
	return true
}

func (cur *containerCursor[K, V]) moveAtIndexed(k K, dir series.Direction) bool {
	c := cur.c
	best := -1
	for i, candidate := range c.keys {
		cmp := c.cmp.Compare(candidate, k)
		switch dir {
		case series.EQ:
			if cmp == 0 {
				best = i
			}
		case series.LT:
			if cmp < 0 && (best < 0 || c.cmp.Compare(candidate, c.keys[best]) > 0) {
				best = i
			}
		case series.LE:
			if cmp <= 0 && (best < 0 || c.cmp.Compare(candidate, c.keys[best]) > 0) {
				best = i
			}
		case series.GT:
			if cmp > 0 && (best < 0 || c.cmp.Compare(candidate, c.keys[best]) < 0) {
				best = i
			}
		case series.GE:
			if cmp >= 0 && (best < 0 || c.cmp.Compare(candidate, c.keys[best]) < 0) {
				best = i
			}
		}
	}
	cur.pos = best
	return best >= 0
}

func (cur *containerCursor[K, V]) TryGetValue(k K) (V, bool) {
	return series.ReadOptimistic(&cur.c.latch, func() kvPoint[V] {
		i, ok := cur.c.find(k)
		if !ok {
			return kvPoint[V]{}
		}
		return kvPoint[V]{cur.c.values[i], true}
	}).split()
}

type kvPoint[V any] struct {
	v  V
	ok bool
}

func (p kvPoint[V]) split() (V, bool) { return p.v, p.ok }

func (cur *containerCursor[K, V]) CurrentKey() K {
	return series.ReadOptimistic(&cur.c.latch, func() K { return cur.c.keys[cur.pos] })
}

func (cur *containerCursor[K, V]) CurrentValue() V {
	return series.ReadOptimistic(&cur.c.latch, func() V { return cur.c.values[cur.pos] })
}

func (cur *containerCursor[K, V]) State() series.State {
	if !cur.initialized {
		return series.Uninitialized
	}
	return series.ReadOptimistic(&cur.c.latch, func() series.State {
		n := len(cur.c.keys)
		switch {
		case cur.pos < 0:
			return series.BeforeStart
		case cur.pos >= n:
			return series.AfterEnd
		default:
			return series.Positioned
		}
	})
}

func (cur *containerCursor[K, V]) Comparer() series.Comparer[K] { return cur.c.cmp }
func (cur *containerCursor[K, V]) IsContinuous() bool           { return false }
func (cur *containerCursor[K, V]) Clone() series.Cursor[K, V] {
	return &containerCursor[K, V]{c: cur.c, pos: cur.pos, initialized: cur.initialized}
}
