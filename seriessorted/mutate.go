package seriessorted

import (
	"fmt"
	"slices"

	series "github.com/chronocursor/seriesdb"
)

// insertAt splices k=v into position i. slices.Insert already grows
// the backing array geometrically, the generic-slice equivalent of
// byteutil.go's ensureCapacity/grow doubling idiom.
func (c *Container[K, V]) insertAt(i int, k K, v V) {
	c.keys = slices.Insert(c.keys, i, k)
	c.values = slices.Insert(c.values, i, v)
}

// removeAt deletes the element at i and returns it. slices.Delete
// zeroes the vacated tail slot itself, matching the teacher's
// memBucketHandle.Delete array-shift idiom (storage_mem.go) without
// needing a separate explicit-zero step.
func (c *Container[K, V]) removeAt(i int) (k K, v V) {
	k, v = c.keys[i], c.values[i]
	c.keys = slices.Delete(c.keys, i, i+1)
	c.values = slices.Delete(c.values, i, i+1)
	return k, v
}

// fmtEqual compares two values of the same type via their formatted
// representation, used only as TryAppend's fallback equality check
// when the caller didn't supply one; exact numeric/string/time
// equality round-trips cleanly through %v, which covers every value
// type this module ships combinators for.
func fmtEqual[V any](a, b V) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// notify wakes every live subscriber via the container's bounded pool
// so writers never block on slow subscribers.
func (c *Container[K, V]) notify(force bool) {
	n := c.subs.NotifyAll(force, c.pool.Submit)
	c.latch.RecordNotification(uint64(n))
	if n > 0 {
		c.logger.Debug("seriessorted: notified subscribers", "count", n, "forced", force)
	}
}

// TryAdd inserts k=v, failing if k is already present. err is
// non-nil (wrapping series.ErrCompleted) iff the container had
// already been completed; a duplicate-key failure returns false, nil.
func (c *Container[K, V]) TryAdd(k K, v V) (bool, error) {
	_, err := c.latch.BeginWrite("TryAdd")
	if err != nil {
		return false, err
	}
	i, exact := c.find(k)
	if exact {
		c.latch.CommitWrite(false)
		return false, nil
	}
	c.insertAt(i, k, v)
	c.latch.CommitWrite(true)
	c.notify(false)
	return true, nil
}

// TryAddFirst inserts k=v, failing unless k is strictly smaller than
// the current first key (or the container is empty). Indexed
// containers reject this call outright: "first" is meaningless when
// order is insertion-defined, not key-defined.
func (c *Container[K, V]) TryAddFirst(k K, v V) (bool, error) {
	if c.indexed {
		return false, nil
	}
	_, err := c.latch.BeginWrite("TryAddFirst")
	if err != nil {
		return false, err
	}
	if len(c.keys) > 0 && c.cmp.Compare(k, c.keys[0]) >= 0 {
		c.latch.CommitWrite(false)
		return false, nil
	}
	c.insertAt(0, k, v)
	c.latch.CommitWrite(true)
	c.notify(false)
	return true, nil
}

// TryAddLast inserts k=v, failing unless k is strictly larger than the
// current last key (or the container is empty). For an indexed
// container, "last" is insertion order, so this degrades to a plain
// unconditional append.
func (c *Container[K, V]) TryAddLast(k K, v V) (bool, error) {
	_, err := c.latch.BeginWrite("TryAddLast")
	if err != nil {
		return false, err
	}
	n := len(c.keys)
	if !c.indexed && n > 0 && c.cmp.Compare(k, c.keys[n-1]) <= 0 {
		c.latch.CommitWrite(false)
		return false, nil
	}
	c.insertAt(n, k, v)
	c.latch.CommitWrite(true)
	c.notify(false)
	return true, nil
}

// Set inserts or replaces k=v, returning true iff a new key was
// inserted.
func (c *Container[K, V]) Set(k K, v V) (bool, error) {
	_, err := c.latch.BeginWrite("Set")
	if err != nil {
		return false, err
	}
	i, exact := c.find(k)
	inserted := !exact
	if exact {
		c.values[i] = v
	} else {
		c.insertAt(i, k, v)
	}
	c.latch.CommitWrite(true)
	c.notify(false)
	return inserted, nil
}

// TryRemove removes k, returning its value if present.
func (c *Container[K, V]) TryRemove(k K) (v V, ok bool, err error) {
	_, err = c.latch.BeginWrite("TryRemove")
	if err != nil {
		return v, false, err
	}
	i, exact := c.find(k)
	if !exact {
		c.latch.CommitWrite(false)
		return v, false, nil
	}
	_, v = c.removeAt(i)
	c.latch.CommitWrite(true)
	c.notify(false)
	return v, true, nil
}

// TryRemoveFirst removes and returns the smallest (or first-inserted,
// if indexed) element.
func (c *Container[K, V]) TryRemoveFirst() (k K, v V, ok bool, err error) {
	_, err = c.latch.BeginWrite("TryRemoveFirst")
	if err != nil {
		return k, v, false, err
	}
	if len(c.keys) == 0 {
		c.latch.CommitWrite(false)
		return k, v, false, nil
	}
	k, v = c.removeAt(0)
	c.latch.CommitWrite(true)
	c.notify(false)
	return k, v, true, nil
}

// TryRemoveLast removes and returns the largest (or last-inserted, if
// indexed) element.
func (c *Container[K, V]) TryRemoveLast() (k K, v V, ok bool, err error) {
	_, err = c.latch.BeginWrite("TryRemoveLast")
	if err != nil {
		return k, v, false, err
	}
	n := len(c.keys)
	if n == 0 {
		c.latch.CommitWrite(false)
		return k, v, false, nil
	}
	k, v = c.removeAt(n - 1)
	c.latch.CommitWrite(true)
	c.notify(false)
	return k, v, true, nil
}

// TryRemoveMany bulk-removes the half-range selected by dir relative
// to k, reporting why a non-EQ pivot missed via reason (series.MissNone
// on success). Only meaningful for sorted containers: an indexed
// container has no contiguous "side" of a pivot to drop in one slice
// operation, so it rejects every dir but EQ.
func (c *Container[K, V]) TryRemoveMany(k K, dir series.Direction) (count int, ok bool, reason series.MissReason, err error) {
	_, err = c.latch.BeginWrite("TryRemoveMany")
	if err != nil {
		return 0, false, series.MissNone, err
	}
	if len(c.keys) == 0 {
		c.latch.CommitWrite(false)
		return 0, false, series.MissEmpty, nil
	}
	if c.indexed && dir != series.EQ {
		c.latch.CommitWrite(false)
		return 0, false, series.MissNone, nil
	}

	i, exact := c.find(k)
	var lo, hi int // half-open [lo, hi) range to delete
	switch dir {
	case series.EQ:
		if !exact {
			c.latch.CommitWrite(false)
			return 0, false, classifyMiss(c, k), nil
		}
		lo, hi = i, i+1
	case series.LT:
		lo, hi = 0, i
	case series.LE:
		if exact {
			lo, hi = 0, i+1
		} else {
			lo, hi = 0, i
		}
	case series.GT:
		if exact {
			lo, hi = i+1, len(c.keys)
		} else {
			lo, hi = i, len(c.keys)
		}
	case series.GE:
		lo, hi = i, len(c.keys)
	}
	if lo >= hi {
		c.latch.CommitWrite(false)
		return 0, false, classifyMiss(c, k), nil
	}
	c.keys = slices.Delete(c.keys, lo, hi)
	c.values = slices.Delete(c.values, lo, hi)
	n := hi - lo
	c.latch.CommitWrite(true)
	c.notify(false)
	return n, true, series.MissNone, nil
}

// classifyMiss refines why a pivot produced an empty removal range,
// per series.MissReason's contract. Requires c.keys non-empty.
func classifyMiss[K, V any](c *Container[K, V], k K) series.MissReason {
	switch {
	case c.cmp.Compare(k, c.keys[0]) < 0:
		return series.MissBelowRange
	case c.cmp.Compare(k, c.keys[len(c.keys)-1]) > 0:
		return series.MissAboveRange
	default:
		return series.MissWithinRangeMissing
	}
}

// Complete performs the one-way transition to IsCompleted() == true,
// forcing a final notification round so any subscriber blocked waiting
// for more data wakes up and observes completion.
func (c *Container[K, V]) Complete() {
	c.latch.Complete()
	c.logger.Debug("seriessorted: container completed")
	c.notify(true)
}

// TryAppend appends other's content per option. other is drained
// via a plain Cursor walk; for large appends callers may prefer a
// purpose-built bulk loader over this series-to-series generality.
func (c *Container[K, V]) TryAppend(other series.Series[K, V], option series.AppendOption) (count int, err error) {
	pairs := series.ToSlice(other.Cursor())
	if len(pairs) == 0 {
		return 0, nil
	}

	_, werr := c.latch.BeginWrite("TryAppend")
	if werr != nil {
		return 0, werr
	}

	start := 0
	if !c.indexed && len(c.keys) > 0 {
		last := c.keys[len(c.keys)-1]
		switch option {
		case series.RejectOnOverlap:
			if c.cmp.Compare(pairs[0].Key, last) <= 0 {
				c.latch.CommitWrite(false)
				return 0, &series.OverlapError{Op: "TryAppend", Reason: "RejectOnOverlap", ThisEnd: anyKey(last), OtherStart: anyKey(pairs[0].Key)}
			}
		case series.DropOldOverlap:
			cut, _ := c.find(pairs[0].Key)
			c.keys = c.keys[:cut]
			c.values = c.values[:cut]
		case series.IgnoreEqualOverlap, series.RequireEqualOverlap:
			overlapped := false
			for start < len(pairs) && c.cmp.Compare(pairs[start].Key, last) <= 0 {
				i, exact := c.find(pairs[start].Key)
				if !exact || !equalValue(c.values[i], pairs[start].Value) {
					c.latch.CommitWrite(false)
					return 0, &series.OverlapError{Op: "TryAppend", Reason: "mismatched overlap", ThisEnd: anyKey(last), OtherStart: anyKey(pairs[start].Key)}
				}
				overlapped = true
				start++
			}
			if option == series.RequireEqualOverlap && !overlapped {
				c.latch.CommitWrite(false)
				return 0, &series.OverlapError{Op: "TryAppend", Reason: "RequireEqualOverlap: no overlap", ThisEnd: anyKey(last)}
			}
		}
	}

	for _, p := range pairs[start:] {
		c.keys = append(c.keys, p.Key)
		c.values = append(c.values, p.Value)
	}
	n := len(pairs) - start
	c.latch.CommitWrite(n > 0)
	if n > 0 {
		c.notify(false)
	}
	return n, nil
}

func anyKey[K any](k K) any { return k }

// equalValue compares via %v since V carries no required Comparer;
// callers relying on IgnoreEqualOverlap/RequireEqualOverlap with a
// value type that does not support meaningful equality should prefer
// RejectOnOverlap or DropOldOverlap instead.
func equalValue[V any](a, b V) bool {
	return fmtEqual(a, b)
}
