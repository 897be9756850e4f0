package series

// FilterFunc decides whether a (key, value) pair survives a Filter.
type FilterFunc[K, V any] func(k K, v V) bool

type filterView[K, V any] struct {
	src  Series[K, V]
	pred FilterFunc[K, V]
}

// Filter skips keys whose value fails pred, preserving the order and
// key type of src. Filter always makes IsContinuous false: a filtered
// cursor does not yield a value for every key, by definition.
func Filter[K, V any](src Series[K, V], pred FilterFunc[K, V]) Series[K, V] {
	return &filterView[K, V]{src: src, pred: pred}
}

func (f *filterView[K, V]) Comparer() Comparer[K] { return f.src.Comparer() }
func (f *filterView[K, V]) IsIndexed() bool       { return f.src.IsIndexed() }
func (f *filterView[K, V]) IsCompleted() bool     { return f.src.IsCompleted() }
func (f *filterView[K, V]) Version() uint64       { return f.src.Version() }
func (f *filterView[K, V]) First() (K, V, bool)   { return firstFromCursor(f.Cursor()) }
func (f *filterView[K, V]) Last() (K, V, bool)    { return lastFromCursor(f.Cursor()) }

func (f *filterView[K, V]) Cursor() Cursor[K, V] {
	return &filterCursor[K, V]{inner: f.src.Cursor(), pred: f.pred}
}

type filterCursor[K, V any] struct {
	inner Cursor[K, V]
	pred  FilterFunc[K, V]
}

func (c *filterCursor[K, V]) matches() bool {
	return c.inner.State() == Positioned && c.pred(c.inner.CurrentKey(), c.inner.CurrentValue())
}

func (c *filterCursor[K, V]) MoveFirst() bool {
	ok := c.inner.MoveFirst()
	for ok && !c.matches() {
		ok = c.inner.MoveNext()
	}
	return ok
}

func (c *filterCursor[K, V]) MoveLast() bool {
	ok := c.inner.MoveLast()
	for ok && !c.matches() {
		ok = c.inner.MovePrevious()
	}
	return ok
}

func (c *filterCursor[K, V]) MoveNext() bool {
	ok := c.inner.MoveNext()
	for ok && !c.matches() {
		ok = c.inner.MoveNext()
	}
	return ok
}

func (c *filterCursor[K, V]) MovePrevious() bool {
	ok := c.inner.MovePrevious()
	for ok && !c.matches() {
		ok = c.inner.MovePrevious()
	}
	return ok
}

// MoveAt respects dir: when the candidate the inner cursor lands on
// fails pred, it continues scanning in the requested direction. EQ has
// no scan direction, so a failing exact match is simply a miss.
func (c *filterCursor[K, V]) MoveAt(k K, dir Direction) bool {
	ok := c.inner.MoveAt(k, dir)
	for ok && !c.matches() {
		switch {
		case dir == EQ:
			return false
		case dir.forward():
			ok = c.inner.MoveNext()
		default:
			ok = c.inner.MovePrevious()
		}
	}
	return ok
}

func (c *filterCursor[K, V]) TryGetValue(k K) (V, bool) {
	v, ok := c.inner.TryGetValue(k)
	if !ok || !c.pred(k, v) {
		var zero V
		return zero, false
	}
	return v, true
}

func (c *filterCursor[K, V]) CurrentKey() K         { return c.inner.CurrentKey() }
func (c *filterCursor[K, V]) CurrentValue() V       { return c.inner.CurrentValue() }
func (c *filterCursor[K, V]) State() State          { return c.inner.State() }
func (c *filterCursor[K, V]) Comparer() Comparer[K] { return c.inner.Comparer() }
func (c *filterCursor[K, V]) IsContinuous() bool    { return false }
func (c *filterCursor[K, V]) Clone() Cursor[K, V] {
	return &filterCursor[K, V]{inner: c.inner.Clone(), pred: c.pred}
}
