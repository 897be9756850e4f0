package series

// MapFunc transforms a (key, value) pair into a new value, preserving
// the key.
type MapFunc[K, V, V2 any] func(k K, v V) V2

type mapView[K, V, V2 any] struct {
	src Series[K, V]
	f   MapFunc[K, V, V2]
}

// Map applies f(k, v) to every element of src, preserving keys and
// order. The mapped value is computed lazily on access by the returned
// cursor, never eagerly for the whole series.
func Map[K, V, V2 any](src Series[K, V], f MapFunc[K, V, V2]) Series[K, V2] {
	return &mapView[K, V, V2]{src: src, f: f}
}

func (m *mapView[K, V, V2]) Comparer() Comparer[K]   { return m.src.Comparer() }
func (m *mapView[K, V, V2]) IsIndexed() bool         { return m.src.IsIndexed() }
func (m *mapView[K, V, V2]) IsCompleted() bool       { return m.src.IsCompleted() }
func (m *mapView[K, V, V2]) Version() uint64         { return m.src.Version() }
func (m *mapView[K, V, V2]) First() (K, V2, bool)    { return firstFromCursor[K, V2](m.Cursor()) }
func (m *mapView[K, V, V2]) Last() (K, V2, bool)     { return lastFromCursor[K, V2](m.Cursor()) }

func (m *mapView[K, V, V2]) Cursor() Cursor[K, V2] {
	return &mapCursor[K, V, V2]{inner: m.src.Cursor(), f: m.f}
}

type mapCursor[K, V, V2 any] struct {
	inner Cursor[K, V]
	f     MapFunc[K, V, V2]
}

func (c *mapCursor[K, V, V2]) MoveFirst() bool    { return c.inner.MoveFirst() }
func (c *mapCursor[K, V, V2]) MoveLast() bool     { return c.inner.MoveLast() }
func (c *mapCursor[K, V, V2]) MoveNext() bool     { return c.inner.MoveNext() }
func (c *mapCursor[K, V, V2]) MovePrevious() bool { return c.inner.MovePrevious() }
func (c *mapCursor[K, V, V2]) MoveAt(k K, dir Direction) bool {
	return c.inner.MoveAt(k, dir)
}

func (c *mapCursor[K, V, V2]) TryGetValue(k K) (V2, bool) {
	v, ok := c.inner.TryGetValue(k)
	if !ok {
		var zero V2
		return zero, false
	}
	return c.f(k, v), true
}

func (c *mapCursor[K, V, V2]) CurrentKey() K { return c.inner.CurrentKey() }
func (c *mapCursor[K, V, V2]) CurrentValue() V2 {
	k := c.inner.CurrentKey()
	return c.f(k, c.inner.CurrentValue())
}
func (c *mapCursor[K, V, V2]) State() State             { return c.inner.State() }
func (c *mapCursor[K, V, V2]) Comparer() Comparer[K]    { return c.inner.Comparer() }
func (c *mapCursor[K, V, V2]) IsContinuous() bool       { return c.inner.IsContinuous() }
func (c *mapCursor[K, V, V2]) Clone() Cursor[K, V2] {
	return &mapCursor[K, V, V2]{inner: c.inner.Clone(), f: c.f}
}
