package series

// ZipPair is the aligned-value result type produced by Zip, kept
// distinct from Pair because both values share key K.
type ZipPair[V1, V2 any] struct {
	Left  V1
	Right V2
}

type zipView[K, V1, V2 any] struct {
	left  Series[K, V1]
	right Series[K, V2]
}

// Zip aligns left and right by key and yields ZipPair{left, right} for
// every key present in both. A cursor whose IsContinuous is
// true (e.g. a repeat/constant view) never drives the walk: Zip always
// steps the discrete side and samples the continuous side with
// TryGetValue, so a continuous series behaves like a function evaluated
// at each of the other side's keys rather than a series with its own
// key set. When both sides are continuous, Zip degrades to driving off
// the left cursor, since there is no discrete key set to prefer.
func Zip[K, V1, V2 any](left Series[K, V1], right Series[K, V2]) Series[K, ZipPair[V1, V2]] {
	return &zipView[K, V1, V2]{left: left, right: right}
}

func (z *zipView[K, V1, V2]) Comparer() Comparer[K] { return z.left.Comparer() }
func (z *zipView[K, V1, V2]) IsIndexed() bool       { return false }
func (z *zipView[K, V1, V2]) IsCompleted() bool {
	return z.left.IsCompleted() && z.right.IsCompleted()
}
func (z *zipView[K, V1, V2]) Version() uint64 {
	return z.left.Version() + z.right.Version()
}
func (z *zipView[K, V1, V2]) First() (K, ZipPair[V1, V2], bool) {
	return firstFromCursor[K, ZipPair[V1, V2]](z.Cursor())
}
func (z *zipView[K, V1, V2]) Last() (K, ZipPair[V1, V2], bool) {
	return lastFromCursor[K, ZipPair[V1, V2]](z.Cursor())
}

func (z *zipView[K, V1, V2]) Cursor() Cursor[K, ZipPair[V1, V2]] {
	lc, rc := z.left.Cursor(), z.right.Cursor()
	switch {
	case !lc.IsContinuous() && !rc.IsContinuous():
		return &zipMergeCursor[K, V1, V2]{left: lc, right2: rc, cmp: z.left.Comparer()}
	case !rc.IsContinuous():
		// right is discrete (or neither continuous handled above); drive off right.
		return &zipRightDrivenCursor[K, V1, V2]{driver: rc, sampled: lc}
	default:
		// left is discrete, or both are continuous: drive off left.
		return &zipLeftDrivenCursor[K, V1, V2]{driver: lc, sampled: rc}
	}
}

// zipMergeCursor implements the neither-continuous case: a classic
// sorted merge-align, advancing whichever side is behind until both
// land on the same key.
type zipMergeCursor[K, V1, V2 any] struct {
	left       Cursor[K, V1]
	right2     Cursor[K, V2]
	cmp        Comparer[K]
	positioned bool
}

func (c *zipMergeCursor[K, V1, V2]) align(lok, rok bool) bool {
	for lok && rok {
		cmp := c.cmp.Compare(c.left.CurrentKey(), c.right2.CurrentKey())
		switch {
		case cmp == 0:
			c.positioned = true
			return true
		case cmp < 0:
			lok = c.left.MoveNext()
		default:
			rok = c.right2.MoveNext()
		}
	}
	c.positioned = false
	return false
}

func (c *zipMergeCursor[K, V1, V2]) MoveFirst() bool {
	return c.align(c.left.MoveFirst(), c.right2.MoveFirst())
}
func (c *zipMergeCursor[K, V1, V2]) MoveLast() bool {
	lok, rok := c.left.MoveLast(), c.right2.MoveLast()
	for lok && rok {
		cmp := c.cmp.Compare(c.left.CurrentKey(), c.right2.CurrentKey())
		switch {
		case cmp == 0:
			c.positioned = true
			return true
		case cmp > 0:
			lok = c.left.MovePrevious()
		default:
			rok = c.right2.MovePrevious()
		}
	}
	c.positioned = false
	return false
}
func (c *zipMergeCursor[K, V1, V2]) MoveNext() bool {
	return c.align(c.left.MoveNext(), c.right2.MoveNext())
}
func (c *zipMergeCursor[K, V1, V2]) MovePrevious() bool {
	lok, rok := c.left.MovePrevious(), c.right2.MovePrevious()
	for lok && rok {
		cmp := c.cmp.Compare(c.left.CurrentKey(), c.right2.CurrentKey())
		switch {
		case cmp == 0:
			c.positioned = true
			return true
		case cmp > 0:
			lok = c.left.MovePrevious()
		default:
			rok = c.right2.MovePrevious()
		}
	}
	c.positioned = false
	return false
}
func (c *zipMergeCursor[K, V1, V2]) MoveAt(k K, dir Direction) bool {
	lok := c.left.MoveAt(k, dir)
	rok := c.right2.MoveAt(k, dir)
	if dir == EQ {
		if lok && rok && c.cmp.Compare(c.left.CurrentKey(), c.right2.CurrentKey()) == 0 {
			c.positioned = true
			return true
		}
		c.positioned = false
		return false
	}
	return c.align(lok, rok)
}
func (c *zipMergeCursor[K, V1, V2]) TryGetValue(k K) (ZipPair[V1, V2], bool) {
	lv, lok := c.left.TryGetValue(k)
	if !lok {
		var zero ZipPair[V1, V2]
		return zero, false
	}
	rv, rok := c.right2.TryGetValue(k)
	if !rok {
		var zero ZipPair[V1, V2]
		return zero, false
	}
	return ZipPair[V1, V2]{lv, rv}, true
}
func (c *zipMergeCursor[K, V1, V2]) CurrentKey() K { return c.left.CurrentKey() }
func (c *zipMergeCursor[K, V1, V2]) CurrentValue() ZipPair[V1, V2] {
	return ZipPair[V1, V2]{c.left.CurrentValue(), c.right2.CurrentValue()}
}
func (c *zipMergeCursor[K, V1, V2]) State() State {
	if c.positioned {
		return Positioned
	}
	return c.left.State()
}
func (c *zipMergeCursor[K, V1, V2]) Comparer() Comparer[K] { return c.cmp }
func (c *zipMergeCursor[K, V1, V2]) IsContinuous() bool    { return false }
func (c *zipMergeCursor[K, V1, V2]) Clone() Cursor[K, ZipPair[V1, V2]] {
	return &zipMergeCursor[K, V1, V2]{left: c.left.Clone(), right2: c.right2.Clone(), cmp: c.cmp, positioned: c.positioned}
}

// zipLeftDrivenCursor drives navigation from the left cursor and
// samples right with TryGetValue at each key left lands on. Used when
// right is continuous (or both sides are, as the arbitrary tie-break).
type zipLeftDrivenCursor[K, V1, V2 any] struct {
	driver  Cursor[K, V1]
	sampled Cursor[K, V2]
}

func (c *zipLeftDrivenCursor[K, V1, V2]) currentPair() (ZipPair[V1, V2], bool) {
	sv, ok := c.sampled.TryGetValue(c.driver.CurrentKey())
	if !ok {
		var zero ZipPair[V1, V2]
		return zero, false
	}
	return ZipPair[V1, V2]{c.driver.CurrentValue(), sv}, true
}

func (c *zipLeftDrivenCursor[K, V1, V2]) MoveFirst() bool    { return c.driver.MoveFirst() }
func (c *zipLeftDrivenCursor[K, V1, V2]) MoveLast() bool     { return c.driver.MoveLast() }
func (c *zipLeftDrivenCursor[K, V1, V2]) MoveNext() bool     { return c.driver.MoveNext() }
func (c *zipLeftDrivenCursor[K, V1, V2]) MovePrevious() bool { return c.driver.MovePrevious() }
func (c *zipLeftDrivenCursor[K, V1, V2]) MoveAt(k K, dir Direction) bool {
	return c.driver.MoveAt(k, dir)
}
func (c *zipLeftDrivenCursor[K, V1, V2]) TryGetValue(k K) (ZipPair[V1, V2], bool) {
	dv, ok := c.driver.TryGetValue(k)
	if !ok {
		var zero ZipPair[V1, V2]
		return zero, false
	}
	sv, ok := c.sampled.TryGetValue(k)
	if !ok {
		var zero ZipPair[V1, V2]
		return zero, false
	}
	return ZipPair[V1, V2]{dv, sv}, true
}
func (c *zipLeftDrivenCursor[K, V1, V2]) CurrentKey() K { return c.driver.CurrentKey() }
func (c *zipLeftDrivenCursor[K, V1, V2]) CurrentValue() ZipPair[V1, V2] {
	p, ok := c.currentPair()
	if !ok {
		invariantViolation("zip: sampled side has no value at driven key")
	}
	return p
}
func (c *zipLeftDrivenCursor[K, V1, V2]) State() State          { return c.driver.State() }
func (c *zipLeftDrivenCursor[K, V1, V2]) Comparer() Comparer[K] { return c.driver.Comparer() }
func (c *zipLeftDrivenCursor[K, V1, V2]) IsContinuous() bool    { return c.driver.IsContinuous() }
func (c *zipLeftDrivenCursor[K, V1, V2]) Clone() Cursor[K, ZipPair[V1, V2]] {
	return &zipLeftDrivenCursor[K, V1, V2]{driver: c.driver.Clone(), sampled: c.sampled.Clone()}
}

// zipRightDrivenCursor is the mirror image of zipLeftDrivenCursor,
// used when left is continuous and right is not.
type zipRightDrivenCursor[K, V1, V2 any] struct {
	driver  Cursor[K, V2]
	sampled Cursor[K, V1]
}

func (c *zipRightDrivenCursor[K, V1, V2]) currentPair() (ZipPair[V1, V2], bool) {
	sv, ok := c.sampled.TryGetValue(c.driver.CurrentKey())
	if !ok {
		var zero ZipPair[V1, V2]
		return zero, false
	}
	return ZipPair[V1, V2]{sv, c.driver.CurrentValue()}, true
}

func (c *zipRightDrivenCursor[K, V1, V2]) MoveFirst() bool    { return c.driver.MoveFirst() }
func (c *zipRightDrivenCursor[K, V1, V2]) MoveLast() bool     { return c.driver.MoveLast() }
func (c *zipRightDrivenCursor[K, V1, V2]) MoveNext() bool     { return c.driver.MoveNext() }
func (c *zipRightDrivenCursor[K, V1, V2]) MovePrevious() bool { return c.driver.MovePrevious() }
func (c *zipRightDrivenCursor[K, V1, V2]) MoveAt(k K, dir Direction) bool {
	return c.driver.MoveAt(k, dir)
}
func (c *zipRightDrivenCursor[K, V1, V2]) TryGetValue(k K) (ZipPair[V1, V2], bool) {
	dv, ok := c.driver.TryGetValue(k)
	if !ok {
		var zero ZipPair[V1, V2]
		return zero, false
	}
	sv, ok := c.sampled.TryGetValue(k)
	if !ok {
		var zero ZipPair[V1, V2]
		return zero, false
	}
	return ZipPair[V1, V2]{sv, dv}, true
}
func (c *zipRightDrivenCursor[K, V1, V2]) CurrentKey() K { return c.driver.CurrentKey() }
func (c *zipRightDrivenCursor[K, V1, V2]) CurrentValue() ZipPair[V1, V2] {
	p, ok := c.currentPair()
	if !ok {
		invariantViolation("zip: sampled side has no value at driven key")
	}
	return p
}
func (c *zipRightDrivenCursor[K, V1, V2]) State() State          { return c.driver.State() }
func (c *zipRightDrivenCursor[K, V1, V2]) Comparer() Comparer[K] { return c.driver.Comparer() }
func (c *zipRightDrivenCursor[K, V1, V2]) IsContinuous() bool    { return c.driver.IsContinuous() }
func (c *zipRightDrivenCursor[K, V1, V2]) Clone() Cursor[K, ZipPair[V1, V2]] {
	return &zipRightDrivenCursor[K, V1, V2]{driver: c.driver.Clone(), sampled: c.sampled.Clone()}
}
