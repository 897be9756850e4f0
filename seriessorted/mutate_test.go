package seriessorted

import (
	"errors"
	"testing"

	series "github.com/chronocursor/seriesdb"
)

func TestTryAdd(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	if ok, err := c.TryAdd(1, "a"); err != nil || !ok {
		t.Fatalf("TryAdd(1) = %v, %v on empty container, wanted true, nil", ok, err)
	}
	if ok, err := c.TryAdd(1, "b"); err != nil || ok {
		t.Fatalf("TryAdd(1) = %v, %v on a duplicate key, wanted false, nil", ok, err)
	}
	if v, ok := c.TryGetValueHelper(1); !ok || v != "a" {
		t.Fatalf("TryGetValueHelper(1) = %q, %v, wanted \"a\", true", v, ok)
	}
}

// TryGetValueHelper reads through a fresh cursor, mirroring how a real
// caller would look up a value; kept local to this test file so the
// mutate tests don't depend on cursor_test.go's fixtures.
func (c *Container[K, V]) TryGetValueHelper(k K) (V, bool) {
	return c.Cursor().TryGetValue(k)
}

func TestTryAddFirst(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(5, "e")

	if ok, err := c.TryAddFirst(1, "a"); err != nil || !ok {
		t.Fatalf("TryAddFirst(1) = %v, %v, wanted true, nil", ok, err)
	}
	if ok, err := c.TryAddFirst(5, "x"); err != nil || ok {
		t.Fatalf("TryAddFirst(5) = %v, %v, 5 is not strictly smaller than the current first", ok, err)
	}
	k, _, _ := c.First()
	if k != 1 {
		t.Fatalf("First() key = %d, wanted 1", k)
	}
}

func TestTryAddFirst_RejectedOnIndexed(t *testing.T) {
	c := NewIndexed[int, string](series.Ordered[int]())
	if ok, err := c.TryAddFirst(1, "a"); err != nil || ok {
		t.Fatalf("TryAddFirst() = %v, %v on an indexed container, wanted false, nil", ok, err)
	}
}

func TestTryAddLast(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")

	if ok, err := c.TryAddLast(5, "e"); err != nil || !ok {
		t.Fatalf("TryAddLast(5) = %v, %v, wanted true, nil", ok, err)
	}
	if ok, err := c.TryAddLast(1, "x"); err != nil || ok {
		t.Fatalf("TryAddLast(1) = %v, %v, 1 is not strictly larger than the current last", ok, err)
	}
	k, _, _ := c.Last()
	if k != 5 {
		t.Fatalf("Last() key = %d, wanted 5", k)
	}
}

func TestTryAddLast_IndexedDegradesToAppend(t *testing.T) {
	c := NewIndexed[int, string](series.Ordered[int]())
	if ok, err := c.TryAddLast(5, "e"); err != nil || !ok {
		t.Fatalf("TryAddLast(5) = %v, %v on empty indexed container, wanted true, nil", ok, err)
	}
	if ok, err := c.TryAddLast(1, "a"); err != nil || !ok {
		t.Fatalf("TryAddLast(1) = %v, %v on an indexed container; insertion order should allow any key", ok, err)
	}
	k, _, _ := c.Last()
	if k != 1 {
		t.Fatalf("Last() key = %d, wanted 1 (insertion order)", k)
	}
}

func TestSet(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	if inserted, err := c.Set(1, "a"); err != nil || !inserted {
		t.Fatalf("Set(1, a) = %v, %v on empty container, wanted true, nil", inserted, err)
	}
	if inserted, err := c.Set(1, "b"); err != nil || inserted {
		t.Fatalf("Set(1, b) = %v, %v on an existing key, wanted false, nil", inserted, err)
	}
	if v, ok := c.TryGetValueHelper(1); !ok || v != "b" {
		t.Fatalf("TryGetValueHelper(1) = %q, %v, wanted \"b\", true", v, ok)
	}
}

func TestTryRemove(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")

	v, ok, err := c.TryRemove(1)
	if err != nil || !ok || v != "a" {
		t.Fatalf("TryRemove(1) = %q, %v, %v, wanted \"a\", true, nil", v, ok, err)
	}
	if _, ok, err := c.TryRemove(1); err != nil || ok {
		t.Fatalf("TryRemove(1) = %v, %v on an already-removed key, wanted false, nil", ok, err)
	}
}

func TestTryRemoveFirstLast(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")
	c.TryAdd(2, "b")
	c.TryAdd(3, "c")

	k, v, ok, err := c.TryRemoveFirst()
	if err != nil || !ok || k != 1 || v != "a" {
		t.Fatalf("TryRemoveFirst() = %d, %q, %v, %v", k, v, ok, err)
	}
	k, v, ok, err = c.TryRemoveLast()
	if err != nil || !ok || k != 3 || v != "c" {
		t.Fatalf("TryRemoveLast() = %d, %q, %v, %v", k, v, ok, err)
	}
	if st := c.Stats(); st.Len != 1 {
		t.Fatalf("Stats().Len = %d, wanted 1", st.Len)
	}
}

func TestTryRemoveFirstLast_EmptyContainer(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	if _, _, ok, err := c.TryRemoveFirst(); err != nil || ok {
		t.Fatalf("TryRemoveFirst() = %v, %v on empty container, wanted false, nil", ok, err)
	}
	if _, _, ok, err := c.TryRemoveLast(); err != nil || ok {
		t.Fatalf("TryRemoveLast() = %v, %v on empty container, wanted false, nil", ok, err)
	}
}

func TestTryRemoveMany(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	for i := 1; i <= 5; i++ {
		c.TryAdd(i, "v")
	}

	n, ok, reason, err := c.TryRemoveMany(3, series.LT)
	if err != nil || !ok || n != 2 || reason != series.MissNone {
		t.Fatalf("TryRemoveMany(3, LT) = %d, %v, %v, %v, wanted 2, true, MissNone, nil", n, ok, reason, err)
	}
	k, _, _ := c.First()
	if k != 3 {
		t.Fatalf("First() key = %d after removing LT 3, wanted 3", k)
	}

	n, ok, reason, err = c.TryRemoveMany(4, series.GE)
	if err != nil || !ok || n != 2 || reason != series.MissNone {
		t.Fatalf("TryRemoveMany(4, GE) = %d, %v, %v, %v, wanted 2, true, MissNone, nil", n, ok, reason, err)
	}
	if st := c.Stats(); st.Len != 1 {
		t.Fatalf("Stats().Len = %d after removing GE 4, wanted 1", st.Len)
	}
}

func TestTryRemoveMany_MissReason(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	if _, ok, reason, err := c.TryRemoveMany(1, series.EQ); err != nil || ok || reason != series.MissEmpty {
		t.Fatalf("TryRemoveMany(1, EQ) on empty container = %v, %v, %v, wanted false, MissEmpty, nil", ok, reason, err)
	}

	for i := 2; i <= 4; i++ {
		if _, err := c.Set(i, "v"); err != nil {
			t.Fatalf("Set(%d) error = %v", i, err)
		}
	}

	if _, ok, reason, err := c.TryRemoveMany(1, series.EQ); err != nil || ok || reason != series.MissBelowRange {
		t.Fatalf("TryRemoveMany(1, EQ) below range = %v, %v, %v, wanted false, MissBelowRange, nil", ok, reason, err)
	}
	if _, ok, reason, err := c.TryRemoveMany(9, series.EQ); err != nil || ok || reason != series.MissAboveRange {
		t.Fatalf("TryRemoveMany(9, EQ) above range = %v, %v, %v, wanted false, MissAboveRange, nil", ok, reason, err)
	}
	if _, ok, reason, err := c.TryRemoveMany(3, series.EQ); err != nil || !ok || reason != series.MissNone {
		t.Fatalf("TryRemoveMany(3, EQ) exact hit = %v, %v, %v, wanted true, MissNone, nil", ok, reason, err)
	}
	if _, ok, reason, err := c.TryRemoveMany(3, series.EQ); err != nil || ok || reason != series.MissWithinRangeMissing {
		t.Fatalf("TryRemoveMany(3, EQ) re-removed = %v, %v, %v, wanted false, MissWithinRangeMissing, nil", ok, reason, err)
	}
}

func TestTryRemoveMany_RejectedOnIndexedUnlessEQ(t *testing.T) {
	c := NewIndexed[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")

	if _, ok, _, err := c.TryRemoveMany(1, series.GT); err != nil || ok {
		t.Fatalf("TryRemoveMany(GT) = %v, %v on an indexed container, wanted false, nil", ok, err)
	}
	if n, ok, _, err := c.TryRemoveMany(1, series.EQ); err != nil || !ok || n != 1 {
		t.Fatalf("TryRemoveMany(EQ) = %d, %v, %v, wanted 1, true, nil", n, ok, err)
	}
}

func TestComplete_RejectsFurtherWrites(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")
	c.Complete()

	ok, err := c.TryAdd(2, "b")
	if ok {
		t.Fatalf("TryAdd() = true after Complete()")
	}
	if !errors.Is(err, series.ErrCompleted) {
		t.Fatalf("TryAdd() error = %v after Complete(), wanted ErrCompleted", err)
	}
	if st := c.Stats(); st.Len != 1 {
		t.Fatalf("Stats().Len = %d after a rejected post-completion write, wanted 1", st.Len)
	}
}

func seriesOf(pairs ...series.Pair[int, string]) series.Series[int, string] {
	c := New[int, string](series.Ordered[int]())
	for _, p := range pairs {
		c.TryAdd(p.Key, p.Value)
	}
	return c
}

func TestTryAppend_RejectOnOverlap(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")
	c.TryAdd(2, "b")

	_, err := c.TryAppend(seriesOf(intPair(2, "b"), intPair(3, "c")), series.RejectOnOverlap)
	var overlapErr *series.OverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("TryAppend(RejectOnOverlap) error = %v, wanted *OverlapError", err)
	}
}

func TestTryAppend_NoOverlap(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")

	n, err := c.TryAppend(seriesOf(intPair(2, "b"), intPair(3, "c")), series.RejectOnOverlap)
	if err != nil || n != 2 {
		t.Fatalf("TryAppend() = %d, %v, wanted 2, nil", n, err)
	}
	if st := c.Stats(); st.Len != 3 {
		t.Fatalf("Stats().Len = %d, wanted 3", st.Len)
	}
}

func TestTryAppend_DropOldOverlap(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")
	c.TryAdd(2, "stale")

	n, err := c.TryAppend(seriesOf(intPair(2, "fresh"), intPair(3, "c")), series.DropOldOverlap)
	if err != nil || n != 2 {
		t.Fatalf("TryAppend(DropOldOverlap) = %d, %v, wanted 2, nil", n, err)
	}
	v, _ := c.TryGetValueHelper(2)
	if v != "fresh" {
		t.Fatalf("value at key 2 = %q, wanted \"fresh\"", v)
	}
}

func TestTryAppend_IgnoreEqualOverlap(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")
	c.TryAdd(2, "b")

	n, err := c.TryAppend(seriesOf(intPair(2, "b"), intPair(3, "c")), series.IgnoreEqualOverlap)
	if err != nil || n != 1 {
		t.Fatalf("TryAppend(IgnoreEqualOverlap) = %d, %v, wanted 1, nil", n, err)
	}
}

func TestTryAppend_IgnoreEqualOverlap_MismatchErrors(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")
	c.TryAdd(2, "b")

	_, err := c.TryAppend(seriesOf(intPair(2, "different"), intPair(3, "c")), series.IgnoreEqualOverlap)
	var overlapErr *series.OverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("TryAppend(IgnoreEqualOverlap) mismatched error = %v, wanted *OverlapError", err)
	}
}

func TestTryAppend_RequireEqualOverlap_NoOverlapErrors(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")

	_, err := c.TryAppend(seriesOf(intPair(5, "e")), series.RequireEqualOverlap)
	var overlapErr *series.OverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("TryAppend(RequireEqualOverlap) with no overlap error = %v, wanted *OverlapError", err)
	}
}

func TestMutate_FeedsSharedMetrics(t *testing.T) {
	m := series.NewMetrics()
	c := New[int, string](series.Ordered[int](), series.WithMetrics(m))

	var sub fakeTryCompleteSubscriber
	handle := c.Subscribe(&sub)
	defer handle.Close()

	c.TryAdd(1, "a")
	c.TryAdd(2, "b")
	c.Complete()

	snap := m.Snapshot()
	if snap.Mutations != 2 {
		t.Fatalf("Mutations = %d, wanted 2", snap.Mutations)
	}
	if snap.Notifications == 0 {
		t.Fatalf("Notifications = 0, wanted at least 1 from the subscribed TryAdd/Complete calls")
	}
}

type fakeTryCompleteSubscriber struct{}

func (fakeTryCompleteSubscriber) TryComplete(force, cancel bool) {}

func TestTryAppend_EmptyOther(t *testing.T) {
	c := New[int, string](series.Ordered[int]())
	c.TryAdd(1, "a")

	n, err := c.TryAppend(seriesOf(), series.RejectOnOverlap)
	if err != nil || n != 0 {
		t.Fatalf("TryAppend(empty) = %d, %v, wanted 0, nil", n, err)
	}
}
