// Package seriestest provides conformance helpers that check a
// Series/Cursor implementation against a shared set of invariants
// instead of each package hand-rolling its own walk-the-cursor
// assertions. seriessorted's tests use them; the root package's tests
// cannot (seriestest imports series), and the remote tests do not.
// Modeled on the teacher's basicSchema/must test helpers (db_test.go)
// translated from one fixed schema to a comparable []series.Pair.
package seriestest

import (
	"testing"

	series "github.com/chronocursor/seriesdb"
)

// CheckCursor walks s end-to-end in both directions and asserts the
// result matches want, which must already be sorted by s.Comparer()
// (or, for an indexed series, given in the expected iteration order).
// It exercises MoveFirst/MoveNext, MoveLast/MovePrevious, and
// TryGetValue/MoveAt(EQ) for every expected key, per spec §8 scenario
// (a)'s "walk forward, walk backward, point query every key" shape.
func CheckCursor[K comparable, V any](t *testing.T, s series.Series[K, V], want []series.Pair[K, V], eq func(a, b V) bool) {
	t.Helper()

	forward := series.ToSlice(s.Cursor())
	assertPairsEqual(t, "forward walk", forward, want, eq)

	backward := drainBackward(s.Cursor())
	assertPairsEqual(t, "backward walk", backward, reversed(want), eq)

	c := s.Cursor()
	for _, p := range want {
		v, ok := c.TryGetValue(p.Key)
		if !ok {
			t.Errorf("TryGetValue(%v) = false, wanted value %v", p.Key, p.Value)
			continue
		}
		if !eq(v, p.Value) {
			t.Errorf("TryGetValue(%v) = %v, wanted %v", p.Key, v, p.Value)
		}
	}

	for _, p := range want {
		c := s.Cursor()
		if !c.MoveAt(p.Key, series.EQ) {
			t.Errorf("MoveAt(%v, EQ) = false, wanted true", p.Key)
			continue
		}
		if got := c.CurrentKey(); got != p.Key {
			t.Errorf("MoveAt(%v, EQ).CurrentKey() = %v", p.Key, got)
		}
		if got := c.CurrentValue(); !eq(got, p.Value) {
			t.Errorf("MoveAt(%v, EQ).CurrentValue() = %v, wanted %v", p.Key, got, p.Value)
		}
	}
}

// CheckEmpty asserts that s has no elements: MoveFirst/MoveLast both
// fail and First()/Last() both report ok=false, per spec §8 scenario
// (f)'s empty-series edge case.
func CheckEmpty[K comparable, V any](t *testing.T, s series.Series[K, V]) {
	t.Helper()
	if c := s.Cursor(); c.MoveFirst() {
		t.Errorf("MoveFirst() = true on an empty series")
	}
	if c := s.Cursor(); c.MoveLast() {
		t.Errorf("MoveLast() = true on an empty series")
	}
	if _, _, ok := s.First(); ok {
		t.Errorf("First() ok = true on an empty series")
	}
	if _, _, ok := s.Last(); ok {
		t.Errorf("Last() ok = true on an empty series")
	}
}

func drainBackward[K, V any](c series.Cursor[K, V]) []series.Pair[K, V] {
	var out []series.Pair[K, V]
	if !c.MoveLast() {
		return nil
	}
	for {
		out = append(out, series.Pair[K, V]{Key: c.CurrentKey(), Value: c.CurrentValue()})
		if !c.MovePrevious() {
			break
		}
	}
	return out
}

func reversed[K, V any](in []series.Pair[K, V]) []series.Pair[K, V] {
	out := make([]series.Pair[K, V], len(in))
	for i, p := range in {
		out[len(in)-1-i] = p
	}
	return out
}

func assertPairsEqual[K comparable, V any](t *testing.T, label string, got, want []series.Pair[K, V], eq func(a, b V) bool) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d pairs, wanted %d (%v vs %v)", label, len(got), len(want), got, want)
	}
	for i := range want {
		if got[i].Key != want[i].Key || !eq(got[i].Value, want[i].Value) {
			t.Fatalf("%s: pair %d = %+v, wanted %+v", label, i, got[i], want[i])
		}
	}
}

// IntEq and StringEq are the usual comparable-value equality functions
// passed to CheckCursor for plain scalar value types.
func IntEq(a, b int) bool       { return a == b }
func StringEq(a, b string) bool { return a == b }
func Float64Eq(a, b float64) bool { return a == b }
