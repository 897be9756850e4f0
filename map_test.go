package series

import "testing"

func TestMap(t *testing.T) {
	s := intPairs(Pair[int, string]{1, "a"}, Pair[int, string]{2, "b"})
	mapped := Map[int, string, int](s, func(_ int, v string) int { return len(v) })

	got := ToSlice[int, int](mapped.Cursor())
	if len(got) != 2 || got[0].Value != 1 || got[1].Value != 1 {
		t.Fatalf("Map() = %v", got)
	}
}

func TestMap_PreservesKeysAndOrder(t *testing.T) {
	s := intPairs(Pair[int, string]{1, "aa"}, Pair[int, string]{2, "b"}, Pair[int, string]{3, "ccc"})
	mapped := Map[int, string, int](s, func(_ int, v string) int { return len(v) })

	c := mapped.Cursor()
	if !c.MoveAt(2, EQ) {
		t.Fatalf("MoveAt(2, EQ) = false")
	}
	if c.CurrentValue() != 1 {
		t.Fatalf("CurrentValue() = %d, wanted 1", c.CurrentValue())
	}
}

func TestMap_Lazy(t *testing.T) {
	calls := 0
	s := intPairs(Pair[int, string]{1, "a"}, Pair[int, string]{2, "b"})
	mapped := Map[int, string, int](s, func(_ int, v string) int {
		calls++
		return len(v)
	})

	_ = mapped.Cursor() // constructing the view/cursor must not evaluate f
	if calls != 0 {
		t.Fatalf("Map() evaluated f %d times before any access", calls)
	}
}
