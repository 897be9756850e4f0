package series

import "testing"

func TestZip_MergeCursor_BothDiscrete(t *testing.T) {
	left := intSeries(Pair[int, int]{1, 10}, Pair[int, int]{2, 20}, Pair[int, int]{3, 30})
	right := intSeries(Pair[int, int]{2, 200}, Pair[int, int]{3, 300}, Pair[int, int]{4, 400})

	z := Zip[int, int, int](left, right)
	got := ToSlice[int, ZipPair[int, int]](z.Cursor())
	if len(got) != 2 {
		t.Fatalf("Zip() = %v, wanted 2 aligned pairs (keys 2,3)", got)
	}
	if got[0].Key != 2 || got[0].Value != (ZipPair[int, int]{20, 200}) {
		t.Fatalf("Zip()[0] = %+v", got[0])
	}
	if got[1].Key != 3 || got[1].Value != (ZipPair[int, int]{30, 300}) {
		t.Fatalf("Zip()[1] = %+v", got[1])
	}
}

type constantSeries struct {
	v int
}

func (c constantSeries) Comparer() Comparer[int] { return Ordered[int]() }
func (c constantSeries) IsIndexed() bool         { return false }
func (c constantSeries) IsCompleted() bool       { return true }
func (c constantSeries) Version() uint64         { return 1 }
func (c constantSeries) First() (int, int, bool) { return 0, c.v, true }
func (c constantSeries) Last() (int, int, bool)  { return 0, c.v, true }
func (c constantSeries) Cursor() Cursor[int, int] { return constantCursor{v: c.v} }

type constantCursor struct{ v int }

func (c constantCursor) MoveFirst() bool                 { return true }
func (c constantCursor) MoveLast() bool                   { return true }
func (c constantCursor) MoveNext() bool                   { return true }
func (c constantCursor) MovePrevious() bool               { return true }
func (c constantCursor) MoveAt(k int, dir Direction) bool { return true }
func (c constantCursor) TryGetValue(k int) (int, bool)    { return c.v, true }
func (c constantCursor) CurrentKey() int                  { return 0 }
func (c constantCursor) CurrentValue() int                { return c.v }
func (c constantCursor) State() State                     { return Positioned }
func (c constantCursor) Comparer() Comparer[int]          { return Ordered[int]() }
func (c constantCursor) IsContinuous() bool                { return true }
func (c constantCursor) Clone() Cursor[int, int]           { return c }

func TestZip_RightContinuous_DrivesLeft(t *testing.T) {
	left := intSeries(Pair[int, int]{1, 10}, Pair[int, int]{2, 20})
	right := constantSeries{v: 100}

	z := Zip[int, int, int](left, right)
	got := ToSlice[int, ZipPair[int, int]](z.Cursor())
	if len(got) != 2 {
		t.Fatalf("Zip() with continuous right = %v, wanted 2 pairs (driven by left)", got)
	}
	if got[0].Value != (ZipPair[int, int]{10, 100}) || got[1].Value != (ZipPair[int, int]{20, 100}) {
		t.Fatalf("Zip() values = %v", got)
	}
}

func TestZip_LeftContinuous_DrivesRight(t *testing.T) {
	left := constantSeries{v: 1}
	right := intSeries(Pair[int, int]{5, 50}, Pair[int, int]{6, 60})

	z := Zip[int, int, int](left, right)
	got := ToSlice[int, ZipPair[int, int]](z.Cursor())
	if len(got) != 2 {
		t.Fatalf("Zip() with continuous left = %v, wanted 2 pairs (driven by right)", got)
	}
	if got[0].Key != 5 || got[0].Value != (ZipPair[int, int]{1, 50}) {
		t.Fatalf("Zip()[0] = %+v", got[0])
	}
}
