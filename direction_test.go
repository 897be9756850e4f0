package series

import "testing"

func TestDirection_String(t *testing.T) {
	cases := map[Direction]string{EQ: "EQ", LT: "LT", LE: "LE", GT: "GT", GE: "GE", Direction(99): "Direction(?)"}
	for d, want := range cases {
		if got := d.String(); got != want {
			t.Errorf("%d.String() = %q, wanted %q", d, got, want)
		}
	}
}

func TestDirection_Reversed(t *testing.T) {
	cases := map[Direction]Direction{LT: GT, GT: LT, LE: GE, GE: LE, EQ: EQ}
	for d, want := range cases {
		if got := d.reversed(); got != want {
			t.Errorf("%v.reversed() = %v, wanted %v", d, got, want)
		}
	}
}

func TestDirection_Forward(t *testing.T) {
	for _, d := range []Direction{GT, GE} {
		if !d.forward() {
			t.Errorf("%v.forward() = false", d)
		}
	}
	for _, d := range []Direction{LT, LE, EQ} {
		if d.forward() {
			t.Errorf("%v.forward() = true", d)
		}
	}
}

func TestMissReason_String(t *testing.T) {
	cases := map[MissReason]string{
		MissNone:               "none",
		MissEmpty:               "empty",
		MissBelowRange:          "below-range",
		MissAboveRange:          "above-range",
		MissWithinRangeMissing:  "within-range-missing",
		MissReason(99):          "MissReason(?)",
	}
	for r, want := range cases {
		if got := r.String(); got != want {
			t.Errorf("%d.String() = %q, wanted %q", r, got, want)
		}
	}
}
