package series

import (
	"bytes"
	"cmp"
	"math"
	"time"
)

// Comparer defines a total order over K.
// Equality is Compare(a, b) == 0; hashing is not required.
type Comparer[K any] interface {
	// Compare returns <0, 0 or >0 as a is less than, equal to, or
	// greater than b.
	Compare(a, b K) int
}

// AffineComparer is an optional affine embedding of K into an int64
// delta space, required only when a series is remotely chunked.
// Implementations must satisfy Add(b, Diff(a, b)) == a, with Diff
// linear in its arguments.
type AffineComparer[K any] interface {
	Comparer[K]
	Diff(a, b K) int64
	Add(a K, delta int64) K
}

type comparerFunc[K any] func(a, b K) int

func (f comparerFunc[K]) Compare(a, b K) int { return f(a, b) }

// FuncComparer adapts a plain comparison function into a Comparer.
func FuncComparer[K any](f func(a, b K) int) Comparer[K] {
	return comparerFunc[K](f)
}

type orderedComparer[K cmp.Ordered] struct{}

func (orderedComparer[K]) Compare(a, b K) int { return cmp.Compare(a, b) }

// Ordered returns a Comparer for any type supporting the built-in
// ordering operators, delegating to cmp.Compare.
func Ordered[K cmp.Ordered]() Comparer[K] {
	return orderedComparer[K]{}
}

type bytesComparer struct{}

func (bytesComparer) Compare(a, b []byte) int { return bytes.Compare(a, b) }

// Bytes returns a Comparer for []byte keys, delegating to bytes.Compare.
func Bytes() Comparer[[]byte] {
	return bytesComparer{}
}

type int64AffineComparer struct{}

func (int64AffineComparer) Compare(a, b int64) int          { return cmp.Compare(a, b) }
func (int64AffineComparer) Diff(a, b int64) int64           { return a - b }
func (int64AffineComparer) Add(a int64, delta int64) int64  { return a + delta }

// Int64Affine returns the identity affine embedding for int64 keys:
// Diff is subtraction, Add is addition. Used directly by remote chunk
// keying when K is already int64.
func Int64Affine() AffineComparer[int64] {
	return int64AffineComparer{}
}

// timeZeroOffsetMicros is chosen so that time.Time{}.UnixMicro() maps
// to 0, giving the affine embedding a well-defined zero point.
const timeZeroOffsetMicros = 62_135_596_800_000_000

type timeAffineComparer struct{}

func (timeAffineComparer) Compare(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func (timeAffineComparer) Diff(a, b time.Time) int64 {
	return (a.UnixMicro() + timeZeroOffsetMicros) - (b.UnixMicro() + timeZeroOffsetMicros)
}

func (timeAffineComparer) Add(a time.Time, delta int64) time.Time {
	// time.Duration overflows past ~292 years, so larger deltas are
	// applied in steps that each fit.
	const maxStep = math.MaxInt64 / int64(time.Microsecond)
	for delta > maxStep {
		a = a.Add(time.Duration(maxStep) * time.Microsecond)
		delta -= maxStep
	}
	for delta < -maxStep {
		a = a.Add(-time.Duration(maxStep) * time.Microsecond)
		delta += maxStep
	}
	return a.Add(time.Duration(delta) * time.Microsecond)
}

// TimeAffine returns an affine embedding of time.Time keys into a
// microseconds-since-zero-time int64 space, suitable for remote chunk
// keying of time-series data.
func TimeAffine() AffineComparer[time.Time] {
	return timeAffineComparer{}
}
