package series

// MutableSeries extends Series with a mutation surface.
// seriessorted.Container is the shipped implementation; remote.ChunkedSeries
// composes over one per chunk.
type MutableSeries[K, V any] interface {
	Series[K, V]

	// TryAdd inserts k=v, failing (false) if k is already present.
	// err is non-nil (wrapping ErrCompleted) iff the series had
	// already been completed.
	TryAdd(k K, v V) (bool, error)
	// TryAddFirst inserts k=v, failing if k is not strictly smaller
	// than the current first key.
	TryAddFirst(k K, v V) (bool, error)
	// TryAddLast inserts k=v, failing if k is not strictly larger than
	// the current last key.
	TryAddLast(k K, v V) (bool, error)
	// Set inserts or replaces k=v, returning true iff a new key was
	// inserted (false if an existing key's value was replaced).
	Set(k K, v V) (bool, error)
	// TryRemove removes k, returning its value if present.
	TryRemove(k K) (v V, ok bool, err error)
	// TryRemoveFirst removes and returns the smallest element.
	TryRemoveFirst() (k K, v V, ok bool, err error)
	// TryRemoveLast removes and returns the largest element.
	TryRemoveLast() (k K, v V, ok bool, err error)
	// TryRemoveMany bulk-removes the half-range selected by dir
	// relative to k: EQ removes one key; LT removes everything below
	// the pivot and LE everything at-or-below it; GT removes everything
	// above it and GE everything at-or-above it. Returns the number of
	// elements removed, whether anything was removed, and (on a miss)
	// a refined MissReason classifying why.
	TryRemoveMany(k K, dir Direction) (count int, ok bool, reason MissReason, err error)
	// Complete performs the one-way transition to IsCompleted() ==
	// true. After Complete, every mutation fails with ErrCompleted.
	Complete()
	// TryAppend appends other's content per option, returning the
	// count of elements actually appended.
	TryAppend(other Series[K, V], option AppendOption) (count int, err error)
}

// AppendOption selects how TryAppend resolves overlap between this
// series and the appended one.
type AppendOption int

const (
	// RejectOnOverlap fails if other.First() <= this.Last().
	RejectOnOverlap AppendOption = iota
	// DropOldOverlap removes this series' keys >= other.First(), then appends.
	DropOldOverlap
	// IgnoreEqualOverlap requires the overlapping range to be
	// element-wise equal, and appends only the strictly-newer suffix.
	IgnoreEqualOverlap
	// RequireEqualOverlap behaves like IgnoreEqualOverlap, but fails
	// if there is no overlap at all.
	RequireEqualOverlap
)

func (o AppendOption) String() string {
	switch o {
	case RejectOnOverlap:
		return "RejectOnOverlap"
	case DropOldOverlap:
		return "DropOldOverlap"
	case IgnoreEqualOverlap:
		return "IgnoreEqualOverlap"
	case RequireEqualOverlap:
		return "RequireEqualOverlap"
	default:
		return "AppendOption(?)"
	}
}
