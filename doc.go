/*
Package series implements ordered, versioned, reactive key-value series.

A series is a logical, possibly lazy, ordered mapping from a totally
ordered key K to a value V. It is either a materialized sorted
container (see the seriessorted subpackage), or a view derived from
other series through a lazy cursor algebra: Map, Filter, Op,
Comparison, Zip and ZipOp.

# Cursors

A Cursor[K,V] navigates a Series[K,V]. It is cheap to clone and is
driven through MoveFirst/MoveLast/MoveNext/MovePrevious/MoveAt.
Derived cursors delegate navigation to their inputs and translate
keys and values on the fly, without materializing intermediate
collections.

# Mutation and versioning

A MutableSeries[K,V] (see seriessorted.Container) bumps a monotonic
version counter on every change that alters content, under a
single-writer latch (see optimistic.go). Readers that need a
consistent multi-field snapshot use ReadOptimistic to retry across
concurrent writes rather than observe a torn state.

# Reactivity

A series that also implements Completable[K,V] supports a live tail:
an AsyncCursor that, on reaching the end, suspends until either new
data arrives or the series completes. See async.go and subscribe.go.

# Remote chunks

The remote subpackage layers a chunk-indexed facade over pluggable
remote storage (loader/saver/locker hooks), for series too large to
keep resident.
*/
package series
