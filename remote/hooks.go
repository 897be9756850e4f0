// Package remote implements a remote chunked series facade: a
// Series[K,V] whose data lives in externally-addressable chunks,
// loaded and saved through five small hook interfaces so the facade
// itself stays storage-agnostic. Reference hook implementations ship
// in the boltstore, s3store and localfile subpackages.
package remote

import (
	"context"

	series "github.com/chronocursor/seriesdb"
	"github.com/google/uuid"
)

// MapID identifies an entire remotely-chunked series: one backend
// (one S3 bucket, one BoltDB file, one DynamoDB table) serves many
// independent maps, each addressed by its own MapID. It is a 128-bit
// value so hooks can use it directly as an object-key prefix, a
// DynamoDB partition key, or a BoltDB bucket name without a separate
// ID-allocation service.
type MapID [16]byte

// NewMapID returns a fresh random MapID, backed by google/uuid's CSPRNG.
func NewMapID() MapID {
	return MapID(uuid.Must(uuid.NewRandom()))
}

func (id MapID) String() string { return uuid.UUID(id).String() }

// ChunkKey addresses one chunk within a map. It is the affine
// displacement of the chunk's starting key from K's zero value
// (cmp.Diff(k, zero)), giving every key type with an AffineComparer a
// uniform int64 addressing space independent of its concrete encoding.
type ChunkKey int64

// chunkKeyFor converts k to its ChunkKey through K's zero value, the
// same zero-offset trick key.go's timeAffineComparer already bakes
// into Diff/Add for time.Time.
func chunkKeyFor[K any](cmp series.AffineComparer[K], k K) ChunkKey {
	var zero K
	return ChunkKey(cmp.Diff(k, zero))
}

// MapVersion is a monotonic version counter for an entire map, bumped
// by every SaveChunk/RemoveChunk call. Each chunk is stamped with the
// MapVersion current at the time it was last written, so that stamp
// doubles as the chunk's own ChunkVersion: comparing a cached chunk's
// stamp against a fresh keys_loader result is how staleness is
// detected, and comparing against since_version is how an incremental
// refresh finds only what changed.
type MapVersion uint64

// ChunkVersion is the MapVersion a chunk was stamped with when it was
// last saved or removed.
type ChunkVersion = MapVersion

// KeysLoader enumerates a map's chunk directory. Passing a non-zero
// sinceVersion requests an incremental diff: only chunks whose stamped
// ChunkVersion is greater than sinceVersion. Passing zero requests the
// full directory. Because a chunk that was removed simply stops
// appearing in the result, an incremental call can observe additions
// and updates but never deletions — periodic full (sinceVersion == 0)
// calls are how a caller catches up on chunks another writer removed.
type KeysLoader[K any] interface {
	LoadKeys(ctx context.Context, mapID MapID, sinceVersion MapVersion) (map[ChunkKey]ChunkVersion, error)
}

// ChunkLoader fetches the full contents of one chunk.
type ChunkLoader[K, V any] interface {
	LoadChunk(ctx context.Context, mapID MapID, chunkKey ChunkKey) ([]Pair[K, V], error)
}

// Pair is a wire-level key/value pair used by the chunk hooks, kept
// distinct from series.Pair so hook implementations don't need to
// import the root package's generic cursor machinery just to move
// bytes around.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// ChunkSaver persists a chunk's full contents back to the remote
// store, stamping it with a fresh MapVersion and returning that
// version so the caller can update its local index without a
// round-trip back through KeysLoader.
type ChunkSaver[K, V any] interface {
	SaveChunk(ctx context.Context, mapID MapID, chunkKey ChunkKey, data []Pair[K, V]) (MapVersion, error)
}

// ChunkRemover deletes chunks from the remote store. dir selects which
// side of chunkKey to remove, mirroring series.Direction's role in
// MutableSeries.TryRemoveMany: EQ removes exactly chunkKey; LT/LE and
// GT/GE remove every chunk on that side of it too, so a range-removal
// spanning several chunks is one call instead of one per chunk.
type ChunkRemover interface {
	RemoveChunk(ctx context.Context, mapID MapID, chunkKey ChunkKey, dir series.Direction) (MapVersion, error)
}

// ChunkLocker provides the scoped exclusive access a chunk mutation
// needs: remote writers must hold a lock for the chunk they mutate.
// Unlock must be safe to call exactly once.
type ChunkLocker interface {
	Lock(ctx context.Context, mapID MapID, chunkKey ChunkKey) (unlock func() error, err error)
}
