package remote

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	series "github.com/chronocursor/seriesdb"
	"github.com/chronocursor/seriesdb/seriessorted"
	"golang.org/x/sync/errgroup"
)

// ChunkedSeries is a Series[K,V] backed by remote chunks addressed
// through the five hook interfaces, with a local cache of
// already-loaded chunks. K must carry an AffineComparer so chunk
// boundaries can be expressed and compared independent of the
// concrete key encoding. mapID identifies this series within the
// backend the hooks talk to; one backend can serve many independent
// ChunkedSeries, each with its own mapID.
type ChunkedSeries[K, V any] struct {
	mapID   MapID
	cmp     series.AffineComparer[K]
	keys    KeysLoader[K]
	loader  ChunkLoader[K, V]
	saver   ChunkSaver[K, V]
	remover ChunkRemover
	locker  ChunkLocker

	logger  *slog.Logger
	metrics *series.Metrics

	version atomic.Uint64 // highest MapVersion observed, either from our own writes or a LoadKeys diff
	index   atomic.Pointer[chunkIndex]

	cacheMu sync.Mutex
	cache   map[ChunkKey]*seriessorted.Container[K, V]
}

// chunkIndex is the local directory of a map's chunks: keys ascending
// by ChunkKey (hence by K, since chunkKeyFor is order-preserving), each
// paired with the ChunkVersion it was last known to carry.
type chunkIndex struct {
	keys     []ChunkKey
	versions map[ChunkKey]ChunkVersion
}

// Open constructs a ChunkedSeries for mapID and performs an initial
// full Resync. A zero MapID is not special-cased: callers that want a
// fresh identity should pass NewMapID().
func Open[K, V any](ctx context.Context, mapID MapID, cmp series.AffineComparer[K], keys KeysLoader[K], loader ChunkLoader[K, V], saver ChunkSaver[K, V], remover ChunkRemover, locker ChunkLocker, opts ...Option) (*ChunkedSeries[K, V], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cs := &ChunkedSeries[K, V]{
		mapID:   mapID,
		cmp:     cmp,
		keys:    keys,
		loader:  loader,
		saver:   saver,
		remover: remover,
		locker:  locker,
		logger:  cfg.logger,
		metrics: cfg.metrics,
		cache:   make(map[ChunkKey]*seriessorted.Container[K, V]),
	}
	cs.index.Store(&chunkIndex{versions: map[ChunkKey]ChunkVersion{}})
	if err := cs.Resync(ctx); err != nil {
		return nil, err
	}
	return cs, nil
}

// Resync performs a full directory reload (sinceVersion 0) and
// installs it as the new index wholesale, the only way to observe a
// chunk another writer removed: an incremental Refresh can only ever
// learn about additions and updates, never absences.
func (cs *ChunkedSeries[K, V]) Resync(ctx context.Context) error {
	versions, err := cs.keys.LoadKeys(ctx, cs.mapID, 0)
	if err != nil {
		return series.WrapRemote("KeysLoader", err)
	}
	old := cs.index.Load()
	cs.cacheMu.Lock()
	for ck, oldVer := range old.versions {
		if newVer, ok := versions[ck]; !ok || newVer != oldVer {
			delete(cs.cache, ck)
		}
	}
	cs.cacheMu.Unlock()
	cs.installIndex(versions)
	cs.logger.Debug("remote: chunk index resynced", "map", cs.mapID.String(), "chunks", len(versions))
	return nil
}

// Refresh performs an incremental directory reload: only chunks whose
// ChunkVersion advanced past the highest version this facade has
// already observed. New and updated entries are merged in; any cached
// copy of an updated chunk is evicted so the next access reloads it.
// Refresh never removes index entries, since an incremental diff
// cannot report a deletion — call Resync periodically to catch those.
func (cs *ChunkedSeries[K, V]) Refresh(ctx context.Context) error {
	sinceVersion := MapVersion(cs.version.Load())
	diff, err := cs.keys.LoadKeys(ctx, cs.mapID, sinceVersion)
	if err != nil {
		return series.WrapRemote("KeysLoader", err)
	}
	if len(diff) == 0 {
		return nil
	}

	old := cs.index.Load()
	versions := make(map[ChunkKey]ChunkVersion, len(old.versions)+len(diff))
	for ck, v := range old.versions {
		versions[ck] = v
	}
	cs.cacheMu.Lock()
	for ck, newVer := range diff {
		if oldVer, existed := versions[ck]; !existed || oldVer != newVer {
			delete(cs.cache, ck)
		}
		versions[ck] = newVer
	}
	cs.cacheMu.Unlock()

	cs.installIndex(versions)
	cs.logger.Debug("remote: chunk index refreshed", "map", cs.mapID.String(), "since", sinceVersion, "changed", len(diff))
	return nil
}

// installIndex replaces cs.index with a fresh snapshot built from
// versions, and advances cs.version to the highest version seen.
// Installing a *new* index value rather than mutating the old one in
// place means cursors created before the call keep iterating the
// snapshot they captured at Cursor()-time; only cursors created after
// observe the new chunk boundaries.
func (cs *ChunkedSeries[K, V]) installIndex(versions map[ChunkKey]ChunkVersion) {
	keys := make([]ChunkKey, 0, len(versions))
	var maxVer MapVersion
	for ck, v := range versions {
		keys = append(keys, ck)
		if v > maxVer {
			maxVer = v
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	cs.index.Store(&chunkIndex{keys: keys, versions: versions})
	cs.bumpVersion(maxVer)
}

func (cs *ChunkedSeries[K, V]) bumpVersion(v MapVersion) {
	for {
		cur := cs.version.Load()
		if uint64(v) <= cur {
			return
		}
		if cs.version.CompareAndSwap(cur, uint64(v)) {
			return
		}
	}
}

func (cs *ChunkedSeries[K, V]) Comparer() series.Comparer[K] { return cs.cmp }
func (cs *ChunkedSeries[K, V]) IsIndexed() bool              { return false }
func (cs *ChunkedSeries[K, V]) IsCompleted() bool            { return false }

// Version returns the highest MapVersion this facade has observed,
// either from its own SaveChunk/RemoveChunk calls or a LoadKeys diff.
func (cs *ChunkedSeries[K, V]) Version() uint64 { return cs.version.Load() }

func (cs *ChunkedSeries[K, V]) First() (k K, v V, ok bool) {
	idx := cs.index.Load()
	if len(idx.keys) == 0 {
		return k, v, false
	}
	chunk, err := cs.loadChunk(context.Background(), idx.keys[0])
	if err != nil {
		return k, v, false
	}
	return chunk.First()
}

func (cs *ChunkedSeries[K, V]) Last() (k K, v V, ok bool) {
	idx := cs.index.Load()
	if len(idx.keys) == 0 {
		return k, v, false
	}
	chunk, err := cs.loadChunk(context.Background(), idx.keys[len(idx.keys)-1])
	if err != nil {
		return k, v, false
	}
	return chunk.Last()
}

// Cursor returns a cursor pinned to the chunk index current at call
// time (see installIndex's doc comment).
func (cs *ChunkedSeries[K, V]) Cursor() series.Cursor[K, V] {
	return &chunkedCursor[K, V]{cs: cs, idx: cs.index.Load(), chunkPos: -1}
}

// loadChunk returns the cached container for chunkKey, loading it
// through ChunkLoader under the chunk's remote lock on a cache miss,
// per spec: "reading a chunk consults a local cache first and falls
// back under the remote lock." Chunks stay cached until Refresh or
// Resync observes a newer ChunkVersion and evicts them.
func (cs *ChunkedSeries[K, V]) loadChunk(ctx context.Context, chunkKey ChunkKey) (*seriessorted.Container[K, V], error) {
	cs.cacheMu.Lock()
	if c, ok := cs.cache[chunkKey]; ok {
		cs.cacheMu.Unlock()
		return c, nil
	}
	cs.cacheMu.Unlock()

	unlock, err := cs.locker.Lock(ctx, cs.mapID, chunkKey)
	if err != nil {
		return nil, series.WrapRemote("ChunkLocker", err)
	}
	defer unlock()

	cs.cacheMu.Lock()
	if c, ok := cs.cache[chunkKey]; ok {
		cs.cacheMu.Unlock()
		return c, nil
	}
	cs.cacheMu.Unlock()

	pairs, err := cs.loader.LoadChunk(ctx, cs.mapID, chunkKey)
	if err != nil {
		return nil, series.WrapRemote("ChunkLoader", err)
	}
	cs.logger.Debug("remote: chunk loaded", "map", cs.mapID.String(), "chunk", int64(chunkKey), "pairs", len(pairs))
	c := seriessorted.New[K, V](cs.cmp, series.WithMetrics(cs.metrics))
	for _, p := range pairs {
		c.Set(p.Key, p.Value)
	}

	cs.cacheMu.Lock()
	if existing, ok := cs.cache[chunkKey]; ok {
		cs.cacheMu.Unlock()
		return existing, nil
	}
	cs.cache[chunkKey] = c
	cs.cacheMu.Unlock()
	return c, nil
}

// EvictChunk drops chunkKey from the local cache, forcing the next
// access to reload it through ChunkLoader.
func (cs *ChunkedSeries[K, V]) EvictChunk(chunkKey ChunkKey) {
	cs.cacheMu.Lock()
	delete(cs.cache, chunkKey)
	cs.cacheMu.Unlock()
	cs.logger.Debug("remote: chunk evicted", "map", cs.mapID.String(), "chunk", int64(chunkKey))
}

// chunkForKey returns the index into idx.keys (and the ChunkKey at
// that index) whose range covers ck, per idx's ascending-order
// invariant: the last chunk key <= ck.
func chunkForKey(idx *chunkIndex, ck ChunkKey) (pos int, chunkKey ChunkKey, ok bool) {
	i := sort.Search(len(idx.keys), func(i int) bool { return idx.keys[i] > ck })
	if i == 0 {
		return 0, 0, false
	}
	return i - 1, idx.keys[i-1], true
}

// Add persists k=v into the chunk whose range covers k: this always
// either durably persists the value (lock -> mutate cached copy ->
// SaveChunk -> update local index) or returns an error; it never
// silently drops the write. k falling outside every existing chunk's
// range is an error: this facade does not create new chunks itself,
// since deciding split points is a policy decision left to the
// caller's KeysLoader/ChunkSaver pairing.
func (cs *ChunkedSeries[K, V]) Add(ctx context.Context, k K, v V) error {
	idx := cs.index.Load()
	_, chunkKey, ok := chunkForKey(idx, chunkKeyFor(cs.cmp, k))
	if !ok {
		return series.WrapRemote("ChunkedSeries.Add", errNoChunkForKey)
	}

	// Load (taking and releasing the chunk lock on a cache miss) before
	// locking for the write, since the lock is not reentrant.
	chunk, err := cs.loadChunk(ctx, chunkKey)
	if err != nil {
		return err
	}

	unlock, err := cs.locker.Lock(ctx, cs.mapID, chunkKey)
	if err != nil {
		cs.logger.Debug("remote: chunk lock denied", "map", cs.mapID.String(), "chunk", int64(chunkKey), "error", err)
		return series.WrapRemote("ChunkLocker", err)
	}
	defer unlock()

	if _, err := chunk.Set(k, v); err != nil {
		return err
	}

	pairs := toWirePairs[K, V](chunk)
	newVersion, err := cs.saver.SaveChunk(ctx, cs.mapID, chunkKey, pairs)
	if err != nil {
		return series.WrapRemote("ChunkSaver", err)
	}
	cs.recordChunkVersion(chunkKey, newVersion)
	cs.logger.Debug("remote: chunk saved", "map", cs.mapID.String(), "chunk", int64(chunkKey), "pairs", len(pairs), "version", newVersion)
	return nil
}

// RemoveChunks removes every chunk on dir's side of (and, for EQ,
// exactly) chunkKeyFor(k) through ChunkRemover, updating the local
// index to match without waiting for a KeysLoader round-trip.
func (cs *ChunkedSeries[K, V]) RemoveChunks(ctx context.Context, k K, dir series.Direction) error {
	ck := chunkKeyFor(cs.cmp, k)
	unlock, err := cs.locker.Lock(ctx, cs.mapID, ck)
	if err != nil {
		return series.WrapRemote("ChunkLocker", err)
	}
	defer unlock()

	newVersion, err := cs.remover.RemoveChunk(ctx, cs.mapID, ck, dir)
	if err != nil {
		return series.WrapRemote("ChunkRemover", err)
	}
	cs.dropChunkRange(ck, dir)
	cs.bumpVersion(newVersion)
	cs.logger.Debug("remote: chunks removed", "map", cs.mapID.String(), "pivot", int64(ck), "dir", dir.String(), "version", newVersion)
	return nil
}

// dropChunkRange removes the index entries (and cached containers) on
// dir's side of ck from the locally-held index, mirroring the range
// RemoveChunk just deleted remotely.
func (cs *ChunkedSeries[K, V]) dropChunkRange(ck ChunkKey, dir series.Direction) {
	old := cs.index.Load()
	versions := make(map[ChunkKey]ChunkVersion, len(old.versions))
	cs.cacheMu.Lock()
	for key, v := range old.versions {
		remove := false
		switch dir {
		case series.EQ:
			remove = key == ck
		case series.LT:
			remove = key < ck
		case series.LE:
			remove = key <= ck
		case series.GT:
			remove = key > ck
		case series.GE:
			remove = key >= ck
		}
		if remove {
			delete(cs.cache, key)
			continue
		}
		versions[key] = v
	}
	cs.cacheMu.Unlock()
	cs.installIndex(versions)
}

func toWirePairs[K, V any](c *seriessorted.Container[K, V]) []Pair[K, V] {
	sl := series.ToSlice(c.Cursor())
	out := make([]Pair[K, V], len(sl))
	for i, p := range sl {
		out[i] = Pair[K, V]{Key: p.Key, Value: p.Value}
	}
	return out
}

func (cs *ChunkedSeries[K, V]) recordChunkVersion(chunkKey ChunkKey, v MapVersion) {
	old := cs.index.Load()
	versions := make(map[ChunkKey]ChunkVersion, len(old.versions)+1)
	for k, ver := range old.versions {
		versions[k] = ver
	}
	_, existed := versions[chunkKey]
	versions[chunkKey] = v

	keys := old.keys
	if !existed {
		i := sort.Search(len(keys), func(i int) bool { return keys[i] >= chunkKey })
		keys = slices.Insert(slices.Clone(keys), i, chunkKey)
	}
	cs.index.Store(&chunkIndex{keys: keys, versions: versions})
	cs.bumpVersion(v)
}

// PrefetchAll loads every chunk in the current index concurrently
// through golang.org/x/sync/errgroup, so a cold facade doesn't pay the
// remote round-trip latency serially chunk-by-chunk. It starts one
// goroutine per chunk; the number of concurrent loads is not limited.
func (cs *ChunkedSeries[K, V]) PrefetchAll(ctx context.Context) error {
	idx := cs.index.Load()
	g, gctx := errgroup.WithContext(ctx)
	for _, ck := range idx.keys {
		ck := ck
		g.Go(func() error {
			_, err := cs.loadChunk(gctx, ck)
			return err
		})
	}
	return g.Wait()
}

var errNoChunkForKey = chunkRangeError("key falls outside every known chunk range")

type chunkRangeError string

func (e chunkRangeError) Error() string { return string(e) }
