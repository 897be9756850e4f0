// Package boltstore implements the remote package's chunk hooks on
// top of a local BoltDB file, values msgpack-encoded. Ported from the
// teacher's boltStorage/boltBucket wrapper (storage_bolt.go), which
// wraps *bbolt.Tx/*bbolt.Bucket behind the same storage interface the
// in-memory implementation satisfies; here the wrapping target is the
// remote package's KeysLoader/ChunkLoader/ChunkSaver/ChunkRemover
// hook set instead. One Store serves many independent maps: each gets
// its own top-level bucket, named after its MapID, holding an "idx"
// sub-bucket (chunk_key -> chunk_version) and a "data" sub-bucket
// (chunk_key -> msgpack-encoded chunk), plus a "version" key tracking
// the map's version counter.
package boltstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	series "github.com/chronocursor/seriesdb"
	"github.com/chronocursor/seriesdb/remote"
)

var (
	idxBucket  = []byte("idx")
	dataBucket = []byte("data")
	metaKey    = []byte("version")
)

// Store is a local BoltDB-backed implementation of
// remote.KeysLoader/ChunkLoader/ChunkSaver/ChunkRemover. It is the
// "local durable cache" reference backend named in SPEC_FULL's domain
// stack: usable as the sole remote for a single-process deployment, or
// layered in front of a real remote store as its local cache.
type Store[K, V any] struct {
	bdb *bbolt.DB

	lockMu sync.Mutex
	locks  map[lockKey]*sync.Mutex
}

type lockKey struct {
	mapID    remote.MapID
	chunkKey remote.ChunkKey
}

// Open opens (creating if necessary) a BoltDB file at path as chunk
// storage, matching the teacher's edb.Open bbolt.Options plumbing
// (db.go).
func Open[K, V any](path string) (*Store[K, V], error) {
	bdb, err := bbolt.Open(path, 0o666, bbolt.DefaultOptions)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	return &Store[K, V]{bdb: bdb, locks: make(map[lockKey]*sync.Mutex)}, nil
}

// Close releases the underlying BoltDB file handle.
func (s *Store[K, V]) Close() error { return s.bdb.Close() }

// Lock implements remote.ChunkLocker as a plain in-process mutex per
// (mapID, chunkKey) pair: sufficient within one process (the only
// deployment shape this store supports), unlike s3store's DynamoDB-CAS
// locker which must coordinate across processes.
func (s *Store[K, V]) Lock(ctx context.Context, mapID remote.MapID, chunkKey remote.ChunkKey) (func() error, error) {
	key := lockKey{mapID, chunkKey}
	s.lockMu.Lock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	s.lockMu.Unlock()

	m.Lock()
	return func() error {
		m.Unlock()
		return nil
	}, nil
}

func mapBucket(tx *bbolt.Tx, mapID remote.MapID, create bool) (*bbolt.Bucket, error) {
	if create {
		return tx.CreateBucketIfNotExists(mapID[:])
	}
	b := tx.Bucket(mapID[:])
	if b == nil {
		return nil, nil
	}
	return b, nil
}

// chunkKeyBytes encodes a ChunkKey so BoltDB's lexicographic byte
// ordering matches int64 numeric ordering: flip the sign bit before
// the big-endian encoding, the standard trick for storing signed
// integers in a byte-ordered key-value store.
func chunkKeyBytes(ck remote.ChunkKey) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(ck)^(1<<63))
	return buf[:]
}

func parseChunkKey(b []byte) remote.ChunkKey {
	return remote.ChunkKey(binary.BigEndian.Uint64(b) ^ (1 << 63))
}

func versionBytes(v remote.MapVersion) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return buf[:]
}

func parseVersion(b []byte) remote.MapVersion {
	return remote.MapVersion(binary.BigEndian.Uint64(b))
}

// nextVersion increments and returns the map's version counter,
// storing it back into the map bucket's meta key. Must run inside an
// Update transaction already holding mb.
func nextVersion(mb *bbolt.Bucket) (remote.MapVersion, error) {
	cur := remote.MapVersion(0)
	if raw := mb.Get(metaKey); raw != nil {
		cur = parseVersion(raw)
	}
	cur++
	if err := mb.Put(metaKey, versionBytes(cur)); err != nil {
		return 0, err
	}
	return cur, nil
}

// LoadKeys implements remote.KeysLoader: a full scan of the map's idx
// bucket when sinceVersion is 0, or only entries whose stamped
// ChunkVersion exceeds sinceVersion otherwise.
func (s *Store[K, V]) LoadKeys(ctx context.Context, mapID remote.MapID, sinceVersion remote.MapVersion) (map[remote.ChunkKey]remote.ChunkVersion, error) {
	out := make(map[remote.ChunkKey]remote.ChunkVersion)
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b, err := mapBucket(tx, mapID, false)
		if err != nil || b == nil {
			return err
		}
		idx := b.Bucket(idxBucket)
		if idx == nil {
			return nil
		}
		return idx.ForEach(func(k, v []byte) error {
			ver := parseVersion(v)
			if ver > sinceVersion {
				out[parseChunkKey(k)] = ver
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadChunk implements remote.ChunkLoader.
func (s *Store[K, V]) LoadChunk(ctx context.Context, mapID remote.MapID, chunkKey remote.ChunkKey) ([]remote.Pair[K, V], error) {
	var raw []byte
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b, err := mapBucket(tx, mapID, false)
		if err != nil || b == nil {
			return err
		}
		data := b.Bucket(dataBucket)
		if data == nil {
			return nil
		}
		if v := data.Get(chunkKeyBytes(chunkKey)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var pairs []remote.Pair[K, V]
	if err := msgpack.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("boltstore: decode chunk %d: %w", chunkKey, err)
	}
	return pairs, nil
}

// SaveChunk implements remote.ChunkSaver: writes the chunk's data,
// stamps its idx entry with a freshly incremented map version, and
// returns that version.
func (s *Store[K, V]) SaveChunk(ctx context.Context, mapID remote.MapID, chunkKey remote.ChunkKey, data []remote.Pair[K, V]) (remote.MapVersion, error) {
	buf, err := msgpack.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("boltstore: encode chunk %d: %w", chunkKey, err)
	}
	var version remote.MapVersion
	err = s.bdb.Update(func(tx *bbolt.Tx) error {
		mb, err := mapBucket(tx, mapID, true)
		if err != nil {
			return err
		}
		idx, err := mb.CreateBucketIfNotExists(idxBucket)
		if err != nil {
			return err
		}
		dataB, err := mb.CreateBucketIfNotExists(dataBucket)
		if err != nil {
			return err
		}
		version, err = nextVersion(mb)
		if err != nil {
			return err
		}
		if err := dataB.Put(chunkKeyBytes(chunkKey), buf); err != nil {
			return err
		}
		return idx.Put(chunkKeyBytes(chunkKey), versionBytes(version))
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

// RemoveChunk implements remote.ChunkRemover: deletes every chunk on
// dir's side of (and, for EQ, exactly) chunkKey, stamping the removal
// with a freshly incremented map version.
func (s *Store[K, V]) RemoveChunk(ctx context.Context, mapID remote.MapID, chunkKey remote.ChunkKey, dir series.Direction) (remote.MapVersion, error) {
	var version remote.MapVersion
	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		mb, err := mapBucket(tx, mapID, true)
		if err != nil {
			return err
		}
		idx, err := mb.CreateBucketIfNotExists(idxBucket)
		if err != nil {
			return err
		}
		dataB, err := mb.CreateBucketIfNotExists(dataBucket)
		if err != nil {
			return err
		}
		toDelete, err := selectRange(idx, chunkKey, dir)
		if err != nil {
			return err
		}
		for _, k := range toDelete {
			if err := idx.Delete(k); err != nil {
				return err
			}
			if err := dataB.Delete(k); err != nil {
				return err
			}
		}
		version, err = nextVersion(mb)
		return err
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

// selectRange collects the idx keys on dir's side of pivot, using the
// bucket's own byte ordering (which chunkKeyBytes makes numeric).
func selectRange(idx *bbolt.Bucket, pivot remote.ChunkKey, dir series.Direction) ([][]byte, error) {
	var out [][]byte
	c := idx.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		ck := parseChunkKey(k)
		match := false
		switch dir {
		case series.EQ:
			match = ck == pivot
		case series.LT:
			match = ck < pivot
		case series.LE:
			match = ck <= pivot
		case series.GT:
			match = ck > pivot
		case series.GE:
			match = ck >= pivot
		}
		if match {
			out = append(out, append([]byte(nil), k...))
		}
	}
	return out, nil
}
