// Package localfile mmaps a flat snapshot file as a read-through local
// cache of a remote chunked series's index and chunk contents, so a
// process restart can serve reads before the first remote round trip
// completes. It wraps the teacher's sibling mmap package (mmap.Mmap/
// mmap.Munmap) the same way vecgo's internal/vectorstore.MmapStore
// wraps vecgo's internal/mmap: an Open call maps the whole file once,
// and Snapshot slices directly into the mapping rather than copying it
// into heap buffers, ported here from a fixed-layout vector store to a
// record stream of msgpack-encoded chunk blobs located through an
// offset table read from the file's header. A snapshot file holds
// exactly one map's chunks, identified by the MapID recorded in its
// header.
package localfile

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/chronocursor/seriesdb/mmap"
	"github.com/chronocursor/seriesdb/remote"
)

const (
	magic         uint32 = 0x53444C46 // "SDLF"
	formatVersion uint32 = 2
	headerSize           = 32 // magic, version, chunkCount, reserved (uint32 x4) + mapID (16 bytes)
)

// Snapshot is a read-only, mmap'd view of a previously written local
// cache file, holding the chunks of exactly one map. Safe for
// concurrent use by multiple goroutines; none of its methods mutate
// the mapping.
type Snapshot[K, V any] struct {
	data     []byte
	mapID    remote.MapID
	keys     []remote.ChunkKey
	versions []remote.ChunkVersion
	// offset/length of each chunk's msgpack-encoded pair slice, in
	// keys order.
	offsets []uint64
	lengths []uint64
}

// Open mmaps path and parses its header and index. The returned
// Snapshot keeps the mapping alive until Close is called.
func Open[K, V any](path string) (*Snapshot[K, V], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("localfile: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < headerSize {
		return nil, fmt.Errorf("localfile: %s too small to be a snapshot", path)
	}

	data, err := mmap.Mmap(f, 0, int(info.Size()), 0)
	if err != nil {
		return nil, fmt.Errorf("localfile: mmap %s: %w", path, err)
	}

	s := &Snapshot[K, V]{data: data}
	if err := s.parseHeader(); err != nil {
		mmap.Munmap(data)
		return nil, err
	}
	return s, nil
}

// Close unmaps the snapshot's backing memory. The Snapshot must not be
// used afterward.
func (s *Snapshot[K, V]) Close() error {
	if s.data == nil {
		return nil
	}
	err := mmap.Munmap(s.data)
	s.data = nil
	return err
}

func (s *Snapshot[K, V]) parseHeader() error {
	if binary.LittleEndian.Uint32(s.data[0:4]) != magic {
		return fmt.Errorf("localfile: bad magic")
	}
	if binary.LittleEndian.Uint32(s.data[4:8]) != formatVersion {
		return fmt.Errorf("localfile: unsupported format version")
	}
	n := int(binary.LittleEndian.Uint32(s.data[8:12]))
	copy(s.mapID[:], s.data[16:32])
	indexLen := binary.LittleEndian.Uint64(s.data[32:40])

	pos := uint64(headerSize) + 8 // headerSize + the 8-byte indexLen field read above
	if pos+indexLen > uint64(len(s.data)) {
		return fmt.Errorf("localfile: truncated index")
	}
	var wire []wireEntry
	if err := msgpack.Unmarshal(s.data[pos:pos+indexLen], &wire); err != nil {
		return fmt.Errorf("localfile: decode index: %w", err)
	}
	if len(wire) != n {
		return fmt.Errorf("localfile: index length mismatch")
	}
	pos += indexLen

	keys := make([]remote.ChunkKey, n)
	versions := make([]remote.ChunkVersion, n)
	offsets := make([]uint64, n)
	lengths := make([]uint64, n)
	for i, w := range wire {
		keys[i] = w.ChunkKey
		versions[i] = w.Version
		if pos+16 > uint64(len(s.data)) {
			return fmt.Errorf("localfile: truncated chunk table")
		}
		offsets[i] = binary.LittleEndian.Uint64(s.data[pos : pos+8])
		lengths[i] = binary.LittleEndian.Uint64(s.data[pos+8 : pos+16])
		pos += 16
	}

	s.keys = keys
	s.versions = versions
	s.offsets = offsets
	s.lengths = lengths
	return nil
}

type wireEntry struct {
	ChunkKey remote.ChunkKey
	Version  remote.ChunkVersion
}

func (s *Snapshot[K, V]) indexOf(chunkKey remote.ChunkKey) int {
	for i, ck := range s.keys {
		if ck == chunkKey {
			return i
		}
	}
	return -1
}

// LoadKeys implements remote.KeysLoader, letting a Snapshot stand in
// directly for a real KeysLoader until the first successful Refresh
// against the genuine remote. Returns an error if mapID doesn't match
// the map this snapshot was written for.
func (s *Snapshot[K, V]) LoadKeys(ctx context.Context, mapID remote.MapID, sinceVersion remote.MapVersion) (map[remote.ChunkKey]remote.ChunkVersion, error) {
	if mapID != s.mapID {
		return nil, fmt.Errorf("localfile: snapshot holds map %s, not %s", s.mapID, mapID)
	}
	out := make(map[remote.ChunkKey]remote.ChunkVersion, len(s.keys))
	for i, ck := range s.keys {
		if s.versions[i] > sinceVersion {
			out[ck] = s.versions[i]
		}
	}
	return out, nil
}

// LoadChunk implements remote.ChunkLoader, decoding directly out of
// the mapped bytes with no intermediate file read.
func (s *Snapshot[K, V]) LoadChunk(ctx context.Context, mapID remote.MapID, chunkKey remote.ChunkKey) ([]remote.Pair[K, V], error) {
	if mapID != s.mapID {
		return nil, fmt.Errorf("localfile: snapshot holds map %s, not %s", s.mapID, mapID)
	}
	i := s.indexOf(chunkKey)
	if i < 0 {
		return nil, nil
	}
	start := s.offsets[i]
	end := start + s.lengths[i]
	if end > uint64(len(s.data)) {
		return nil, fmt.Errorf("localfile: chunk %d out of range", chunkKey)
	}
	var pairs []remote.Pair[K, V]
	if err := msgpack.Unmarshal(s.data[start:end], &pairs); err != nil {
		return nil, fmt.Errorf("localfile: decode chunk %d: %w", chunkKey, err)
	}
	return pairs, nil
}

// Writer builds a snapshot file for one map from its chunk index and
// per-chunk pair data, for periodic checkpointing of a ChunkedSeries's
// current state.
type Writer[K, V any] struct {
	mapID    remote.MapID
	keys     []remote.ChunkKey
	versions []remote.ChunkVersion
	chunks   [][]remote.Pair[K, V] // parallel to keys
}

// NewWriter returns an empty Writer for mapID's snapshot.
func NewWriter[K, V any](mapID remote.MapID) *Writer[K, V] {
	return &Writer[K, V]{mapID: mapID}
}

// AddChunk appends one chunk's key, version and contents to the
// snapshot being built. Chunks may be added in any order.
func (w *Writer[K, V]) AddChunk(chunkKey remote.ChunkKey, version remote.ChunkVersion, pairs []remote.Pair[K, V]) {
	w.keys = append(w.keys, chunkKey)
	w.versions = append(w.versions, version)
	w.chunks = append(w.chunks, pairs)
}

// WriteTo writes the accumulated chunks to path as a snapshot file
// readable by Open.
func (w *Writer[K, V]) WriteTo(path string) error {
	type encoded struct {
		chunkKey remote.ChunkKey
		version  remote.ChunkVersion
		data     []byte
	}
	encodedChunks := make([]encoded, len(w.keys))
	for i := range w.keys {
		buf, err := msgpack.Marshal(w.chunks[i])
		if err != nil {
			return fmt.Errorf("localfile: encode chunk %d: %w", w.keys[i], err)
		}
		encodedChunks[i] = encoded{chunkKey: w.keys[i], version: w.versions[i], data: buf}
	}

	wire := make([]wireEntry, len(encodedChunks))
	for i, e := range encodedChunks {
		wire[i] = wireEntry{ChunkKey: e.chunkKey, Version: e.version}
	}
	indexBytes, err := msgpack.Marshal(wire)
	if err != nil {
		return fmt.Errorf("localfile: encode index: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("localfile: create %s: %w", path, err)
	}
	defer f.Close()

	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:4], magic)
	binary.LittleEndian.PutUint32(header[4:8], formatVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(encodedChunks)))
	// header[12:16] reserved, left zero.
	copy(header[16:32], w.mapID[:])
	if _, err := f.Write(header[:]); err != nil {
		return err
	}
	var indexLen [8]byte
	binary.LittleEndian.PutUint64(indexLen[:], uint64(len(indexBytes)))
	if _, err := f.Write(indexLen[:]); err != nil {
		return err
	}
	if _, err := f.Write(indexBytes); err != nil {
		return err
	}

	offset := uint64(headerSize) + 8 + uint64(len(indexBytes)) + uint64(len(encodedChunks))*16
	for _, e := range encodedChunks {
		var rec [16]byte
		binary.LittleEndian.PutUint64(rec[0:8], offset)
		binary.LittleEndian.PutUint64(rec[8:16], uint64(len(e.data)))
		if _, err := f.Write(rec[:]); err != nil {
			return err
		}
		offset += uint64(len(e.data))
	}
	for _, e := range encodedChunks {
		if _, err := f.Write(e.data); err != nil {
			return err
		}
	}
	return mmap.Fdatasync(f, nil)
}
