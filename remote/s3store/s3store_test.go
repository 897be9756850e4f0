package s3store

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	series "github.com/chronocursor/seriesdb"
	"github.com/chronocursor/seriesdb/remote"
)

// fakeS3 is an in-memory S3API backing the Store tests.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string][]byte)} }

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf, ok := f.objects[*params.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(buf))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	buf, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[*params.Key] = buf
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, *params.Key)
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

// fakeDDB is an in-memory DDBAPI backing the Locker tests, implementing
// the same conditional-write semantics as a real table with a
// lock_id partition key and an expires_at attribute.
type fakeDDB struct {
	mu    sync.Mutex
	items map[string]int64 // lock_id -> expires_at (unix seconds)
}

func newFakeDDB() *fakeDDB { return &fakeDDB{items: make(map[string]int64)} }

func (f *fakeDDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := params.Item["lock_id"].(*ddbtypes.AttributeValueMemberS).Value
	newExpiry := params.Item["expires_at"].(*ddbtypes.AttributeValueMemberN).Value
	now := params.ExpressionAttributeValues[":now"].(*ddbtypes.AttributeValueMemberN).Value

	if existing, held := f.items[id]; held {
		nowVal, _ := strconv.ParseInt(now, 10, 64)
		if existing >= nowVal {
			return nil, &ddbtypes.ConditionalCheckFailedException{}
		}
	}
	expiryVal, _ := strconv.ParseInt(newExpiry, 10, 64)
	f.items[id] = expiryVal
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := params.Key["lock_id"].(*ddbtypes.AttributeValueMemberS).Value
	delete(f.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestStore_SaveChunkLoadKeys(t *testing.T) {
	s := New[int64, string](newFakeS3(), "bucket", "prefix")
	ctx := context.Background()
	mapID := remote.NewMapID()

	data := []remote.Pair[int64, string]{{Key: 1, Value: "a"}}
	version, err := s.SaveChunk(ctx, mapID, remote.ChunkKey(5), data)
	if err != nil {
		t.Fatalf("SaveChunk() error = %v", err)
	}

	got, err := s.LoadKeys(ctx, mapID, 0)
	if err != nil {
		t.Fatalf("LoadKeys() error = %v", err)
	}
	if v, ok := got[remote.ChunkKey(5)]; !ok || v != version {
		t.Fatalf("LoadKeys() = %v, wanted chunk 5 at version %d", got, version)
	}
}

func TestStore_LoadKeys_MissingIndex(t *testing.T) {
	s := New[int64, string](newFakeS3(), "bucket", "prefix")
	got, err := s.LoadKeys(context.Background(), remote.NewMapID(), 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("LoadKeys() on a missing index = %v, %v, wanted empty, nil", got, err)
	}
}

func TestStore_LoadKeys_Incremental(t *testing.T) {
	s := New[int64, string](newFakeS3(), "bucket", "prefix")
	ctx := context.Background()
	mapID := remote.NewMapID()

	v1, err := s.SaveChunk(ctx, mapID, remote.ChunkKey(1), nil)
	if err != nil {
		t.Fatalf("SaveChunk(1) error = %v", err)
	}
	if _, err := s.SaveChunk(ctx, mapID, remote.ChunkKey(2), nil); err != nil {
		t.Fatalf("SaveChunk(2) error = %v", err)
	}

	got, err := s.LoadKeys(ctx, mapID, v1)
	if err != nil {
		t.Fatalf("LoadKeys(sinceVersion=%d) error = %v", v1, err)
	}
	if _, ok := got[remote.ChunkKey(1)]; ok {
		t.Fatalf("LoadKeys(sinceVersion=%d) = %v, did not expect chunk 1", v1, got)
	}
	if _, ok := got[remote.ChunkKey(2)]; !ok {
		t.Fatalf("LoadKeys(sinceVersion=%d) = %v, expected chunk 2", v1, got)
	}
}

func TestStore_SaveChunkLoadChunk(t *testing.T) {
	s := New[int64, string](newFakeS3(), "bucket", "prefix")
	ctx := context.Background()
	mapID := remote.NewMapID()

	data := []remote.Pair[int64, string]{{Key: 1, Value: "a"}, {Key: 2, Value: "b"}}
	if _, err := s.SaveChunk(ctx, mapID, remote.ChunkKey(0), data); err != nil {
		t.Fatalf("SaveChunk() error = %v", err)
	}

	got, err := s.LoadChunk(ctx, mapID, remote.ChunkKey(0))
	if err != nil {
		t.Fatalf("LoadChunk() error = %v", err)
	}
	if len(got) != 2 || got[0] != data[0] || got[1] != data[1] {
		t.Fatalf("LoadChunk() = %v, wanted %v", got, data)
	}
}

func TestStore_LoadChunk_Missing(t *testing.T) {
	s := New[int64, string](newFakeS3(), "bucket", "prefix")
	got, err := s.LoadChunk(context.Background(), remote.NewMapID(), remote.ChunkKey(0))
	if err != nil || got != nil {
		t.Fatalf("LoadChunk() on a missing chunk = %v, %v, wanted nil, nil", got, err)
	}
}

func TestStore_RemoveChunk_EQ(t *testing.T) {
	s := New[int64, string](newFakeS3(), "bucket", "prefix")
	ctx := context.Background()
	mapID := remote.NewMapID()

	if _, err := s.SaveChunk(ctx, mapID, remote.ChunkKey(1), []remote.Pair[int64, string]{{Key: 1, Value: "a"}}); err != nil {
		t.Fatalf("SaveChunk() error = %v", err)
	}

	if _, err := s.RemoveChunk(ctx, mapID, remote.ChunkKey(1), series.EQ); err != nil {
		t.Fatalf("RemoveChunk() error = %v", err)
	}
	got, err := s.LoadChunk(ctx, mapID, remote.ChunkKey(1))
	if err != nil || got != nil {
		t.Fatalf("LoadChunk() after RemoveChunk = %v, %v, wanted nil, nil", got, err)
	}
	keys, err := s.LoadKeys(ctx, mapID, 0)
	if err != nil || len(keys) != 0 {
		t.Fatalf("LoadKeys() after RemoveChunk = %v, %v, wanted empty", keys, err)
	}
}

func TestStore_RemoveChunk_Range(t *testing.T) {
	s := New[int64, string](newFakeS3(), "bucket", "prefix")
	ctx := context.Background()
	mapID := remote.NewMapID()

	for _, ck := range []remote.ChunkKey{1, 2, 3} {
		if _, err := s.SaveChunk(ctx, mapID, ck, nil); err != nil {
			t.Fatalf("SaveChunk(%d) error = %v", ck, err)
		}
	}
	if _, err := s.RemoveChunk(ctx, mapID, remote.ChunkKey(2), series.GE); err != nil {
		t.Fatalf("RemoveChunk() error = %v", err)
	}
	keys, err := s.LoadKeys(ctx, mapID, 0)
	if err != nil {
		t.Fatalf("LoadKeys() error = %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("LoadKeys() after range removal = %v, wanted only chunk 1", keys)
	}
	if _, ok := keys[remote.ChunkKey(1)]; !ok {
		t.Fatalf("LoadKeys() missing chunk 1: %v", keys)
	}
}

func TestLocker_LockUnlock(t *testing.T) {
	l := NewLocker(newFakeDDB(), "locks", 0)
	mapID := remote.NewMapID()
	chunkKey := remote.ChunkKey(0)

	unlock, err := l.Lock(context.Background(), mapID, chunkKey)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock() error = %v", err)
	}

	// Relocking after unlock must succeed.
	if _, err := l.Lock(context.Background(), mapID, chunkKey); err != nil {
		t.Fatalf("Lock() after unlock error = %v", err)
	}
}

func TestLocker_LockHeld(t *testing.T) {
	l := NewLocker(newFakeDDB(), "locks", 0)
	mapID := remote.NewMapID()
	chunkKey := remote.ChunkKey(0)

	if _, err := l.Lock(context.Background(), mapID, chunkKey); err != nil {
		t.Fatalf("first Lock() error = %v", err)
	}
	if _, err := l.Lock(context.Background(), mapID, chunkKey); err != ErrLockHeld {
		t.Fatalf("second Lock() error = %v, wanted ErrLockHeld", err)
	}
}

func TestLocker_DistinctChunksIndependentLocks(t *testing.T) {
	l := NewLocker(newFakeDDB(), "locks", 0)
	mapID := remote.NewMapID()

	if _, err := l.Lock(context.Background(), mapID, remote.ChunkKey(1)); err != nil {
		t.Fatalf("Lock(chunk 1) error = %v", err)
	}
	if _, err := l.Lock(context.Background(), mapID, remote.ChunkKey(2)); err != nil {
		t.Fatalf("Lock(chunk 2) error = %v, wanted independent lock to succeed", err)
	}
}
