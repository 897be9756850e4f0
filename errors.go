package series

import (
	"errors"
	"fmt"
)

// ErrCompleted is returned (wrapped) by any mutation attempted against a
// series after Complete has been called.
var ErrCompleted = errors.New("series: completed")

// ErrCancelled is returned, unwrapped, to an async waiter whose cancellation
// token fired before new data arrived.
var ErrCancelled = errors.New("series: wait cancelled")

// ErrKeyNotFound is returned by point lookups against a missing key.
var ErrKeyNotFound = errors.New("series: key not found")

// ErrDuplicateKey is returned by an unconditional Add against an existing key.
var ErrDuplicateKey = errors.New("series: duplicate key")

// KeyError wraps ErrKeyNotFound/ErrDuplicateKey with the offending
// key: a struct carrying enough context to format a useful message,
// with Unwrap to the sentinel.
type KeyError struct {
	Op  string
	Key any
	Err error
}

func (e *KeyError) Unwrap() error { return e.Err }

func (e *KeyError) Error() string {
	return fmt.Sprintf("series: %s %v: %v", e.Op, e.Key, e.Err)
}

func keyNotFoundErr(op string, key any) error {
	return &KeyError{Op: op, Key: key, Err: ErrKeyNotFound}
}

func duplicateKeyErr(op string, key any) error {
	return &KeyError{Op: op, Key: key, Err: ErrDuplicateKey}
}

func completedErr(op string) error {
	return fmt.Errorf("series: %s: %w", op, ErrCompleted)
}

// OverlapError is returned by TryAppend when the overlap policy rejects
// the append, or when RequireEqualOverlap finds no overlap at all.
type OverlapError struct {
	Op         string
	Reason     string
	ThisEnd    any
	OtherStart any
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("series: %s: %s (this.last=%v, other.first=%v)", e.Op, e.Reason, e.ThisEnd, e.OtherStart)
}

// RemoteError wraps any failure surfaced by a remote chunk hook
// (KeysLoader, ChunkLoader, ChunkSaver, ChunkRemover, ChunkLocker),
// attaching which hook failed.
type RemoteError struct {
	Hook string
	Err  error
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Error() string {
	return fmt.Sprintf("series: remote %s failed: %v", e.Hook, e.Err)
}

// WrapRemote attaches hook context to an error returned by a remote chunk
// hook. Returns nil if err is nil.
func WrapRemote(hook string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Hook: hook, Err: err}
}

// invariantViolation panics: the version/latch invariants of a mutable
// series cannot be safely rebuilt once broken, so this is treated as
// fatal rather than returned as an error.
func invariantViolation(format string, args ...any) {
	panic(fmt.Errorf("series: invariant violation: "+format, args...))
}
