// File: api/backend.go
//
// Storage backend abstraction. A Backend resolves paths to Objects;
// an Object schedules asynchronous reads with its own concurrency
// (worker pool, goroutine-per-read, remote completion stream) that
// stays invisible to the reactor core.

package api

import "context"

// CompletionFunc is invoked exactly once when a scheduled read reaches a
// terminal outcome. n is the number of bytes delivered into the caller's
// buffer; err is nil on success.
type CompletionFunc func(n int64, err error)

// Object is one opened storage object. ReadAt must not block the caller:
// the read is scheduled and done fires later, possibly on another
// goroutine. The destination buffer is owned by the caller and must stay
// valid and unmoved until done fires.
type Object interface {
	// ReadAt schedules a read of len(p) bytes at byte offset off.
	ReadAt(p []byte, off int64, done CompletionFunc)

	// Close releases backend resources held for this object.
	Close() error
}

// Backend resolves paths against a concrete storage mechanism.
type Backend interface {
	// Open resolves path to an Object. A failed open must not leak
	// backend resources.
	Open(ctx context.Context, path string) (Object, error)

	// Close tears the backend down. Only called once no Objects opened
	// through it remain in use.
	Close() error
}
