// File: backend/file/file.go
//
// Local-filesystem storage backend. Reads are scheduled on a shared
// worker executor and performed with positional pread(2)-style calls,
// so concurrent requests never contend on a shared file offset.

package file

import (
	"context"
	"fmt"
	"os"

	"github.com/stornado/stornado/api"
	"github.com/stornado/stornado/internal/concurrency"
)

// Config tunes the backend. The zero value is usable.
type Config struct {
	// Workers is the number of read worker goroutines. Non-positive
	// means one per CPU.
	Workers int

	// QueueDepth is the scheduler queue size. It must cover the summed
	// capacity of every reactor sharing this backend; non-positive means
	// 1024.
	QueueDepth int

	// Direct opens files with O_DIRECT. Linux only; callers must supply
	// block-aligned buffers, offsets and lengths.
	Direct bool
}

// Backend reads from the local filesystem.
type Backend struct {
	cfg  Config
	exec *concurrency.Executor
}

var _ api.Backend = (*Backend)(nil)

// New creates a file backend with its worker pool started.
func New(cfg Config) *Backend {
	return &Backend{
		cfg:  cfg,
		exec: concurrency.NewExecutor(cfg.Workers, cfg.QueueDepth),
	}
}

// Open resolves path to a readable file.
func (b *Backend) Open(_ context.Context, path string) (api.Object, error) {
	f, err := openFile(path, b.cfg.Direct)
	if err != nil {
		return nil, fmt.Errorf("file backend: %w", err)
	}
	return &object{f: f, exec: b.exec}, nil
}

// Close stops the worker pool. Only valid once no reads are pending.
func (b *Backend) Close() error {
	b.exec.Close()
	return nil
}

type object struct {
	f    *os.File
	exec *concurrency.Executor
}

func (o *object) ReadAt(p []byte, off int64, done api.CompletionFunc) {
	err := o.exec.Submit(func() {
		n, err := pread(o.f, p, off)
		done(int64(n), err)
	})
	if err != nil {
		// A scheduling failure is still a terminal outcome for the
		// request; it must not vanish.
		done(0, err)
	}
}

func (o *object) Close() error {
	return o.f.Close()
}
