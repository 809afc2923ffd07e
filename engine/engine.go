// File: engine/engine.go
//
// Token-based adapter surface over the reactor core. Tokens come from a
// package-level generational handle table; zero is reserved for
// signalling allocation failure to the host.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/stornado/stornado/api"
	"github.com/stornado/stornado/backend/file"
	"github.com/stornado/stornado/control"
	"github.com/stornado/stornado/handle"
	"github.com/stornado/stornado/reactor"
)

// BackendFactory creates the storage backend bound to one reactor. Each
// Init call invokes the factory once, so every host thread gets its own
// backend instance.
type BackendFactory func() (api.Backend, error)

var (
	handles = handle.NewTable()
	factory atomic.Value // holds a BackendFactory
)

func init() {
	factory.Store(BackendFactory(func() (api.Backend, error) {
		return file.New(file.Config{}), nil
	}))
}

// SetBackendFactory replaces the factory used by subsequent Init calls.
// The default builds a local-filesystem backend.
func SetBackendFactory(f BackendFactory) {
	if f != nil {
		factory.Store(f)
	}
}

// Init allocates a reactor admitting capacity concurrent reads and
// returns its token. 0 signals failure and is fatal for the calling
// engine instance.
func Init(capacity uint) uintptr {
	slog.Info("engine init", "iodepth", capacity)
	b, err := factory.Load().(BackendFactory)()
	if err != nil {
		slog.Error("engine init: backend creation failed", "error", err)
		return 0
	}
	r, err := reactor.New(int(capacity), b)
	if err != nil {
		slog.Error("engine init: reactor creation failed", "iodepth", capacity, "error", err)
		b.Close()
		return 0
	}
	return handles.Register(r)
}

// Open resolves path on the reactor's backend and returns a session
// token, or 0 on failure. A failed open registers nothing, so no stale
// token can ever be derived from it.
func Open(rtok uintptr, path string) uintptr {
	r, ok := resolveReactor("open", rtok)
	if !ok {
		return 0
	}
	s, err := r.Open(context.Background(), path)
	if err != nil {
		return 0
	}
	return handles.Register(s)
}

// Queue submits one read of len(buf) bytes at offset off against the
// session ftok. Returns 0 when the request was admitted ("queued", not
// completed) and a non-zero rejection code otherwise, mirrored back to
// the caller synchronously.
func Queue(rtok, ftok, correlation uintptr, dir int, off int64, buf []byte) int {
	r, ok := resolveReactor("queue", rtok)
	if !ok {
		return int(api.ErrCodeInvalidHandle)
	}
	s, ok := resolveSession("queue", ftok)
	if !ok {
		return int(api.ErrCodeInvalidHandle)
	}
	if err := r.Submit(s, api.Direction(dir), correlation, off, buf); err != nil {
		slog.Debug("queue rejected", "token", rtok, "error", err)
		return int(api.CodeOf(err))
	}
	return 0
}

// AwaitCompletions blocks until at least min requests reach a terminal
// outcome and returns how many may now be retrieved via GetEvent (never
// more than max). A timeout > 0 bounds the wait and may yield fewer
// than min; 0 blocks indefinitely. Returns -1 on a stale handle.
func AwaitCompletions(rtok uintptr, min, max int, timeout time.Duration) int {
	r, ok := resolveReactor("await completions", rtok)
	if !ok {
		return -1
	}
	n, err := r.Wait(min, max, timeout)
	if err != nil {
		slog.Error("await completions failed", "token", rtok, "error", err)
		return -1
	}
	return n
}

// GetEvent pops one completed request in completion order, returning
// its correlation token and error code (0 on success). Only valid as
// many times as the last AwaitCompletions reported; returns (0, -1) on
// a stale handle or an empty completion queue.
func GetEvent(rtok uintptr) (uintptr, int) {
	r, ok := resolveReactor("get event", rtok)
	if !ok {
		return 0, -1
	}
	c, err := r.DrainOne()
	if err != nil {
		slog.Error("get event: no reaped completions", "token", rtok)
		return 0, -1
	}
	corr, _ := c.Correlation.(uintptr)
	return corr, int(api.CodeOf(c.Err))
}

// CloseFile releases the session's backend resources and revokes its
// token. Returns -1 on a stale handle; backend release errors are
// logged and swallowed, matching the host's expectation that close
// always succeeds once the token was valid.
func CloseFile(ftok uintptr) int {
	s, ok := resolveSession("close", ftok)
	if !ok {
		return -1
	}
	if err := s.Close(); err != nil {
		slog.Error("close error (swallowing)", "token", ftok, "error", err)
	}
	handles.Revoke(ftok)
	return 0
}

// Cleanup tears the reactor down and revokes its token, publishing the
// final counters to the control registry. While sessions remain open or
// admitted requests are undrained the reactor and token stay valid so
// the host can drain and retry; the failure is only logged.
func Cleanup(rtok uintptr) {
	r, ok := resolveReactor("cleanup", rtok)
	if !ok {
		return
	}
	stats := r.Stats()
	if err := r.Close(); err != nil {
		slog.Error("cleanup failed", "token", rtok, "error", err)
		return
	}
	control.Default().Set(fmt.Sprintf("reactor.%d", rtok), stats)
	handles.Revoke(rtok)
	slog.Info("engine teardown", "token", rtok, "stats", stats)
}

func resolveReactor(op string, tok uintptr) (*reactor.Reactor, bool) {
	v, err := handles.Resolve(tok)
	if err != nil {
		slog.Error(op+": wrong reactor handle", "token", tok)
		return nil, false
	}
	r, ok := v.(*reactor.Reactor)
	if !ok {
		slog.Error(op+": wrong type handle", "token", tok)
		return nil, false
	}
	return r, ok
}

func resolveSession(op string, tok uintptr) (*reactor.Session, bool) {
	v, err := handles.Resolve(tok)
	if err != nil {
		slog.Error(op+": wrong session handle", "token", tok)
		return nil, false
	}
	s, ok := v.(*reactor.Session)
	if !ok {
		slog.Error(op+": wrong type handle", "token", tok)
		return nil, false
	}
	return s, ok
}
