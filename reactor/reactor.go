// File: reactor/reactor.go
//
// Reactor owns the in-flight accounting, the completion sink and the
// reaped-completion FIFO. The capacity invariant: in-flight plus
// completed-but-undrained requests never exceed the capacity fixed at
// creation. The completion channel is buffered to capacity, so a backend
// posting a terminal outcome can never block.

package reactor

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/stornado/stornado/api"
)

// Reactor coordinates submission and completion of asynchronous reads
// for a single host thread.
type Reactor struct {
	capacity int
	backend  api.Backend

	// slots counts admitted requests not yet drained. sessions counts
	// open Sessions referencing this reactor.
	slots    atomic.Int64
	sessions atomic.Int64
	closed   atomic.Bool

	// completions is the cross-goroutine sink; reaped is touched only by
	// the owning host thread.
	completions chan api.Completion
	reaped      *queue.Queue

	stats statCounters
}

type statCounters struct {
	submitted atomic.Uint64
	rejected  atomic.Uint64
	completed atomic.Uint64
	errors    atomic.Uint64
	drained   atomic.Uint64
}

// Stats is a point-in-time snapshot of reactor counters.
type Stats struct {
	Submitted uint64
	Rejected  uint64
	Completed uint64
	Errors    uint64
	Drained   uint64
	InFlight  int64
}

// New creates a reactor that admits at most capacity concurrent
// requests against backend b.
func New(capacity int, b api.Backend) (*Reactor, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity %d", api.ErrInvalidArgument, capacity)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: nil backend", api.ErrInvalidArgument)
	}
	slog.Debug("reactor init", "capacity", capacity)
	return &Reactor{
		capacity:    capacity,
		backend:     b,
		completions: make(chan api.Completion, capacity),
		reaped:      queue.New(),
	}, nil
}

// Capacity returns the maximum number of concurrently admitted requests.
func (r *Reactor) Capacity() int {
	return r.capacity
}

// Submit validates and admits one read request. A nil return means
// "queued": the caller must not assume completion has occurred. Non-read
// directions are rejected synchronously with api.ErrInvalidDirection and
// never enter the queue; a full in-flight queue yields api.ErrQueueFull
// and the host retries on its next cycle.
func (r *Reactor) Submit(s *Session, dir api.Direction, correlation any, off int64, buf []byte) error {
	if r.closed.Load() {
		return api.ErrInvalidHandle
	}
	if dir != api.DirRead {
		r.stats.rejected.Add(1)
		return fmt.Errorf("%w: %s", api.ErrInvalidDirection, dir)
	}
	if s == nil || s.reactor != r {
		return api.ErrInvalidHandle
	}
	if s.closed.Load() {
		return api.ErrSessionClosed
	}

	if r.slots.Add(1) > int64(r.capacity) {
		r.slots.Add(-1)
		r.stats.rejected.Add(1)
		return api.ErrQueueFull
	}
	r.stats.submitted.Add(1)

	s.obj.ReadAt(buf, off, func(n int64, err error) {
		if err != nil {
			r.stats.errors.Add(1)
		}
		r.stats.completed.Add(1)
		r.completions <- api.Completion{Correlation: correlation, Bytes: n, Err: err}
	})
	return nil
}

// Wait blocks until at least min requests have reached a terminal
// outcome, moves them to the reaped FIFO, opportunistically tops up to
// max, and returns the number now ready (never more than max). A
// timeout > 0 bounds the blocking phase; when it fires Wait returns
// however many completions arrived, possibly fewer than min. timeout 0
// blocks indefinitely.
func (r *Reactor) Wait(min, max int, timeout time.Duration) (int, error) {
	if min < 0 || max < min {
		return 0, fmt.Errorf("%w: wait min=%d max=%d", api.ErrInvalidArgument, min, max)
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for r.reaped.Length() < min {
		select {
		case c := <-r.completions:
			r.reaped.Add(c)
		case <-deadline:
			slog.Debug("wait deadline expired", "ready", r.reaped.Length(), "min", min)
			return r.ready(max), nil
		}
	}
	for r.reaped.Length() < max {
		select {
		case c := <-r.completions:
			r.reaped.Add(c)
		default:
			return r.ready(max), nil
		}
	}
	return r.ready(max), nil
}

func (r *Reactor) ready(max int) int {
	if n := r.reaped.Length(); n < max {
		return n
	}
	return max
}

// DrainOne pops one completion in FIFO order relative to when the
// backend marked it terminal, releasing its capacity slot. Fails with
// api.ErrEmptyQueue if nothing reaped remains; the host contract only
// drains as many entries as the last Wait reported.
func (r *Reactor) DrainOne() (api.Completion, error) {
	if r.reaped.Length() == 0 {
		return api.Completion{}, api.ErrEmptyQueue
	}
	c := r.reaped.Remove().(api.Completion)
	r.slots.Add(-1)
	r.stats.drained.Add(1)
	return c, nil
}

// Close tears the reactor down. It fails with api.ErrSessionsOpen while
// Sessions still reference it and with api.ErrRequestsInFlight while
// admitted requests remain undrained; the caller drains and retries. On
// success the backend is closed and the reactor refuses further use.
func (r *Reactor) Close() error {
	if r.closed.Load() {
		return api.ErrInvalidHandle
	}
	if r.sessions.Load() > 0 {
		return api.ErrSessionsOpen
	}
	if r.slots.Load() > 0 {
		return api.ErrRequestsInFlight
	}
	r.closed.Store(true)
	slog.Debug("reactor teardown", "stats", r.Stats())
	return r.backend.Close()
}

// Stats returns a snapshot of the reactor counters.
func (r *Reactor) Stats() Stats {
	return Stats{
		Submitted: r.stats.submitted.Load(),
		Rejected:  r.stats.rejected.Load(),
		Completed: r.stats.completed.Load(),
		Errors:    r.stats.errors.Load(),
		Drained:   r.stats.drained.Load(),
		InFlight:  r.slots.Load(),
	}
}
