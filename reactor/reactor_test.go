package reactor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/stornado/stornado/api"
)

// fakeBackend resolves paths against an in-memory object map. In manual
// mode completions are held until the test fires them, which makes
// completion order and timing deterministic.
type fakeBackend struct {
	data   map[string][]byte
	manual bool

	mu     sync.Mutex
	held   []func()
	closed bool
}

func newFakeBackend(manual bool) *fakeBackend {
	return &fakeBackend{
		data: map[string][]byte{
			"vol/blob": []byte("0123456789abcdefghijklmnopqrstuv"),
		},
		manual: manual,
	}
}

func (b *fakeBackend) Open(_ context.Context, path string) (api.Object, error) {
	d, ok := b.data[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return &fakeObject{backend: b, data: d}, nil
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// fire runs the i-th held completion, letting tests choose completion
// order independently of submission order.
func (b *fakeBackend) fire(i int) {
	b.mu.Lock()
	f := b.held[i]
	b.held[i] = func() {}
	b.mu.Unlock()
	f()
}

func (b *fakeBackend) fireAll() {
	b.mu.Lock()
	held := b.held
	b.held = nil
	b.mu.Unlock()
	for _, f := range held {
		f()
	}
}

type fakeObject struct {
	backend *fakeBackend
	data    []byte
}

func (o *fakeObject) ReadAt(p []byte, off int64, done api.CompletionFunc) {
	complete := func() {
		if off >= int64(len(o.data)) {
			done(0, io.EOF)
			return
		}
		n := copy(p, o.data[off:])
		if n < len(p) {
			done(int64(n), io.ErrUnexpectedEOF)
			return
		}
		done(int64(n), nil)
	}
	if o.backend.manual {
		o.backend.mu.Lock()
		o.backend.held = append(o.backend.held, complete)
		o.backend.mu.Unlock()
		return
	}
	go complete()
}

func (o *fakeObject) Close() error { return nil }

func mustOpen(t *testing.T, r *Reactor, path string) *Session {
	t.Helper()
	s, err := r.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", path, err)
	}
	return s
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0, newFakeBackend(false)); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("New(0): got %v, want ErrInvalidArgument", err)
	}
	if _, err := New(-3, newFakeBackend(false)); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("New(-3): got %v, want ErrInvalidArgument", err)
	}
	if _, err := New(4, nil); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("New(4, nil): got %v, want ErrInvalidArgument", err)
	}
}

func TestSubmitCapacityBackpressure(t *testing.T) {
	b := newFakeBackend(true)
	r, err := New(4, b)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s := mustOpen(t, r, "vol/blob")

	buf := make([]byte, 4)
	for i := 0; i < 4; i++ {
		if err := r.Submit(s, api.DirRead, i, int64(i*4), buf); err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
	}
	if err := r.Submit(s, api.DirRead, 4, 16, buf); !errors.Is(err, api.ErrQueueFull) {
		t.Fatalf("5th Submit: got %v, want ErrQueueFull", err)
	}

	// Slots free only at drain time, not completion time.
	b.fireAll()
	n, err := r.Wait(4, 4, 0)
	if err != nil || n != 4 {
		t.Fatalf("Wait(4,4): got (%d, %v), want (4, nil)", n, err)
	}
	if err := r.Submit(s, api.DirRead, 5, 0, buf); !errors.Is(err, api.ErrQueueFull) {
		t.Fatalf("Submit with undrained completions: got %v, want ErrQueueFull", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := r.DrainOne(); err != nil {
			t.Fatalf("DrainOne %d failed: %v", i, err)
		}
	}
	if err := r.Submit(s, api.DirRead, 6, 0, buf); err != nil {
		t.Fatalf("Submit after drain failed: %v", err)
	}
}

func TestSubmitInvalidDirection(t *testing.T) {
	b := newFakeBackend(true)
	r, _ := New(2, b)
	s := mustOpen(t, r, "vol/blob")

	buf := make([]byte, 4)
	for _, dir := range []api.Direction{api.DirWrite, api.DirTrim} {
		if err := r.Submit(s, dir, "w", 0, buf); !errors.Is(err, api.ErrInvalidDirection) {
			t.Errorf("Submit(%s): got %v, want ErrInvalidDirection", dir, err)
		}
	}

	// Rejected submissions never become pending and never surface in a
	// wait count.
	n, err := r.Wait(0, 2, 0)
	if err != nil || n != 0 {
		t.Errorf("Wait after rejects: got (%d, %v), want (0, nil)", n, err)
	}
	if got := r.Stats().Rejected; got != 2 {
		t.Errorf("Stats().Rejected = %d, want 2", got)
	}
}

func TestWaitMinMaxBounds(t *testing.T) {
	b := newFakeBackend(true)
	r, _ := New(8, b)
	s := mustOpen(t, r, "vol/blob")

	buf := make([]byte, 2)
	for i := 0; i < 6; i++ {
		if err := r.Submit(s, api.DirRead, i, int64(i), buf); err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
	}
	b.fireAll() // all six terminal before the wait

	n, err := r.Wait(2, 4, 0)
	if err != nil || n != 4 {
		t.Fatalf("Wait(2,4): got (%d, %v), want (4, nil)", n, err)
	}
	for i := 0; i < 4; i++ {
		if _, err := r.DrainOne(); err != nil {
			t.Fatalf("DrainOne failed: %v", err)
		}
	}
	n, err = r.Wait(2, 2, 0)
	if err != nil || n != 2 {
		t.Fatalf("Wait(2,2): got (%d, %v), want (2, nil)", n, err)
	}
	for i := 0; i < 2; i++ {
		r.DrainOne()
	}

	if _, err := r.Wait(-1, 4, 0); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("Wait(-1,4): got %v, want ErrInvalidArgument", err)
	}
	if _, err := r.Wait(3, 1, 0); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("Wait(3,1): got %v, want ErrInvalidArgument", err)
	}
}

func TestDrainFIFOByCompletionTime(t *testing.T) {
	b := newFakeBackend(true)
	r, _ := New(4, b)
	s := mustOpen(t, r, "vol/blob")

	buf := make([]byte, 2)
	for _, corr := range []string{"a", "b", "c"} {
		if err := r.Submit(s, api.DirRead, corr, 0, buf); err != nil {
			t.Fatalf("Submit(%s) failed: %v", corr, err)
		}
	}

	// Complete out of submission order: c, a, b.
	b.fire(2)
	b.fire(0)
	b.fire(1)

	if n, _ := r.Wait(3, 3, 0); n != 3 {
		t.Fatalf("Wait(3,3) returned %d", n)
	}
	want := []string{"c", "a", "b"}
	for i, w := range want {
		c, err := r.DrainOne()
		if err != nil {
			t.Fatalf("DrainOne %d failed: %v", i, err)
		}
		if c.Correlation.(string) != w {
			t.Errorf("drain %d: got %v, want %s", i, c.Correlation, w)
		}
	}
}

func TestDrainEmptyQueue(t *testing.T) {
	r, _ := New(2, newFakeBackend(true))
	if _, err := r.DrainOne(); !errors.Is(err, api.ErrEmptyQueue) {
		t.Errorf("DrainOne on empty: got %v, want ErrEmptyQueue", err)
	}
}

func TestWaitTimeout(t *testing.T) {
	b := newFakeBackend(true)
	r, _ := New(2, b)
	s := mustOpen(t, r, "vol/blob")
	if err := r.Submit(s, api.DirRead, 0, 0, make([]byte, 2)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Nothing completes: the deadline must release the wait with fewer
	// than min completions.
	start := time.Now()
	n, err := r.Wait(1, 1, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if n != 0 {
		t.Errorf("timed-out Wait returned %d, want 0", n)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Wait blocked %v past its deadline", elapsed)
	}

	b.fireAll()
	if n, _ := r.Wait(1, 1, time.Second); n != 1 {
		t.Errorf("Wait after completion returned %d, want 1", n)
	}
}

func TestRoundTrip(t *testing.T) {
	b := newFakeBackend(false)
	r, _ := New(2, b)
	s := mustOpen(t, r, "vol/blob")

	buf := make([]byte, 8)
	if err := r.Submit(s, api.DirRead, "rt", 4, buf); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if n, _ := r.Wait(1, 1, 0); n != 1 {
		t.Fatal("Wait did not report the completion")
	}
	c, err := r.DrainOne()
	if err != nil {
		t.Fatalf("DrainOne failed: %v", err)
	}
	if c.Err != nil {
		t.Fatalf("completion error: %v", c.Err)
	}
	if c.Bytes != 8 {
		t.Errorf("completion bytes = %d, want 8", c.Bytes)
	}
	if !bytes.Equal(buf, []byte("456789ab")) {
		t.Errorf("buffer = %q, want %q", buf, "456789ab")
	}
}

func TestBackendErrorPropagates(t *testing.T) {
	b := newFakeBackend(false)
	r, _ := New(2, b)
	s := mustOpen(t, r, "vol/blob")

	// Reads past the end of the object fail in the backend; the error
	// rides the completion, untouched by the reactor.
	if err := r.Submit(s, api.DirRead, "eof", 1<<20, make([]byte, 8)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if n, _ := r.Wait(1, 1, 0); n != 1 {
		t.Fatal("Wait did not report the failed completion")
	}
	c, err := r.DrainOne()
	if err != nil {
		t.Fatalf("DrainOne failed: %v", err)
	}
	if c.Err == nil {
		t.Fatal("completion carried no error for an out-of-range read")
	}
	if code := api.CodeOf(c.Err); code != api.ErrCodeIO {
		t.Errorf("CodeOf = %d, want ErrCodeIO", code)
	}
	if got := r.Stats().Errors; got != 1 {
		t.Errorf("Stats().Errors = %d, want 1", got)
	}
}

func TestCloseLifecycle(t *testing.T) {
	b := newFakeBackend(true)
	r, _ := New(2, b)
	s := mustOpen(t, r, "vol/blob")

	if err := r.Close(); !errors.Is(err, api.ErrSessionsOpen) {
		t.Fatalf("Close with open session: got %v, want ErrSessionsOpen", err)
	}

	if err := r.Submit(s, api.DirRead, 0, 0, make([]byte, 2)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("session Close failed: %v", err)
	}
	if err := r.Close(); !errors.Is(err, api.ErrRequestsInFlight) {
		t.Fatalf("Close with in-flight request: got %v, want ErrRequestsInFlight", err)
	}

	b.fireAll()
	if n, _ := r.Wait(1, 1, 0); n != 1 {
		t.Fatal("Wait did not report the completion")
	}
	// Completed but undrained still pins the reactor.
	if err := r.Close(); !errors.Is(err, api.ErrRequestsInFlight) {
		t.Fatalf("Close with undrained completion: got %v, want ErrRequestsInFlight", err)
	}
	if _, err := r.DrainOne(); err != nil {
		t.Fatalf("DrainOne failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("final Close failed: %v", err)
	}
	if !b.closed {
		t.Error("backend was not closed on reactor teardown")
	}

	if err := r.Close(); !errors.Is(err, api.ErrInvalidHandle) {
		t.Errorf("double Close: got %v, want ErrInvalidHandle", err)
	}
	if _, err := r.Open(context.Background(), "vol/blob"); !errors.Is(err, api.ErrInvalidHandle) {
		t.Errorf("Open after Close: got %v, want ErrInvalidHandle", err)
	}
}

func TestStatsCounters(t *testing.T) {
	b := newFakeBackend(true)
	r, _ := New(4, b)
	s := mustOpen(t, r, "vol/blob")

	buf := make([]byte, 2)
	r.Submit(s, api.DirWrite, 0, 0, buf)
	r.Submit(s, api.DirRead, 1, 0, buf)
	r.Submit(s, api.DirRead, 2, 2, buf)
	b.fireAll()
	r.Wait(2, 2, 0)
	r.DrainOne()

	got := r.Stats()
	want := Stats{Submitted: 2, Rejected: 1, Completed: 2, Errors: 0, Drained: 1, InFlight: 1}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}
