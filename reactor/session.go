// File: reactor/session.go
//
// Session is one opened storage object bound to its owning reactor. The
// back-reference is for validation only; the reactor does not own the
// session, it just refuses to shut down while sessions remain open.

package reactor

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/stornado/stornado/api"
)

// Session represents one opened storage object.
type Session struct {
	reactor *Reactor
	path    string
	obj     api.Object
	closed  atomic.Bool
}

// Open resolves path against the reactor's backend and binds the
// resulting object to this reactor. A backend failure opens nothing and
// holds nothing.
func (r *Reactor) Open(ctx context.Context, path string) (*Session, error) {
	if r.closed.Load() {
		return nil, api.ErrInvalidHandle
	}
	obj, err := r.backend.Open(ctx, path)
	if err != nil {
		slog.Error("open failed", "path", path, "error", err)
		return nil, err
	}
	r.sessions.Add(1)
	slog.Debug("session open", "path", path)
	return &Session{reactor: r, path: path, obj: obj}, nil
}

// Path returns the path the session was opened with.
func (s *Session) Path() string {
	return s.path
}

// Close releases the backend object and unbinds the session from its
// reactor. After Close the session rejects further submissions.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return api.ErrSessionClosed
	}
	s.reactor.sessions.Add(-1)
	slog.Debug("session close", "path", s.path)
	return s.obj.Close()
}
