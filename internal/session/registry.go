// ABOUTME: Tracks open streaming sessions and routes dispatches to the right one.
// ABOUTME: Owns the identifier-to-stream mapping; insert-on-open, remove-on-close.

package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionClosed indicates a write was attempted on a closed session.
var ErrSessionClosed = errors.New("session closed")

// Stream is the outbound half of one client connection. The session owns it
// exclusively; nothing else writes to it.
type Stream interface {
	// Send writes one named event onto the stream.
	Send(event, data string) error
}

// Session is one live streaming connection plus its server-assigned identifier.
// A session is either open or closed; closed is terminal and the identifier is
// never reused within the process lifetime.
type Session struct {
	ID        string
	CreatedAt time.Time

	stream Stream
	mu     sync.Mutex
	closed bool
}

// Send writes one event to the session's stream. Writes are serialized so
// interleaved tool results never corrupt the stream framing.
func (s *Session) Send(event, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	return s.stream.Send(event, data)
}

// markClosed flips the session to its terminal state.
func (s *Session) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Registry maps session identifiers to open sessions. It is the only mutator
// of the mapping: Open inserts, Close removes, Get is lookup-only.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Open registers a new session for the given stream and returns it. The
// identifier is a fresh UUID, so identifiers are unique for the life of the
// process.
func (r *Registry) Open(stream Stream) *Session {
	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		stream:    stream,
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	total := len(r.sessions)
	r.mu.Unlock()

	r.logger.Info("session opened", "session_id", sess.ID, "total_sessions", total)
	return sess
}

// Get returns the open session for the identifier, if any.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	return sess, ok
}

// Close removes the session for the identifier and marks it closed.
// Idempotent: closing an unknown or already-closed session is a no-op.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	total := len(r.sessions)
	r.mu.Unlock()

	if ok {
		sess.markClosed()
		r.logger.Info("session closed", "session_id", id, "total_sessions", total)
	}
}

// Len reports the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
