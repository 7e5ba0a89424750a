// ABOUTME: Tests for the session registry lifecycle and dispatch routing
// ABOUTME: Covers open/get/close idempotency, closed-session writes, and ID uniqueness

package session

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream records events sent to it.
type fakeStream struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakeStream) Send(event, data string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event+":"+data)
	return nil
}

func TestRegistry_OpenAndGet(t *testing.T) {
	reg := NewRegistry(slog.Default())

	sess := reg.Open(&fakeStream{})
	require.NotEmpty(t, sess.ID)

	got, ok := reg.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_UniqueIDs(t *testing.T) {
	reg := NewRegistry(slog.Default())

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess := reg.Open(&fakeStream{})
		require.False(t, seen[sess.ID], "duplicate session ID %s", sess.ID)
		seen[sess.ID] = true
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry(slog.Default())

	_, ok := reg.Get("no-such-session")
	assert.False(t, ok)
}

func TestRegistry_CloseRemovesSession(t *testing.T) {
	reg := NewRegistry(slog.Default())
	sess := reg.Open(&fakeStream{})

	reg.Close(sess.ID)

	_, ok := reg.Get(sess.ID)
	assert.False(t, ok, "closed session must not be dispatchable")
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_CloseIsIdempotent(t *testing.T) {
	reg := NewRegistry(slog.Default())
	sess := reg.Open(&fakeStream{})

	reg.Close(sess.ID)
	reg.Close(sess.ID)
	reg.Close("never-existed")

	assert.Equal(t, 0, reg.Len())
}

func TestSession_SendAfterCloseFails(t *testing.T) {
	reg := NewRegistry(slog.Default())
	stream := &fakeStream{}
	sess := reg.Open(stream)

	require.NoError(t, sess.Send("message", "hello"))
	reg.Close(sess.ID)

	err := sess.Send("message", "late result")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, []string{"message:hello"}, stream.events)
}

func TestSession_SendPreservesOrder(t *testing.T) {
	reg := NewRegistry(slog.Default())
	stream := &fakeStream{}
	sess := reg.Open(stream)

	require.NoError(t, sess.Send("message", "first"))
	require.NoError(t, sess.Send("message", "second"))
	require.NoError(t, sess.Send("message", "third"))

	assert.Equal(t, []string{"message:first", "message:second", "message:third"}, stream.events)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	reg := NewRegistry(slog.Default())
	streamA := &fakeStream{}
	streamB := &fakeStream{}
	a := reg.Open(streamA)
	b := reg.Open(streamB)

	require.NoError(t, a.Send("message", "for-a"))
	require.NoError(t, b.Send("message", "for-b"))
	reg.Close(a.ID)
	require.NoError(t, b.Send("message", "still-for-b"))

	assert.Equal(t, []string{"message:for-a"}, streamA.events)
	assert.Equal(t, []string{"message:for-b", "message:still-for-b"}, streamB.events)
}
