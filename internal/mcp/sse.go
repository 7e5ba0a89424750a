// ABOUTME: SSE stream endpoint: opens a session and holds the event stream.
// ABOUTME: The first frame tells the client where to POST its messages.

package mcp

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// sseStream adapts an HTTP response into a session event stream. Writes are
// serialized by the session; the stream itself only formats and flushes.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
}

// Send writes one SSE frame and flushes it to the client. Multi-line data is
// split across data: lines per the SSE framing rules.
func (s *sseStream) Send(event, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(s.w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(s.w, "\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// handleSSE opens the event stream for a new session. The session lives as
// long as the connection: when the client disconnects, the session closes and
// any in-flight results for it are discarded.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.authorize(r); err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sess := s.sessions.Open(&sseStream{w: w, flusher: flusher})
	defer s.sessions.Close(sess.ID)

	s.logger.Info("SSE stream opened", "session_id", sess.ID, "remote", r.RemoteAddr)

	// The endpoint frame is how the client learns its session identity.
	if err := sess.Send("endpoint", "/message?sessionId="+sess.ID); err != nil {
		s.logger.Warn("failed to send endpoint frame", "session_id", sess.ID, "error", err)
		return
	}

	<-r.Context().Done()
	s.logger.Info("SSE stream closed", "session_id", sess.ID)
}
