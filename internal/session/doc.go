// Package session tracks open streaming connections and routes out-of-band
// messages to the right one.
//
// Each SSE connection gets a Session with a fresh UUID. The Registry owns the
// identifier-to-session mapping: insert on open, lookup on dispatch, remove on
// close. Close is idempotent and terminal; a closed identifier never matches a
// live session again, and a write to a closed session returns ErrSessionClosed
// so late tool results are discarded instead of escalating.
//
// The registry is the single piece of cross-session shared state in the
// gateway. No data ever flows between sessions.
package session
