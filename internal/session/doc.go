// ABOUTME: Package documentation for the session package
// ABOUTME: Describes the in-memory conversation store

// Package session keeps per-conversation state in memory.
//
// A session is identified by an opaque string id. The gateway mints uuid ids
// for requests that arrive without one and adopts any id a client supplies,
// so clients can resume a session by echoing the id back. State is a full
// transcript plus the name of the agent that last produced output.
//
// The store is a plain map behind a RWMutex. Sessions are never expired and
// never persisted; restarting the process discards all of them.
package session
