// ABOUTME: In-memory session store mapping ids to conversation state
// ABOUTME: GetOrCreate mints uuid ids; Update replaces history wholesale

package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/troupehq/troupe-gateway/internal/engine"
)

// Session is the process-lifetime state of one conversation: the full
// transcript and the agent currently responsible for it.
type Session struct {
	ID          string
	History     []engine.Turn
	ActiveAgent string
}

// Store is a concurrency-safe in-memory session map. Sessions live for the
// life of the process; there is no expiry and no persistence.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating an empty one if it does
// not exist. An empty id mints a fresh uuid. Client-supplied ids are adopted
// as-is. The returned session is a snapshot; mutate via Update.
func (s *Store) GetOrCreate(id string) *Session {
	if id == "" {
		id = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id}
		s.sessions[id] = sess
	}
	return snapshot(sess)
}

// Get returns a snapshot of the session for id, or ok=false if absent.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return snapshot(sess), true
}

// Update replaces the session's history wholesale with the engine's updated
// transcript and records the agent that produced the final output. The session
// is created if it was deleted or never seen. Concurrent updates to the same
// id are last-write-wins.
func (s *Store) Update(id string, history []engine.Turn, activeAgent string) {
	copied := make([]engine.Turn, len(history))
	copy(copied, history)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id}
		s.sessions[id] = sess
	}
	sess.History = copied
	sess.ActiveAgent = activeAgent
}

// Delete removes the session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// snapshot copies a session so callers cannot mutate shared state. The lock
// is held by the caller.
func snapshot(sess *Session) *Session {
	history := make([]engine.Turn, len(sess.History))
	copy(history, sess.History)
	return &Session{ID: sess.ID, History: history, ActiveAgent: sess.ActiveAgent}
}
