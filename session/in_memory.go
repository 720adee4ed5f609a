package session

import (
	"sync"

	"github.com/overturehq/overture/core"
)

// Store persists per-session conversation history.
type Store interface {
	// Append adds a turn to the session, creating the session lazily.
	Append(sessionID string, msg core.Message) error
	// History returns the session's turns in append order.
	History(sessionID string) ([]core.Message, error)
	// Clear removes all turns for a session.
	Clear(sessionID string) error
}

// InMemoryStore is a volatile Store keeping conversation histories in a
// process-local map. Safe for concurrent access; returned histories are
// copies so callers cannot mutate internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]core.Message
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]core.Message)}
}

// Append adds a turn to the session, creating the session lazily.
func (s *InMemoryStore) Append(sessionID string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	return nil
}

// History returns a copy of the session's turns in append order. An unknown
// session yields an empty history, not an error.
func (s *InMemoryStore) History(sessionID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.sessions[sessionID]
	out := make([]core.Message, len(history))
	copy(out, history)
	return out, nil
}

// Clear removes all turns for a session.
func (s *InMemoryStore) Clear(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
