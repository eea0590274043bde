// session/store.go
package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when no state exists for a session ID.
var ErrNotFound = errors.New("session state not found")

// Store persists session state server-side, keyed by the random session ID
// carried in the browser cookie.
type Store interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, sessionID string, state *State) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is the default single-process store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*State
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*State)}
}

// Get returns a copy of the stored state so callers can mutate it freely
// before saving it back.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*State, error) {
	s.mu.RLock()
	state, ok := s.states[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	copied := *state
	return &copied, nil
}

// Save stores the state for a session.
func (s *MemoryStore) Save(_ context.Context, sessionID string, state *State) error {
	copied := *state
	s.mu.Lock()
	s.states[sessionID] = &copied
	s.mu.Unlock()
	return nil
}

// Delete removes a session's state.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.states, sessionID)
	s.mu.Unlock()
	return nil
}
