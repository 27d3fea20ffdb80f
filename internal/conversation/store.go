package conversation

import (
	"context"
	"sync"
)

// Store keeps per-session conversation state. The transport must
// serialize turns per session id; the store only needs read-your-writes
// within a turn.
type Store interface {
	// Get returns the stored state or nil when the session is unknown.
	Get(ctx context.Context, sessionID string) (*State, error)
	Set(ctx context.Context, sessionID string, state State) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is a process-local Store for tests and the CLI.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[sessionID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = state
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
	return nil
}
