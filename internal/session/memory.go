package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process token store used when no Redis is configured
// and in unit tests.
type MemoryStore struct {
	mu   sync.RWMutex
	pair TokenPair
	set  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return TokenPair{}, ErrNoSession
	}
	return s.pair, nil
}

func (s *MemoryStore) Set(_ context.Context, pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.set = true
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = TokenPair{}
	s.set = false
	return nil
}
