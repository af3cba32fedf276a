package tokenstore

import (
	"context"
	"sync"
)

// MemoryTokenStore is an in-process TokenStore, useful for tests and
// for processors that are allowed to reread their full history on
// every restart.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]int64
}

// NewMemoryTokenStore returns an empty in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]int64)}
}

func (s *MemoryTokenStore) RetrieveToken(_ context.Context, processor string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, found := s.tokens[processor]
	return token, found, nil
}

func (s *MemoryTokenStore) StoreToken(_ context.Context, processor string, token int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[processor] = token
	return nil
}

func (s *MemoryTokenStore) Close() error {
	return nil
}
