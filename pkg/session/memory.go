package session

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	email string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) CurrentUserEmail(ctx context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email, s.email != "", nil
}

func (s *MemoryStore) SetCurrentUserEmail(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = email
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	return s.SetCurrentUserEmail(ctx, "")
}
