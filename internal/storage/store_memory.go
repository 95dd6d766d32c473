package storage

import (
	"context"
	"sync"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string]string{}}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[key] = value
	return nil
}
