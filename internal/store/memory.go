package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/matthewbaird/cloudconsole/internal/types"
)

// MemoryStore keeps records in a slice, newest first.
type MemoryStore struct {
	mu     sync.RWMutex
	clouds []types.Cloud
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) List(_ context.Context) ([]types.Cloud, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Cloud, len(s.clouds))
	for i, c := range s.clouds {
		out[i] = c.Clone()
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (types.Cloud, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return types.Cloud{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return s.clouds[i].Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, c types.Cloud) (types.Cloud, error) {
	c = c.Clone()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(c.ID) >= 0 {
		return types.Cloud{}, fmt.Errorf("create %s: id already exists", c.ID)
	}
	s.clouds = slices.Insert(s.clouds, 0, c)
	return c.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, c types.Cloud) (types.Cloud, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(c.ID)
	if i < 0 {
		return types.Cloud{}, fmt.Errorf("update %s: %w", c.ID, ErrNotFound)
	}
	s.clouds[i] = c.Clone()
	return c.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	s.clouds = slices.Delete(s.clouds, i, i+1)
	return nil
}

// index must be called with mu held.
func (s *MemoryStore) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.clouds, func(c types.Cloud) bool { return c.ID == id })
}
