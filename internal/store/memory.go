package store

import (
	"context"
	"sync"

	"github.com/missionctl/taskrelay/internal/domain"
)

// MemoryStore is an in-memory Store used by tests and the memory dev mode.
// Records are cloned on the way in and out so callers never share state
// through the store.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]*domain.Task),
	}
}

// Put writes the record for the task's id, overwriting any prior record.
func (s *MemoryStore) Put(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Get retrieves the record for id.
func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
