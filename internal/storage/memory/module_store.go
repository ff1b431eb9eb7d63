package memory

import (
	"context"
	"sync"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

// ModuleStore is an in-memory implementation of storage.ModuleStore.
// Append-only: modules are never updated or removed.
type ModuleStore struct {
	mu   sync.RWMutex
	ids  map[string]struct{}
	data []*domain.ModuleRecord
}

// NewModuleStore creates a new in-memory module store.
func NewModuleStore() *ModuleStore {
	return &ModuleStore{
		ids: make(map[string]struct{}),
	}
}

// Insert adds a new module. Returns ErrDuplicateKey if id exists.
func (s *ModuleStore) Insert(_ context.Context, m *domain.ModuleRecord) error {
	if m == nil || m.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[m.ID]; exists {
		return storage.ErrDuplicateKey
	}

	moduleCopy := *m
	s.ids[m.ID] = struct{}{}
	s.data = append(s.data, &moduleCopy)
	return nil
}

// List retrieves all modules in insertion order.
func (s *ModuleStore) List(_ context.Context) ([]*domain.ModuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ModuleRecord, 0, len(s.data))
	for _, m := range s.data {
		moduleCopy := *m
		result = append(result, &moduleCopy)
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ModuleStore = (*ModuleStore)(nil)
