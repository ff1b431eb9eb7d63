package memory

import (
	"context"
	"sync"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

// ChainStore is an in-memory implementation of storage.ChainStore.
type ChainStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.ChainRecord // keyed by id
	order []string
}

// NewChainStore creates a new in-memory chain store.
func NewChainStore() *ChainStore {
	return &ChainStore{
		data: make(map[string]*domain.ChainRecord),
	}
}

// Insert adds a new chain. Returns ErrDuplicateKey if id exists.
func (s *ChainStore) Insert(_ context.Context, c *domain.ChainRecord) error {
	if c == nil || c.ID == "" || !c.Status.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.ID]; exists {
		return storage.ErrDuplicateKey
	}

	chainCopy := *c
	s.data[c.ID] = &chainCopy
	s.order = append(s.order, c.ID)
	return nil
}

// GetByID retrieves a chain by its ID. Returns ErrNotFound if not exists.
func (s *ChainStore) GetByID(_ context.Context, id string) (*domain.ChainRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	chainCopy := *c
	return &chainCopy, nil
}

// List retrieves all chains in insertion order.
func (s *ChainStore) List(_ context.Context) ([]*domain.ChainRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ChainRecord, 0, len(s.order))
	for _, id := range s.order {
		chainCopy := *s.data[id]
		result = append(result, &chainCopy)
	}
	return result, nil
}

// UpdateStatus moves a chain to a new status.
// Returns ErrInvalidTransition unless the move is PENDING -> ACTIVE|FAILED.
func (s *ChainStore) UpdateStatus(_ context.Context, id string, status domain.ChainStatus) error {
	if !status.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	if !c.Status.CanTransitionTo(status) {
		return storage.ErrInvalidTransition
	}
	c.Status = status
	return nil
}

// Verify interface compliance at compile time.
var _ storage.ChainStore = (*ChainStore)(nil)
