package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.TokenRecord // keyed by id
	order []string                       // insertion order
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]*domain.TokenRecord),
	}
}

// Insert adds a new token. Returns ErrDuplicateKey if id exists.
func (s *TokenStore) Insert(_ context.Context, t *domain.TokenRecord) error {
	if t == nil || t.ID == "" || t.TotalSupply.IsNegative() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	tokenCopy := *t
	s.data[t.ID] = &tokenCopy
	s.order = append(s.order, t.ID)
	return nil
}

// GetByID retrieves a token by its ID. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByID(_ context.Context, id string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// List retrieves all tokens in insertion order.
func (s *TokenStore) List(_ context.Context) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenRecord, 0, len(s.order))
	for _, id := range s.order {
		tokenCopy := *s.data[id]
		result = append(result, &tokenCopy)
	}
	return result, nil
}

// MarkDeployed flips deployed to true. Returns ErrInvalidTransition if already deployed.
func (s *TokenStore) MarkDeployed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	if t.Deployed {
		return storage.ErrInvalidTransition
	}
	t.Deployed = true
	return nil
}

// UpdateSupply replaces the total supply of a token.
func (s *TokenStore) UpdateSupply(_ context.Context, id string, supply decimal.Decimal) error {
	if supply.IsNegative() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	t.TotalSupply = supply
	return nil
}

// Verify interface compliance at compile time.
var _ storage.TokenStore = (*TokenStore)(nil)
