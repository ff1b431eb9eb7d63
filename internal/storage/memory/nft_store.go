package memory

import (
	"context"
	"maps"
	"sync"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

// NFTStore is an in-memory implementation of storage.NFTStore.
type NFTStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.NFTRecord // keyed by id
	order []string
}

// NewNFTStore creates a new in-memory NFT store.
func NewNFTStore() *NFTStore {
	return &NFTStore{
		data: make(map[string]*domain.NFTRecord),
	}
}

// Insert adds a new NFT. Returns ErrDuplicateKey if id exists.
func (s *NFTStore) Insert(_ context.Context, n *domain.NFTRecord) error {
	if n == nil || n.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[n.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[n.ID] = copyNFT(n)
	s.order = append(s.order, n.ID)
	return nil
}

// GetByID retrieves an NFT by its ID. Returns ErrNotFound if not exists.
func (s *NFTStore) GetByID(_ context.Context, id string) (*domain.NFTRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyNFT(n), nil
}

// List retrieves all NFTs in insertion order.
func (s *NFTStore) List(_ context.Context) ([]*domain.NFTRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.NFTRecord, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, copyNFT(s.data[id]))
	}
	return result, nil
}

// MarkMinted flips minted to true. Returns ErrInvalidTransition if already minted.
func (s *NFTStore) MarkMinted(_ context.Context, id, txSignature, blockID string) error {
	if blockID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	if n.Minted {
		return storage.ErrInvalidTransition
	}
	n.Minted = true
	n.TxSignature = &txSignature
	n.BlockID = &blockID
	return nil
}

func copyNFT(n *domain.NFTRecord) *domain.NFTRecord {
	nftCopy := *n
	nftCopy.TxSignature = copyString(n.TxSignature)
	nftCopy.BlockID = copyString(n.BlockID)
	nftCopy.Traits = maps.Clone(n.Traits)
	return &nftCopy
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Verify interface compliance at compile time.
var _ storage.NFTStore = (*NFTStore)(nil)
