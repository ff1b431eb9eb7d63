package memory

import (
	"context"
	"sort"
	"sync"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

// MintAttemptStore is an in-memory implementation of storage.MintAttemptStore.
type MintAttemptStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MintAttempt // keyed by request_id
}

// NewMintAttemptStore creates a new in-memory mint attempt store.
func NewMintAttemptStore() *MintAttemptStore {
	return &MintAttemptStore{
		data: make(map[string]*domain.MintAttempt),
	}
}

// Insert adds a terminal mint outcome. Returns ErrDuplicateKey if request_id exists.
func (s *MintAttemptStore) Insert(_ context.Context, a *domain.MintAttempt) error {
	if a == nil || a.RequestID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.RequestID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[a.RequestID] = copyAttempt(a)
	return nil
}

// GetByID retrieves an attempt by request ID. Returns ErrNotFound if not exists.
func (s *MintAttemptStore) GetByID(_ context.Context, requestID string) (*domain.MintAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[requestID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyAttempt(a), nil
}

// GetByNFT retrieves all attempts for an NFT, ordered by started_at ASC.
func (s *MintAttemptStore) GetByNFT(_ context.Context, nftID string) ([]*domain.MintAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MintAttempt
	for _, a := range s.data {
		if a.NFTID != nil && *a.NFTID == nftID {
			result = append(result, copyAttempt(a))
		}
	}

	// Sort by started_at ASC, request_id ASC for stable ordering
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt != result[j].StartedAt {
			return result[i].StartedAt < result[j].StartedAt
		}
		return result[i].RequestID < result[j].RequestID
	})

	return result, nil
}

func copyAttempt(a *domain.MintAttempt) *domain.MintAttempt {
	attemptCopy := *a
	attemptCopy.NFTID = copyString(a.NFTID)
	attemptCopy.Account = copyString(a.Account)
	attemptCopy.ErrorKind = copyString(a.ErrorKind)
	attemptCopy.ErrorMessage = copyString(a.ErrorMessage)
	attemptCopy.TxSignature = copyString(a.TxSignature)
	attemptCopy.BlockID = copyString(a.BlockID)
	return &attemptCopy
}

// Verify interface compliance at compile time.
var _ storage.MintAttemptStore = (*MintAttemptStore)(nil)
