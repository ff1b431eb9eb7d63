package memory

import (
	"context"
	"sort"
	"sync"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

// LedgerEventStore is an in-memory implementation of storage.LedgerEventStore.
// Append-only: no Update or Delete methods.
type LedgerEventStore struct {
	mu   sync.RWMutex
	seqs map[uint64]struct{}
	data []*domain.LedgerEvent
}

// NewLedgerEventStore creates a new in-memory ledger event store.
func NewLedgerEventStore() *LedgerEventStore {
	return &LedgerEventStore{
		seqs: make(map[uint64]struct{}),
	}
}

// Append adds the next event. Returns ErrDuplicateKey if seq exists.
func (s *LedgerEventStore) Append(_ context.Context, e *domain.LedgerEvent) error {
	if e == nil || e.Seq == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seqs[e.Seq]; exists {
		return storage.ErrDuplicateKey
	}

	eventCopy := *e
	s.seqs[e.Seq] = struct{}{}
	s.data = append(s.data, &eventCopy)
	return nil
}

// List retrieves all events ordered by seq ASC.
func (s *LedgerEventStore) List(_ context.Context) ([]*domain.LedgerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.LedgerEvent, 0, len(s.data))
	for _, e := range s.data {
		eventCopy := *e
		result = append(result, &eventCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.LedgerEventStore = (*LedgerEventStore)(nil)
