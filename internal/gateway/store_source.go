package gateway

import (
	"context"
	"fmt"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

// StoreSource serves collections straight from the read-model stores.
type StoreSource struct {
	Tokens  storage.TokenStore
	NFTs    storage.NFTStore
	Chains  storage.ChainStore
	Modules storage.ModuleStore
}

// Compile-time interface check.
var _ Source = (*StoreSource)(nil)

// Fetch lists the store backing kind.
func (s *StoreSource) Fetch(ctx context.Context, kind domain.CollectionKind) ([]domain.Record, error) {
	switch kind {
	case domain.CollectionTokens:
		if s.Tokens == nil {
			return nil, errNoStore(kind)
		}
		recs, err := s.Tokens.List(ctx)
		if err != nil {
			return nil, err
		}
		return toRecords(recs), nil

	case domain.CollectionNFTs:
		if s.NFTs == nil {
			return nil, errNoStore(kind)
		}
		recs, err := s.NFTs.List(ctx)
		if err != nil {
			return nil, err
		}
		return toRecords(recs), nil

	case domain.CollectionChains:
		if s.Chains == nil {
			return nil, errNoStore(kind)
		}
		recs, err := s.Chains.List(ctx)
		if err != nil {
			return nil, err
		}
		return toRecords(recs), nil

	case domain.CollectionModules:
		if s.Modules == nil {
			return nil, errNoStore(kind)
		}
		recs, err := s.Modules.List(ctx)
		if err != nil {
			return nil, err
		}
		return toRecords(recs), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

func errNoStore(kind domain.CollectionKind) error {
	return fmt.Errorf("no store configured for %s", kind)
}
