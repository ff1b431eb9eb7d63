package memory

import (
	"context"
	"errors"
	"testing"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

func ptr[T any](v T) *T {
	return &v
}

func TestMintAttemptStore_InsertAndGet(t *testing.T) {
	store := NewMintAttemptStore()
	ctx := context.Background()

	a := &domain.MintAttempt{
		RequestID:   "req-1",
		NFTID:       ptr("nft-1"),
		MetadataURI: "ipfs://dream",
		Account:     ptr("acct"),
		State:       "CONFIRMED",
		TxSignature: ptr("sig"),
		BlockID:     ptr("42"),
		StartedAt:   1000,
		FinishedAt:  2000,
	}

	if err := store.Insert(ctx, a); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, a); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	got, err := store.GetByID(ctx, "req-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.BlockID == nil || *got.BlockID != "42" {
		t.Errorf("BlockID = %v, want 42", got.BlockID)
	}
	if got.ErrorKind != nil {
		t.Errorf("ErrorKind should be nil, got %v", *got.ErrorKind)
	}
}

func TestMintAttemptStore_GetByNFT(t *testing.T) {
	store := NewMintAttemptStore()
	ctx := context.Background()

	attempts := []*domain.MintAttempt{
		{RequestID: "r3", NFTID: ptr("nft-1"), State: "CONFIRMED", StartedAt: 3000},
		{RequestID: "r1", NFTID: ptr("nft-1"), State: "FAILED", ErrorKind: ptr("SUBMISSION_ERROR"), StartedAt: 1000},
		{RequestID: "r2", NFTID: ptr("nft-2"), State: "FAILED", StartedAt: 2000},
		{RequestID: "r4", State: "FAILED", StartedAt: 4000},
	}
	for _, a := range attempts {
		if err := store.Insert(ctx, a); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.GetByNFT(ctx, "nft-1")
	if err != nil {
		t.Fatalf("GetByNFT failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(result))
	}
	if result[0].RequestID != "r1" || result[1].RequestID != "r3" {
		t.Errorf("unexpected order: %s, %s", result[0].RequestID, result[1].RequestID)
	}
}

func TestMintAttemptStore_NotFound(t *testing.T) {
	store := NewMintAttemptStore()

	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
