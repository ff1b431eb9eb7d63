package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

func TestNFTStore_InsertAndGet(t *testing.T) {
	store := NewNFTStore()
	ctx := context.Background()

	n := &domain.NFTRecord{
		ID:          "nft-1",
		Title:       "Dream",
		Description: "A dream of digital realms",
		ImageURL:    "https://example.com/dream.png",
		MetadataURI: "ipfs://dream",
		CreatedAt:   1704067200000,
	}

	if err := store.Insert(ctx, n); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "nft-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.MetadataURI != "ipfs://dream" {
		t.Errorf("MetadataURI mismatch: got %s", got.MetadataURI)
	}
	if got.Minted {
		t.Error("new NFT should not be minted")
	}
}

func TestNFTStore_TraitsCopied(t *testing.T) {
	store := NewNFTStore()
	ctx := context.Background()

	traits := map[string]string{"type": "dream"}
	if err := store.Insert(ctx, &domain.NFTRecord{ID: "nft-1", Title: "Dream", MetadataURI: "ipfs://dream", Traits: traits}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	traits["type"] = "mutated"

	got, err := store.GetByID(ctx, "nft-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Traits["type"] != "dream" {
		t.Errorf("stored traits changed through caller map: %v", got.Traits)
	}

	got.Traits["type"] = "mutated"
	again, _ := store.GetByID(ctx, "nft-1")
	if again.Traits["type"] != "dream" {
		t.Errorf("stored traits changed through returned record: %v", again.Traits)
	}
}

func TestNFTStore_MarkMintedNeverReverts(t *testing.T) {
	store := NewNFTStore()
	ctx := context.Background()

	_ = store.Insert(ctx, &domain.NFTRecord{ID: "nft-1", MetadataURI: "ipfs://x"})

	if err := store.MarkMinted(ctx, "nft-1", "sig1", "100"); err != nil {
		t.Fatalf("MarkMinted failed: %v", err)
	}
	if err := store.MarkMinted(ctx, "nft-1", "sig2", "200"); !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}

	got, _ := store.GetByID(ctx, "nft-1")
	if !got.Minted {
		t.Fatal("NFT should be minted")
	}
	if got.TxSignature == nil || *got.TxSignature != "sig1" {
		t.Errorf("TxSignature = %v, want sig1", got.TxSignature)
	}
	if got.BlockID == nil || *got.BlockID != "100" {
		t.Errorf("BlockID = %v, want 100", got.BlockID)
	}
}

func TestNFTStore_MarkMintedValidation(t *testing.T) {
	store := NewNFTStore()
	ctx := context.Background()

	if err := store.MarkMinted(ctx, "missing", "sig", "1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	_ = store.Insert(ctx, &domain.NFTRecord{ID: "nft-1"})
	if err := store.MarkMinted(ctx, "nft-1", "sig", ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty block id, got %v", err)
	}
}

func TestNFTStore_ReturnedCopyIsolated(t *testing.T) {
	store := NewNFTStore()
	ctx := context.Background()

	_ = store.Insert(ctx, &domain.NFTRecord{ID: "nft-1"})
	_ = store.MarkMinted(ctx, "nft-1", "sig1", "100")

	got, _ := store.GetByID(ctx, "nft-1")
	*got.BlockID = "tampered"

	again, _ := store.GetByID(ctx, "nft-1")
	if *again.BlockID != "100" {
		t.Errorf("store was mutated through returned pointer: %s", *again.BlockID)
	}
}

func TestNFTStore_ConcurrentMarkMinted(t *testing.T) {
	store := NewNFTStore()
	ctx := context.Background()

	_ = store.Insert(ctx, &domain.NFTRecord{ID: "nft-1"})

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.MarkMinted(ctx, "nft-1", "sig", "1"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("Expected exactly one successful MarkMinted, got %d", succeeded)
	}
}
