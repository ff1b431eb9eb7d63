package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

func TestNFTStore_InsertAndMarkMinted(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewNFTStore(pool)
	ctx := context.Background()

	nft := &domain.NFTRecord{
		ID:          "nft-001",
		Title:       "Dream",
		Description: "A dream of digital realms",
		ImageURL:    "https://example.com/dream.png",
		MetadataURI: "ipfs://dream",
		CreatedAt:   1700000000000,
	}
	require.NoError(t, store.Insert(ctx, nft))

	retrieved, err := store.GetByID(ctx, "nft-001")
	require.NoError(t, err)
	assert.False(t, retrieved.Minted)
	assert.Nil(t, retrieved.BlockID)

	require.NoError(t, store.MarkMinted(ctx, "nft-001", "sig-1", "12345"))
	assert.ErrorIs(t, store.MarkMinted(ctx, "nft-001", "sig-2", "99"), storage.ErrInvalidTransition)
	assert.ErrorIs(t, store.MarkMinted(ctx, "missing", "sig", "1"), storage.ErrNotFound)

	retrieved, err = store.GetByID(ctx, "nft-001")
	require.NoError(t, err)
	assert.True(t, retrieved.Minted)
	require.NotNil(t, retrieved.TxSignature)
	require.NotNil(t, retrieved.BlockID)
	assert.Equal(t, "sig-1", *retrieved.TxSignature)
	assert.Equal(t, "12345", *retrieved.BlockID)
}

func TestNFTStore_Traits(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewNFTStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.NFTRecord{
		ID:          "nft-traits",
		Title:       "Dream",
		MetadataURI: "ipfs://dream",
		Traits:      map[string]string{"type": "dream", "palette": "aurora"},
		CreatedAt:   1,
	}))
	require.NoError(t, store.Insert(ctx, &domain.NFTRecord{
		ID:          "nft-plain",
		Title:       "Plain",
		MetadataURI: "ipfs://plain",
		CreatedAt:   2,
	}))

	got, err := store.GetByID(ctx, "nft-traits")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"type": "dream", "palette": "aurora"}, got.Traits)

	plain, err := store.GetByID(ctx, "nft-plain")
	require.NoError(t, err)
	assert.Nil(t, plain.Traits)

	// minting leaves traits untouched
	require.NoError(t, store.MarkMinted(ctx, "nft-traits", "sig", "7"))
	got, err = store.GetByID(ctx, "nft-traits")
	require.NoError(t, err)
	assert.Equal(t, "dream", got.Traits["type"])
}

func TestNFTStore_InsertMintedWithoutBlockRejected(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewNFTStore(pool)
	ctx := context.Background()

	err := store.Insert(ctx, &domain.NFTRecord{ID: "nft-bad", Title: "x", MetadataURI: "ipfs://x", Minted: true, CreatedAt: 1})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestNFTStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewNFTStore(pool)
	ctx := context.Background()

	for _, id := range []string{"nft-2", "nft-1", "nft-3"} {
		require.NoError(t, store.Insert(ctx, &domain.NFTRecord{ID: id, Title: id, MetadataURI: "ipfs://" + id, CreatedAt: 1}))
	}

	nfts, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, nfts, 3)
	assert.Equal(t, "nft-2", nfts[0].ID)
	assert.Equal(t, "nft-1", nfts[1].ID)
	assert.Equal(t, "nft-3", nfts[2].ID)
}
