package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

func TestTokenStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	supply, err := decimal.NewFromString("18446744073709551615")
	require.NoError(t, err)

	token := &domain.TokenRecord{
		ID:          "token-001",
		Name:        "Auroraium",
		Symbol:      "AUR",
		TotalSupply: supply,
		CreatedAt:   1700000000000,
	}

	require.NoError(t, store.Insert(ctx, token))

	retrieved, err := store.GetByID(ctx, "token-001")
	require.NoError(t, err)

	assert.Equal(t, token.Name, retrieved.Name)
	assert.Equal(t, token.Symbol, retrieved.Symbol)
	assert.True(t, token.TotalSupply.Equal(retrieved.TotalSupply), "supply %s", retrieved.TotalSupply)
	assert.False(t, retrieved.Deployed)
	assert.Equal(t, token.CreatedAt, retrieved.CreatedAt)
}

func TestTokenStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	token := &domain.TokenRecord{ID: "token-dup", Name: "A", Symbol: "A", CreatedAt: 1}

	require.NoError(t, store.Insert(ctx, token))
	assert.ErrorIs(t, store.Insert(ctx, token), storage.ErrDuplicateKey)
}

func TestTokenStore_MarkDeployed(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.TokenRecord{ID: "token-1", Name: "A", Symbol: "A", CreatedAt: 1}))

	require.NoError(t, store.MarkDeployed(ctx, "token-1"))
	assert.ErrorIs(t, store.MarkDeployed(ctx, "token-1"), storage.ErrInvalidTransition)
	assert.ErrorIs(t, store.MarkDeployed(ctx, "missing"), storage.ErrNotFound)

	retrieved, err := store.GetByID(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, retrieved.Deployed)
}

func TestTokenStore_UpdateSupplyAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	for _, id := range []string{"token-b", "token-a"} {
		require.NoError(t, store.Insert(ctx, &domain.TokenRecord{ID: id, Name: id, Symbol: "T", CreatedAt: 1}))
	}

	require.NoError(t, store.UpdateSupply(ctx, "token-a", decimal.NewFromInt(850)))
	assert.ErrorIs(t, store.UpdateSupply(ctx, "missing", decimal.NewFromInt(1)), storage.ErrNotFound)

	tokens, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "token-b", tokens[0].ID)
	assert.Equal(t, "token-a", tokens[1].ID)
	assert.True(t, tokens[1].TotalSupply.Equal(decimal.NewFromInt(850)))
}
