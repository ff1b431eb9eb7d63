package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

func TestChainStore_Lifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewChainStore(pool)
	ctx := context.Background()

	chain := &domain.ChainRecord{
		ID:        "chain-001",
		Name:      "DreamNet",
		Purpose:   "AI-driven worlds",
		Protocol:  "PoS",
		Status:    domain.ChainStatusPending,
		CreatedAt: 1700000000000,
	}
	require.NoError(t, store.Insert(ctx, chain))
	assert.ErrorIs(t, store.Insert(ctx, chain), storage.ErrDuplicateKey)

	assert.ErrorIs(t, store.UpdateStatus(ctx, "chain-001", domain.ChainStatusPending), storage.ErrInvalidTransition)
	require.NoError(t, store.UpdateStatus(ctx, "chain-001", domain.ChainStatusActive))
	assert.ErrorIs(t, store.UpdateStatus(ctx, "chain-001", domain.ChainStatusFailed), storage.ErrInvalidTransition)
	assert.ErrorIs(t, store.UpdateStatus(ctx, "missing", domain.ChainStatusActive), storage.ErrNotFound)

	retrieved, err := store.GetByID(ctx, "chain-001")
	require.NoError(t, err)
	assert.Equal(t, domain.ChainStatusActive, retrieved.Status)
	assert.Equal(t, "PoS", retrieved.Protocol)
}

func TestChainStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewChainStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.ChainRecord{ID: "c2", Name: "b", Status: domain.ChainStatusFailed, CreatedAt: 1}))
	require.NoError(t, store.Insert(ctx, &domain.ChainRecord{ID: "c1", Name: "a", Status: domain.ChainStatusPending, CreatedAt: 2}))

	chains, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, "c2", chains[0].ID)
	assert.Equal(t, domain.ChainStatusFailed, chains[0].Status)
}
