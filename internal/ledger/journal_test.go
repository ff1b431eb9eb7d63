package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage/memory"
)

type brokenJournal struct{}

func (brokenJournal) Append(context.Context, *domain.LedgerEvent) error {
	return errors.New("mirror down")
}

func (brokenJournal) List(context.Context) ([]*domain.LedgerEvent, error) {
	return nil, errors.New("mirror down")
}

func TestMirroredJournal_MirrorFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	primary := memory.NewLedgerEventStore()
	mirror := memory.NewLedgerEventStore()

	j := NewMirroredJournal(primary, nil, brokenJournal{}, mirror)
	l, err := New(ctx, 1000, deployer, WithJournal(j))
	require.NoError(t, err)
	require.NoError(t, l.Transfer(ctx, deployer, alice, 10))

	got, err := primary.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	mirrored, err := mirror.List(ctx)
	require.NoError(t, err)
	assert.Len(t, mirrored, 3)
}

func TestMirroredJournal_Backfill(t *testing.T) {
	ctx := context.Background()
	primary := memory.NewLedgerEventStore()

	l, err := New(ctx, 1000, deployer, WithJournal(primary))
	require.NoError(t, err)
	require.NoError(t, l.Transfer(ctx, deployer, alice, 10))

	mirror := memory.NewLedgerEventStore()
	j := NewMirroredJournal(primary, nil, mirror)
	require.NoError(t, j.Backfill(ctx))
	require.NoError(t, j.Backfill(ctx), "backfill is idempotent")

	mirrored, err := mirror.List(ctx)
	require.NoError(t, err)
	require.Len(t, mirrored, 3)
	assert.Equal(t, uint64(3), mirrored[2].Seq)

	// the restarted ledger reads through the mirrored journal
	restored, err := Load(ctx, j, 1000, deployer)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), restored.BalanceOf(alice))
}
