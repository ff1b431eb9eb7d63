package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage/memory"
)

// seededSource returns a StoreSource holding one or more records of every kind.
func seededSource(t *testing.T) *StoreSource {
	t.Helper()
	ctx := context.Background()

	src := &StoreSource{
		Tokens:  memory.NewTokenStore(),
		NFTs:    memory.NewNFTStore(),
		Chains:  memory.NewChainStore(),
		Modules: memory.NewModuleStore(),
	}

	require.NoError(t, src.Tokens.Insert(ctx, &domain.TokenRecord{
		ID: "tok-1", Name: "Auroraium", Symbol: "AUR", TotalSupply: decimal.NewFromInt(1000), CreatedAt: 1,
	}))
	require.NoError(t, src.NFTs.Insert(ctx, &domain.NFTRecord{
		ID: "nft-1", Title: "Dream #1", MetadataURI: "ipfs://dream-1", CreatedAt: 2,
	}))
	require.NoError(t, src.NFTs.Insert(ctx, &domain.NFTRecord{
		ID: "nft-2", Title: "Dream #2", MetadataURI: "ipfs://dream-2", CreatedAt: 3,
	}))
	require.NoError(t, src.Chains.Insert(ctx, &domain.ChainRecord{
		ID: "chain-1", Name: "aurora-sub", Protocol: "pos", Status: domain.ChainStatusPending, CreatedAt: 4,
	}))
	require.NoError(t, src.Modules.Insert(ctx, &domain.ModuleRecord{
		ID: "mod-1", Name: "explorer", Purpose: "crawl", CreatedAt: 5,
	}))
	return src
}

// failingSource fails the listed kinds and delegates the rest.
type failingSource struct {
	Source
	fail map[domain.CollectionKind]error
}

func (s *failingSource) Fetch(ctx context.Context, kind domain.CollectionKind) ([]domain.Record, error) {
	if err, ok := s.fail[kind]; ok {
		return nil, err
	}
	return s.Source.Fetch(ctx, kind)
}

func TestAggregator_Snapshot_Complete(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	agg := NewAggregator(seededSource(t), AggregatorOptions{Clock: func() time.Time { return fixed }})

	snap := agg.Snapshot(context.Background())

	assert.True(t, snap.Complete())
	assert.Empty(t, snap.Errors)
	assert.Equal(t, fixed, snap.FetchedAt)
	require.Len(t, snap.Tokens, 1)
	assert.Equal(t, "Auroraium", snap.Tokens[0].Name)
	require.Len(t, snap.NFTs, 2)
	assert.Equal(t, "nft-1", snap.NFTs[0].ID, "insertion order")
	assert.Equal(t, "nft-2", snap.NFTs[1].ID)
	assert.Len(t, snap.Chains, 1)
	assert.Len(t, snap.Modules, 1)
}

func TestAggregator_Snapshot_ChainFailureIsolated(t *testing.T) {
	chainErr := errors.New("chain registry unavailable")
	src := &failingSource{
		Source: seededSource(t),
		fail:   map[domain.CollectionKind]error{domain.CollectionChains: chainErr},
	}

	snap := NewAggregator(src, AggregatorOptions{}).Snapshot(context.Background())

	assert.False(t, snap.Complete())
	assert.True(t, snap.Failed(domain.CollectionChains))
	assert.ErrorIs(t, snap.Errors[domain.CollectionChains], chainErr)
	assert.NotNil(t, snap.Chains)
	assert.Empty(t, snap.Chains)

	assert.False(t, snap.Failed(domain.CollectionTokens))
	assert.Len(t, snap.Tokens, 1)
	assert.Len(t, snap.NFTs, 2)
	assert.Len(t, snap.Modules, 1)
}

func TestAggregator_Snapshot_AllFail(t *testing.T) {
	boom := errors.New("down")
	fail := make(map[domain.CollectionKind]error)
	for _, k := range domain.AllCollectionKinds {
		fail[k] = boom
	}

	snap := NewAggregator(&failingSource{fail: fail}, AggregatorOptions{}).Snapshot(context.Background())

	assert.Len(t, snap.Errors, 4)
	for _, k := range domain.AllCollectionKinds {
		assert.True(t, snap.Failed(k), k)
		assert.Zero(t, snap.Len(k), k)
	}
	assert.NotNil(t, snap.Tokens)
	assert.NotNil(t, snap.NFTs)
	assert.NotNil(t, snap.Chains)
	assert.NotNil(t, snap.Modules)
}

// barrierSource blocks every fetch until all four are in flight.
type barrierSource struct {
	Source
	wg sync.WaitGroup
}

func (s *barrierSource) Fetch(ctx context.Context, kind domain.CollectionKind) ([]domain.Record, error) {
	s.wg.Done()
	s.wg.Wait()
	return s.Source.Fetch(ctx, kind)
}

func TestAggregator_Snapshot_FetchesConcurrently(t *testing.T) {
	src := &barrierSource{Source: seededSource(t)}
	src.wg.Add(len(domain.AllCollectionKinds))

	done := make(chan *Snapshot, 1)
	go func() {
		done <- NewAggregator(src, AggregatorOptions{}).Snapshot(context.Background())
	}()

	select {
	case snap := <-done:
		assert.True(t, snap.Complete())
	case <-time.After(2 * time.Second):
		t.Fatal("fetches did not run concurrently")
	}
}

type panicSource struct{ Source }

func (s *panicSource) Fetch(ctx context.Context, kind domain.CollectionKind) ([]domain.Record, error) {
	if kind == domain.CollectionModules {
		panic("bad module row")
	}
	return s.Source.Fetch(ctx, kind)
}

func TestAggregator_Snapshot_PanicIsolated(t *testing.T) {
	snap := NewAggregator(&panicSource{seededSource(t)}, AggregatorOptions{}).Snapshot(context.Background())

	assert.True(t, snap.Failed(domain.CollectionModules))
	assert.Empty(t, snap.Modules)
	assert.Len(t, snap.Tokens, 1)
}

type wrongKindSource struct{ Source }

func (s *wrongKindSource) Fetch(ctx context.Context, kind domain.CollectionKind) ([]domain.Record, error) {
	if kind == domain.CollectionTokens {
		return []domain.Record{&domain.ModuleRecord{ID: "m"}}, nil
	}
	return s.Source.Fetch(ctx, kind)
}

func TestAggregator_Snapshot_TypeMismatch(t *testing.T) {
	snap := NewAggregator(&wrongKindSource{seededSource(t)}, AggregatorOptions{}).Snapshot(context.Background())

	assert.True(t, snap.Failed(domain.CollectionTokens))
	assert.Empty(t, snap.Tokens)
	assert.Len(t, snap.NFTs, 2)
}

func TestAggregator_NoCaching(t *testing.T) {
	src := seededSource(t)
	agg := NewAggregator(src, AggregatorOptions{})

	first := agg.Snapshot(context.Background())
	require.Len(t, first.Modules, 1)

	require.NoError(t, src.Modules.Insert(context.Background(), &domain.ModuleRecord{ID: "mod-2", Name: "guardian"}))

	second := agg.Snapshot(context.Background())
	assert.Len(t, second.Modules, 2)
}

func TestStoreSource_Fetch(t *testing.T) {
	src := seededSource(t)
	ctx := context.Background()

	records, err := src.Fetch(ctx, domain.CollectionNFTs)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, domain.CollectionNFTs, r.Kind())
	}

	_, err = src.Fetch(ctx, domain.CollectionKind("wallets"))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = (&StoreSource{}).Fetch(ctx, domain.CollectionTokens)
	assert.Error(t, err)
}
