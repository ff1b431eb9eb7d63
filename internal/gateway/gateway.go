// Package gateway assembles the four read-model collections into one
// dashboard snapshot. Collections are fetched concurrently and fail
// independently.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/observability"
)

// ErrUnknownKind is returned for a collection kind outside domain.AllCollectionKinds.
var ErrUnknownKind = errors.New("unknown collection kind")

// Source fetches one read-model collection.
// Records of a kind are returned in insertion order.
type Source interface {
	Fetch(ctx context.Context, kind domain.CollectionKind) ([]domain.Record, error)
}

// Snapshot is the combined result of fetching every collection at one point in time.
// A failed kind has an empty slice and an entry in Errors.
type Snapshot struct {
	Tokens    []*domain.TokenRecord
	NFTs      []*domain.NFTRecord
	Chains    []*domain.ChainRecord
	Modules   []*domain.ModuleRecord
	Errors    map[domain.CollectionKind]error
	FetchedAt time.Time
}

// Complete reports whether every collection was fetched.
func (s *Snapshot) Complete() bool {
	return len(s.Errors) == 0
}

// Failed reports whether kind could not be fetched.
func (s *Snapshot) Failed(kind domain.CollectionKind) bool {
	_, ok := s.Errors[kind]
	return ok
}

// Len returns the number of records held for kind.
func (s *Snapshot) Len(kind domain.CollectionKind) int {
	switch kind {
	case domain.CollectionTokens:
		return len(s.Tokens)
	case domain.CollectionNFTs:
		return len(s.NFTs)
	case domain.CollectionChains:
		return len(s.Chains)
	case domain.CollectionModules:
		return len(s.Modules)
	}
	return 0
}

// Aggregator builds snapshots from a Source. It caches nothing.
type Aggregator struct {
	source Source
	logger *log.Logger
	now    func() time.Time
}

// AggregatorOptions configures an Aggregator.
type AggregatorOptions struct {
	Logger *log.Logger
	Clock  func() time.Time
}

// NewAggregator creates an Aggregator over source.
func NewAggregator(source Source, opts AggregatorOptions) *Aggregator {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		source: source,
		logger: opts.Logger,
		now:    now,
	}
}

type fetchResult struct {
	records []domain.Record
	err     error
}

// Snapshot fetches all collections concurrently and waits for every fetch.
// It never fails as a whole: per-kind failures are recorded in Snapshot.Errors.
func (a *Aggregator) Snapshot(ctx context.Context) *Snapshot {
	kinds := domain.AllCollectionKinds
	results := make([]fetchResult, len(kinds))

	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind domain.CollectionKind) {
			defer wg.Done()
			results[i] = a.fetch(ctx, kind)
		}(i, kind)
	}
	wg.Wait()

	snap := &Snapshot{
		Tokens:    []*domain.TokenRecord{},
		NFTs:      []*domain.NFTRecord{},
		Chains:    []*domain.ChainRecord{},
		Modules:   []*domain.ModuleRecord{},
		Errors:    make(map[domain.CollectionKind]error),
		FetchedAt: a.now(),
	}
	for i, kind := range kinds {
		err := results[i].err
		if err == nil {
			err = snap.fill(kind, results[i].records)
		}
		if err != nil {
			snap.Errors[kind] = err
			a.logf("fetch %s: %v", kind, err)
		}
	}

	observability.RecordSnapshot(snap.Complete())
	return snap
}

func (a *Aggregator) fetch(ctx context.Context, kind domain.CollectionKind) (res fetchResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = fetchResult{err: fmt.Errorf("fetch %s panicked: %v", kind, r)}
		}
		observability.RecordGatewayFetch(kind.String(), time.Since(start).Seconds(), res.err)
	}()

	records, err := a.source.Fetch(ctx, kind)
	return fetchResult{records: records, err: err}
}

// fill stores records as the typed slice for kind. On a type mismatch the
// slice stays empty.
func (s *Snapshot) fill(kind domain.CollectionKind, records []domain.Record) error {
	switch kind {
	case domain.CollectionTokens:
		out := make([]*domain.TokenRecord, 0, len(records))
		for _, r := range records {
			rec, ok := r.(*domain.TokenRecord)
			if !ok {
				return mismatch(kind, r)
			}
			out = append(out, rec)
		}
		s.Tokens = out
	case domain.CollectionNFTs:
		out := make([]*domain.NFTRecord, 0, len(records))
		for _, r := range records {
			rec, ok := r.(*domain.NFTRecord)
			if !ok {
				return mismatch(kind, r)
			}
			out = append(out, rec)
		}
		s.NFTs = out
	case domain.CollectionChains:
		out := make([]*domain.ChainRecord, 0, len(records))
		for _, r := range records {
			rec, ok := r.(*domain.ChainRecord)
			if !ok {
				return mismatch(kind, r)
			}
			out = append(out, rec)
		}
		s.Chains = out
	case domain.CollectionModules:
		out := make([]*domain.ModuleRecord, 0, len(records))
		for _, r := range records {
			rec, ok := r.(*domain.ModuleRecord)
			if !ok {
				return mismatch(kind, r)
			}
			out = append(out, rec)
		}
		s.Modules = out
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return nil
}

func mismatch(kind domain.CollectionKind, r domain.Record) error {
	return fmt.Errorf("%s collection returned %T", kind, r)
}

func (a *Aggregator) logf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}
