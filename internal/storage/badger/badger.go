// Package badger provides an embedded, durable ledger journal backed by BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	gcInterval     = 5 * time.Minute
	gcLSMThreshold = 8 << 20  // 8 MiB
	gcLogThreshold = 32 << 20 // 32 MiB
)

// Store wraps a badger.DB for dependency injection.
type Store struct {
	db     *badger.DB
	logger *log.Logger
}

// Options configures Open.
type Options struct {
	// Path is the data directory. Empty opens an in-memory database.
	Path string

	// Logger for GC reports. Nil disables logging.
	Logger *log.Logger
}

// Open opens the database and starts value-log GC until ctx is done.
func Open(ctx context.Context, opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.Path == "" {
		bopts = bopts.WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	s := &Store{db: db, logger: opts.Logger}
	if opts.Path != "" {
		go s.gcLoop(ctx)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) gcLoop(ctx context.Context) {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.db.IsClosed() {
			return
		}
		lsm, vlog := s.db.Size()
		if lsm <= gcLSMThreshold && vlog <= gcLogThreshold {
			continue
		}
		err := s.db.RunValueLogGC(0.5)
		if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			s.logf("badger value log gc: %v", err)
		}
	}
}

func (s *Store) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
