// Package main runs the asset service: the ledger, the mint orchestrator and
// the aggregation gateway behind one HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"aurora-assets/internal/assets"
	"aurora-assets/internal/config"
	"aurora-assets/internal/domain"
	"aurora-assets/internal/gateway"
	"aurora-assets/internal/ledger"
	"aurora-assets/internal/mint"
	"aurora-assets/internal/observability"
	"aurora-assets/internal/storage"
	badgerstore "aurora-assets/internal/storage/badger"
	chstore "aurora-assets/internal/storage/clickhouse"
	"aurora-assets/internal/storage/memory"
	"aurora-assets/internal/storage/migrations"
	pgstore "aurora-assets/internal/storage/postgres"
	"aurora-assets/internal/wallet"
)

// Server holds all components of the service.
type Server struct {
	cfg    config.Config
	logger *log.Logger

	stores   *allStores
	ledger   *ledger.Ledger
	provider *wallet.RemoteProvider
	minter   *mint.Orchestrator
	assets   *assets.Service
	gateway  *gateway.Handler

	// State
	mu        sync.Mutex
	started   time.Time
	mintsRun  int
	mintsOK   int
	lastMint  time.Time
	walletsOK bool
}

// allStores holds all storage implementations.
type allStores struct {
	tokenStore       storage.TokenStore
	nftStore         storage.NFTStore
	chainStore       storage.ChainStore
	moduleStore      storage.ModuleStore
	mintAttemptStore storage.MintAttemptStore
	journal          storage.LedgerEventStore
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Parse flags (env vars as defaults)
	walletRPC := flag.String("wallet-rpc", cfg.WalletRPCEndpoint, "Wallet JSON-RPC HTTP endpoint (empty: no wallet)")
	walletWS := flag.String("wallet-ws", cfg.WalletWSEndpoint, "Wallet WebSocket endpoint for confirmations")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse connection string (ledger event mirror)")
	badgerPath := flag.String("badger-path", cfg.BadgerPath, "Badger directory for the ledger journal")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL")
	supply := flag.Uint64("initial-supply", cfg.InitialSupply, "Ledger initial supply")
	deployer := flag.String("deployer", cfg.Deployer, "Ledger deployer address")
	founder := flag.String("founder", cfg.Founder, "Ledger founder address (default: built-in founder)")
	addr := flag.String("addr", cfg.HTTPAddr, "HTTP listen address")
	seed := flag.Bool("seed", cfg.Seed, "Seed an empty read model with the demo catalog")
	mintTimeout := flag.Duration("mint-timeout", cfg.MintTimeout, "Deadline for one mint request")

	flag.Parse()

	cfg.WalletRPCEndpoint = *walletRPC
	cfg.WalletWSEndpoint = *walletWS
	cfg.PostgresDSN = *postgresDSN
	cfg.ClickHouseDSN = *clickhouseDSN
	cfg.BadgerPath = *badgerPath
	cfg.UseMemory = *useMemory
	cfg.InitialSupply = *supply
	cfg.Deployer = *deployer
	cfg.Founder = *founder
	cfg.HTTPAddr = *addr
	cfg.Seed = *seed
	cfg.MintTimeout = *mintTimeout

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if err := cfg.ValidateStorage(); err != nil {
		logger.Fatal(err)
	}
	if err := cfg.ValidateLedger(); err != nil {
		logger.Fatal(err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	server, err := newServer(ctx, cfg, stores, logger)
	if err != nil {
		logger.Fatalf("Failed to start: %v", err)
	}
	defer server.close()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Starting HTTP server on %s", cfg.HTTPAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	go func() {
		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Graceful shutdown failed: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, cfg config.Config, logger *log.Logger) (*allStores, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	stores := &allStores{}
	if cfg.UseMemory {
		stores.tokenStore = memory.NewTokenStore()
		stores.nftStore = memory.NewNFTStore()
		stores.chainStore = memory.NewChainStore()
		stores.moduleStore = memory.NewModuleStore()
		stores.mintAttemptStore = memory.NewMintAttemptStore()
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		if len(applied) > 0 {
			logger.Printf("Applied postgres migrations: %v", applied)
		}

		stores.tokenStore = pgstore.NewTokenStore(pool)
		stores.nftStore = pgstore.NewNFTStore(pool)
		stores.chainStore = pgstore.NewChainStore(pool)
		stores.moduleStore = pgstore.NewModuleStore(pool)
		stores.mintAttemptStore = pgstore.NewMintAttemptStore(pool)
	}

	// Ledger journal: Badger when a path is given, memory otherwise.
	var primary storage.LedgerEventStore
	if cfg.BadgerPath != "" {
		db, err := badgerstore.Open(ctx, badgerstore.Options{
			Path:   cfg.BadgerPath,
			Logger: log.New(os.Stdout, "[badger] ", log.LstdFlags),
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { db.Close() })
		primary = badgerstore.NewLedgerEventStore(db)
	} else {
		logger.Println("No --badger-path: ledger journal is in-memory and lost on restart")
		primary = memory.NewLedgerEventStore()
	}

	if cfg.ClickHouseDSN != "" {
		chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse: %w", err)
		}
		closers = append(closers, func() { chConn.Close() })

		mirrored := ledger.NewMirroredJournal(primary,
			log.New(os.Stdout, "[journal] ", log.LstdFlags),
			chstore.NewLedgerEventStore(chConn))
		if err := mirrored.Backfill(ctx); err != nil {
			logger.Printf("ClickHouse backfill failed, continuing: %v", err)
		}
		stores.journal = mirrored
	} else {
		stores.journal = primary
	}

	return stores, cleanup, nil
}

func newServer(ctx context.Context, cfg config.Config, stores *allStores, logger *log.Logger) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		stores:  stores,
		started: time.Now(),
	}

	ledgerOpts := []ledger.Option{ledger.WithLogger(log.New(os.Stdout, "[ledger] ", log.LstdFlags))}
	if cfg.Founder != "" {
		ledgerOpts = append(ledgerOpts, ledger.WithFounder(domain.Address(cfg.Founder)))
	}
	l, err := ledger.Load(ctx, stores.journal, cfg.InitialSupply, domain.Address(cfg.Deployer), ledgerOpts...)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	s.ledger = l
	observability.UpdateTotalSupply(l.TotalSupply())
	logger.Printf("Ledger ready: supply %d, founder %s, %d events", l.TotalSupply(), l.Founder(), len(l.Events()))

	mintLogger := log.New(os.Stdout, "[mint] ", log.LstdFlags)
	mintOpts := []mint.Option{
		mint.WithLogger(mintLogger),
		mint.WithObserver(func(id string, from, to mint.State) {
			mintLogger.Printf("%.12s %s -> %s", id, from, to)
		}),
	}

	// An untyped nil provider means no wallet.
	var provider wallet.Provider
	if p, ok := wallet.Detect(ctx, wallet.DetectOptions{
		Endpoint:     cfg.WalletRPCEndpoint,
		WSEndpoint:   cfg.WalletWSEndpoint,
		Timeout:      cfg.WalletTimeout,
		PollInterval: cfg.WalletPoll,
		Logger:       log.New(os.Stdout, "[wallet] ", log.LstdFlags),
	}); ok {
		s.provider = p
		s.walletsOK = true
		provider = p
	} else {
		logger.Println("No wallet endpoint configured: mint requests will fail with NO_PROVIDER")
	}
	s.minter = mint.New(provider, mintOpts...)

	s.assets = assets.New(assets.Options{
		Tokens:   stores.tokenStore,
		NFTs:     stores.nftStore,
		Chains:   stores.chainStore,
		Modules:  stores.moduleStore,
		Attempts: stores.mintAttemptStore,
		Minter:   s.minter,
		Logger:   log.New(os.Stdout, "[assets] ", log.LstdFlags),
	})

	source := &gateway.StoreSource{
		Tokens:  stores.tokenStore,
		NFTs:    stores.nftStore,
		Chains:  stores.chainStore,
		Modules: stores.moduleStore,
	}
	s.gateway = gateway.NewHandler(source, log.New(os.Stdout, "[gateway] ", log.LstdFlags))

	if cfg.Seed {
		if err := s.seed(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// seed creates the demo catalog unless tokens already exist.
func (s *Server) seed(ctx context.Context) error {
	tokens, err := s.stores.tokenStore.List(ctx)
	if err != nil {
		return fmt.Errorf("seed: list tokens: %w", err)
	}
	if len(tokens) > 0 {
		s.logger.Printf("Seed skipped: %d tokens present", len(tokens))
		return nil
	}

	seeded, err := s.assets.Seed(ctx, s.ledger.TotalSupply())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := s.assets.SyncTokenSupply(ctx, seeded.Token.ID, s.ledger); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.logger.Printf("Seeded demo catalog (token %s, nft %s)", seeded.Token.ID, seeded.NFT.ID)
	return nil
}

func (s *Server) close() {
	if s.provider != nil {
		s.provider.Close()
	}
}
