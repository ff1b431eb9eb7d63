// Package main mints one NFT through a wallet provider.
//
// With --nft-id the NFT is loaded from PostgreSQL and marked minted on
// confirmation. With --metadata-uri only the orchestrator runs and the
// outcome is printed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"aurora-assets/internal/assets"
	"aurora-assets/internal/config"
	"aurora-assets/internal/mint"
	"aurora-assets/internal/storage/migrations"
	pgstore "aurora-assets/internal/storage/postgres"
	"aurora-assets/internal/wallet"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	walletRPC := flag.String("wallet-rpc", cfg.WalletRPCEndpoint, "Wallet JSON-RPC HTTP endpoint")
	walletWS := flag.String("wallet-ws", cfg.WalletWSEndpoint, "Wallet WebSocket endpoint for confirmations")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	nftID := flag.String("nft-id", "", "Read-model NFT to mint")
	metadataURI := flag.String("metadata-uri", "", "Metadata URI to mint without a read-model record")
	timeout := flag.Duration("timeout", cfg.MintTimeout, "Deadline for the whole request")
	verbose := flag.Bool("v", false, "Print every state transition")

	flag.Parse()

	logger := log.New(os.Stderr, "[mint] ", log.LstdFlags)

	if (*nftID == "") == (*metadataURI == "") {
		logger.Fatal("exactly one of --nft-id or --metadata-uri is required")
	}
	if *nftID != "" && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required with --nft-id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var opts []mint.Option
	if *verbose {
		opts = append(opts, mint.WithObserver(func(id string, from, to mint.State) {
			logger.Printf("%.12s %s -> %s", id, from, to)
		}))
	}

	var provider wallet.Provider
	if p, ok := wallet.Detect(ctx, wallet.DetectOptions{
		Endpoint:     *walletRPC,
		WSEndpoint:   *walletWS,
		Timeout:      cfg.WalletTimeout,
		PollInterval: cfg.WalletPoll,
		Logger:       logger,
	}); ok {
		defer p.Close()
		provider = p
	}
	minter := mint.New(provider, opts...)

	var res *mint.Result
	if *nftID != "" {
		res, err = mintRecord(ctx, *postgresDSN, *nftID, minter)
	} else {
		res, err = minter.Mint(ctx, *metadataURI)
	}

	if res != nil {
		printResult(res)
	}
	if err != nil {
		logger.Printf("mint failed: %v", err)
		os.Exit(1)
	}
}

func mintRecord(ctx context.Context, dsn, nftID string, minter *mint.Orchestrator) (*mint.Result, error) {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if _, err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}

	svc := assets.New(assets.Options{
		Tokens:   pgstore.NewTokenStore(pool),
		NFTs:     pgstore.NewNFTStore(pool),
		Chains:   pgstore.NewChainStore(pool),
		Modules:  pgstore.NewModuleStore(pool),
		Attempts: pgstore.NewMintAttemptStore(pool),
		Minter:   minter,
	})
	return svc.MintNFT(ctx, nftID)
}

func printResult(res *mint.Result) {
	fmt.Printf("request:   %s\n", res.RequestID)
	fmt.Printf("metadata:  %s\n", res.MetadataURI)
	fmt.Printf("state:     %s\n", res.State)
	if res.Account != "" {
		fmt.Printf("account:   %s\n", res.Account)
	}
	if res.TxSignature != "" {
		fmt.Printf("signature: %s\n", res.TxSignature)
	}
	if res.Confirmed() {
		fmt.Printf("block:     %s\n", res.BlockID)
	} else {
		fmt.Printf("error:     %s (%s, retryable=%v)\n", res.Err, res.Kind, res.Kind.Retryable())
	}
	fmt.Printf("duration:  %s\n", res.Duration())
}
