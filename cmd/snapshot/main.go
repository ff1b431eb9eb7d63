// Package main prints an aggregation snapshot fetched from a running gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"aurora-assets/internal/config"
	"aurora-assets/internal/domain"
	"aurora-assets/internal/gateway"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	gatewayURL := flag.String("gateway-url", cfg.GatewayURL, "Base URL of the gateway")
	timeout := flag.Duration("timeout", 30*time.Second, "Deadline for the whole snapshot")
	retries := flag.Int("retries", gateway.DefaultMaxRetries, "Retries per collection")

	flag.Parse()

	logger := log.New(os.Stderr, "[snapshot] ", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	source := gateway.NewHTTPSource(*gatewayURL, gateway.WithMaxRetries(*retries))
	snap := gateway.NewAggregator(source, gateway.AggregatorOptions{Logger: logger}).Snapshot(ctx)

	printSnapshot(os.Stdout, snap)

	if len(snap.Errors) == len(domain.AllCollectionKinds) {
		os.Exit(1)
	}
}

// printSnapshot writes the snapshot as plain text, one section per collection.
func printSnapshot(w io.Writer, snap *gateway.Snapshot) {
	fmt.Fprintf(w, "Snapshot at %s\n", snap.FetchedAt.Format(time.RFC3339))

	for _, kind := range domain.AllCollectionKinds {
		fmt.Fprintf(w, "\n%s (%d)\n", kind, snap.Len(kind))
		if err, failed := snap.Errors[kind]; failed {
			fmt.Fprintf(w, "  unavailable: %v\n", err)
			continue
		}

		switch kind {
		case domain.CollectionTokens:
			for _, t := range snap.Tokens {
				fmt.Fprintf(w, "  %s (%s) supply=%s deployed=%v\n", t.Name, t.Symbol, t.TotalSupply, t.Deployed)
			}
		case domain.CollectionNFTs:
			for _, n := range snap.NFTs {
				line := fmt.Sprintf("  %s minted=%v", n.Title, n.Minted)
				if n.BlockID != nil {
					line += " block=" + *n.BlockID
				}
				fmt.Fprintln(w, line)
			}
		case domain.CollectionChains:
			for _, c := range snap.Chains {
				fmt.Fprintf(w, "  %s [%s] %s\n", c.Name, c.Protocol, c.Status)
			}
		case domain.CollectionModules:
			for _, m := range snap.Modules {
				fmt.Fprintf(w, "  %s: %s\n", m.Name, m.Purpose)
			}
		}
	}

	if !snap.Complete() {
		fmt.Fprintf(w, "\nincomplete: %d of %d collections failed\n", len(snap.Errors), len(domain.AllCollectionKinds))
	}
}
