// Package assets is the glue between the mint orchestrator, the ledger and
// the read-model stores. It is the only writer of read-model state changes.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/mint"
	"aurora-assets/internal/storage"
)

// recordTimeout bounds the read-model writes that follow a mint. They run
// detached from the request context so a caller that gave up still gets the
// outcome persisted.
const recordTimeout = 10 * time.Second

// SupplyReader is the ledger view needed to refresh the token read model.
type SupplyReader interface {
	TotalSupply() uint64
}

// Service applies asset lifecycle changes to the read model.
type Service struct {
	tokens   storage.TokenStore
	nfts     storage.NFTStore
	chains   storage.ChainStore
	modules  storage.ModuleStore
	attempts storage.MintAttemptStore
	minter   *mint.Orchestrator
	logger   *log.Logger
	now      func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{} // NFT ids with a mint in progress
}

// Options for creating Service.
type Options struct {
	// Required stores
	Tokens  storage.TokenStore
	NFTs    storage.NFTStore
	Chains  storage.ChainStore
	Modules storage.ModuleStore

	// Attempts records mint outcomes. Optional.
	Attempts storage.MintAttemptStore

	// Minter runs mint requests. Required for MintNFT.
	Minter *mint.Orchestrator

	Logger *log.Logger
	Clock  func() time.Time
}

// New creates a Service.
func New(opts Options) *Service {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		tokens:   opts.Tokens,
		nfts:     opts.NFTs,
		chains:   opts.Chains,
		modules:  opts.Modules,
		attempts: opts.Attempts,
		minter:   opts.Minter,
		logger:   opts.Logger,
		now:      now,
		inflight: make(map[string]struct{}),
	}
}

// CreateToken inserts a new undeployed token.
func (s *Service) CreateToken(ctx context.Context, name, symbol string, supply uint64) (*domain.TokenRecord, error) {
	t := &domain.TokenRecord{
		ID:          uuid.NewString(),
		Name:        name,
		Symbol:      symbol,
		TotalSupply: supplyDecimal(supply),
		CreatedAt:   s.now().UnixMilli(),
	}
	if err := s.tokens.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("insert token %s: %w", name, err)
	}
	return t, nil
}

// CreateNFT inserts a new unminted NFT. traits may be nil.
func (s *Service) CreateNFT(ctx context.Context, title, description, imageURL, metadataURI string, traits map[string]string) (*domain.NFTRecord, error) {
	n := &domain.NFTRecord{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		ImageURL:    imageURL,
		MetadataURI: metadataURI,
		Traits:      maps.Clone(traits),
		CreatedAt:   s.now().UnixMilli(),
	}
	if err := s.nfts.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("insert nft %s: %w", title, err)
	}
	return n, nil
}

// CreateChain inserts a new chain in PENDING status.
func (s *Service) CreateChain(ctx context.Context, name, purpose, protocol string) (*domain.ChainRecord, error) {
	c := &domain.ChainRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Purpose:   purpose,
		Protocol:  protocol,
		Status:    domain.ChainStatusPending,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.chains.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("insert chain %s: %w", name, err)
	}
	return c, nil
}

// RegisterModule appends a generated module.
func (s *Service) RegisterModule(ctx context.Context, name, purpose string) (*domain.ModuleRecord, error) {
	m := &domain.ModuleRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Purpose:   purpose,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.modules.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("insert module %s: %w", name, err)
	}
	return m, nil
}

// DeployToken flips the token's deployed flag. A second call fails with
// storage.ErrInvalidTransition.
func (s *Service) DeployToken(ctx context.Context, tokenID string) error {
	if err := s.tokens.MarkDeployed(ctx, tokenID); err != nil {
		return fmt.Errorf("deploy token %s: %w", tokenID, err)
	}
	return nil
}

// SyncTokenSupply copies the ledger's total supply into the token read model.
func (s *Service) SyncTokenSupply(ctx context.Context, tokenID string, ledger SupplyReader) error {
	if err := s.tokens.UpdateSupply(ctx, tokenID, supplyDecimal(ledger.TotalSupply())); err != nil {
		return fmt.Errorf("sync supply of %s: %w", tokenID, err)
	}
	return nil
}

// ActivateChain moves a PENDING chain to ACTIVE.
func (s *Service) ActivateChain(ctx context.Context, chainID string) error {
	return s.setChainStatus(ctx, chainID, domain.ChainStatusActive)
}

// FailChain moves a PENDING chain to FAILED.
func (s *Service) FailChain(ctx context.Context, chainID string) error {
	return s.setChainStatus(ctx, chainID, domain.ChainStatusFailed)
}

func (s *Service) setChainStatus(ctx context.Context, chainID string, status domain.ChainStatus) error {
	if err := s.chains.UpdateStatus(ctx, chainID, status); err != nil {
		return fmt.Errorf("set chain %s %s: %w", chainID, status, err)
	}
	s.logf("chain %s -> %s", chainID, status)
	return nil
}

// MintNFT mints the NFT's metadata through the orchestrator. Only a confirmed
// mint marks the record minted. Every terminal outcome is recorded as a
// MintAttempt when an attempt store is configured.
//
// At most one mint per NFT runs at a time; a concurrent request for the same
// NFT fails with storage.ErrInvalidTransition without reaching the wallet.
//
// The returned Result is nil only when the mint never started, e.g. for an
// unknown, already minted or busy NFT (storage.ErrInvalidTransition).
func (s *Service) MintNFT(ctx context.Context, nftID string) (*mint.Result, error) {
	if s.minter == nil {
		return nil, errors.New("mint: no orchestrator configured")
	}

	if !s.reserve(nftID) {
		return nil, fmt.Errorf("nft %s mint in progress: %w", nftID, storage.ErrInvalidTransition)
	}
	defer s.release(nftID)

	nft, err := s.nfts.GetByID(ctx, nftID)
	if err != nil {
		return nil, fmt.Errorf("load nft %s: %w", nftID, err)
	}
	if nft.Minted {
		return nil, fmt.Errorf("nft %s already minted: %w", nftID, storage.ErrInvalidTransition)
	}

	res, mintErr := s.minter.Mint(ctx, nft.MetadataURI)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	var markErr error
	if res.Confirmed() {
		if err := s.nfts.MarkMinted(writeCtx, nftID, res.TxSignature, res.BlockID); err != nil {
			markErr = fmt.Errorf("mark nft %s minted: %w", nftID, err)
		} else {
			s.logf("nft %s minted in block %s", nftID, res.BlockID)
		}
	}

	recordErr := s.recordAttempt(writeCtx, nftID, res)
	if recordErr != nil {
		s.logf("record mint attempt %s: %v", res.RequestID, recordErr)
	}

	if mintErr != nil {
		return res, mintErr
	}
	return res, errors.Join(markErr, recordErr)
}

func (s *Service) reserve(nftID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[nftID]; busy {
		return false
	}
	s.inflight[nftID] = struct{}{}
	return true
}

func (s *Service) release(nftID string) {
	s.mu.Lock()
	delete(s.inflight, nftID)
	s.mu.Unlock()
}

func (s *Service) recordAttempt(ctx context.Context, nftID string, res *mint.Result) error {
	if s.attempts == nil {
		return nil
	}

	a := &domain.MintAttempt{
		RequestID:   res.RequestID,
		NFTID:       &nftID,
		MetadataURI: res.MetadataURI,
		Account:     optional(res.Account),
		State:       res.State.String(),
		TxSignature: optional(res.TxSignature),
		BlockID:     optional(res.BlockID),
		StartedAt:   res.StartedAt.UnixMilli(),
		FinishedAt:  res.FinishedAt.UnixMilli(),
	}
	if res.Err != nil {
		kind := res.Kind.String()
		msg := res.Err.Error()
		a.ErrorKind = &kind
		a.ErrorMessage = &msg
	}
	return s.attempts.Insert(ctx, a)
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func supplyDecimal(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
