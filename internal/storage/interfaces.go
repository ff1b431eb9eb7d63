package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"aurora-assets/internal/domain"
)

// TokenStore provides access to the tokens read-model.
type TokenStore interface {
	// Insert adds a new token. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, t *domain.TokenRecord) error

	// GetByID retrieves a token by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.TokenRecord, error)

	// List retrieves all tokens in insertion order.
	List(ctx context.Context) ([]*domain.TokenRecord, error)

	// MarkDeployed flips deployed to true. Returns ErrInvalidTransition if already deployed.
	MarkDeployed(ctx context.Context, id string) error

	// UpdateSupply replaces the total supply. Returns ErrInvalidInput for negative supply.
	UpdateSupply(ctx context.Context, id string, supply decimal.Decimal) error
}

// NFTStore provides access to the nfts read-model.
type NFTStore interface {
	// Insert adds a new NFT. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, n *domain.NFTRecord) error

	// GetByID retrieves an NFT by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.NFTRecord, error)

	// List retrieves all NFTs in insertion order.
	List(ctx context.Context) ([]*domain.NFTRecord, error)

	// MarkMinted flips minted to true and records the confirming transaction.
	// Returns ErrInvalidTransition if already minted.
	MarkMinted(ctx context.Context, id, txSignature, blockID string) error
}

// ChainStore provides access to the chains read-model.
type ChainStore interface {
	// Insert adds a new chain. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, c *domain.ChainRecord) error

	// GetByID retrieves a chain by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.ChainRecord, error)

	// List retrieves all chains in insertion order.
	List(ctx context.Context) ([]*domain.ChainRecord, error)

	// UpdateStatus moves a chain to a new status.
	// Returns ErrInvalidTransition unless the move is PENDING -> ACTIVE|FAILED.
	UpdateStatus(ctx context.Context, id string, status domain.ChainStatus) error
}

// ModuleStore provides access to the modules read-model. Append-only.
type ModuleStore interface {
	// Insert adds a new module. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, m *domain.ModuleRecord) error

	// List retrieves all modules in insertion order.
	List(ctx context.Context) ([]*domain.ModuleRecord, error)
}

// LedgerEventStore provides access to the ledger journal. Append-only.
type LedgerEventStore interface {
	// Append adds the next event. Returns ErrDuplicateKey if seq exists.
	Append(ctx context.Context, e *domain.LedgerEvent) error

	// List retrieves all events ordered by seq ASC.
	List(ctx context.Context) ([]*domain.LedgerEvent, error)
}

// MintAttemptStore provides access to mint_attempts storage.
type MintAttemptStore interface {
	// Insert adds a terminal mint outcome. Returns ErrDuplicateKey if request_id exists.
	Insert(ctx context.Context, a *domain.MintAttempt) error

	// GetByID retrieves an attempt by request ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, requestID string) (*domain.MintAttempt, error)

	// GetByNFT retrieves all attempts for an NFT, ordered by started_at ASC.
	GetByNFT(ctx context.Context, nftID string) ([]*domain.MintAttempt, error)
}
