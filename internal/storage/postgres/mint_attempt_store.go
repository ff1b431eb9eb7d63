package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

// MintAttemptStore implements storage.MintAttemptStore using PostgreSQL.
type MintAttemptStore struct {
	pool *Pool
}

// NewMintAttemptStore creates a new MintAttemptStore.
func NewMintAttemptStore(pool *Pool) *MintAttemptStore {
	return &MintAttemptStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MintAttemptStore = (*MintAttemptStore)(nil)

// Insert adds a terminal mint outcome. Returns ErrDuplicateKey if request_id exists.
// Returns ErrInvalidInput if nft_id references an unknown NFT.
func (s *MintAttemptStore) Insert(ctx context.Context, a *domain.MintAttempt) error {
	if a == nil || a.RequestID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO mint_attempts (
			request_id, nft_id, metadata_uri, account, state, error_kind, error_message,
			tx_signature, block_id, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		a.RequestID,
		a.NFTID,
		a.MetadataURI,
		a.Account,
		a.State,
		a.ErrorKind,
		a.ErrorMessage,
		a.TxSignature,
		a.BlockID,
		a.StartedAt,
		a.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isConstraintError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert mint attempt: %w", err)
	}
	return nil
}

// GetByID retrieves an attempt by request ID. Returns ErrNotFound if not exists.
func (s *MintAttemptStore) GetByID(ctx context.Context, requestID string) (*domain.MintAttempt, error) {
	query := `
		SELECT request_id, nft_id, metadata_uri, account, state, error_kind, error_message,
			tx_signature, block_id, started_at, finished_at
		FROM mint_attempts
		WHERE request_id = $1
	`

	a, err := scanMintAttempt(s.pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get mint attempt by id: %w", err)
	}
	return a, nil
}

// GetByNFT retrieves all attempts for an NFT, ordered by started_at ASC.
func (s *MintAttemptStore) GetByNFT(ctx context.Context, nftID string) ([]*domain.MintAttempt, error) {
	query := `
		SELECT request_id, nft_id, metadata_uri, account, state, error_kind, error_message,
			tx_signature, block_id, started_at, finished_at
		FROM mint_attempts
		WHERE nft_id = $1
		ORDER BY started_at ASC, request_id ASC
	`

	rows, err := s.pool.Query(ctx, query, nftID)
	if err != nil {
		return nil, fmt.Errorf("get mint attempts by nft: %w", err)
	}
	defer rows.Close()

	var attempts []*domain.MintAttempt
	for rows.Next() {
		a, err := scanMintAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mint attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mint attempt rows: %w", err)
	}
	return attempts, nil
}

// scanMintAttempt scans a single row into a MintAttempt.
func scanMintAttempt(row pgx.Row) (*domain.MintAttempt, error) {
	var a domain.MintAttempt
	err := row.Scan(
		&a.RequestID,
		&a.NFTID,
		&a.MetadataURI,
		&a.Account,
		&a.State,
		&a.ErrorKind,
		&a.ErrorMessage,
		&a.TxSignature,
		&a.BlockID,
		&a.StartedAt,
		&a.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
