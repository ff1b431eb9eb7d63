package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

const nftsTable = "nfts"

// NFTStore implements storage.NFTStore using PostgreSQL.
type NFTStore struct {
	pool *Pool
}

// NewNFTStore creates a new NFTStore.
func NewNFTStore(pool *Pool) *NFTStore {
	return &NFTStore{pool: pool}
}

// Compile-time interface check.
var _ storage.NFTStore = (*NFTStore)(nil)

// Insert adds a new NFT. Returns ErrDuplicateKey if id exists.
func (s *NFTStore) Insert(ctx context.Context, n *domain.NFTRecord) error {
	if n == nil || n.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO nfts (
			id, title, description, image_url, metadata_uri, traits, minted, tx_signature, block_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	traits := n.Traits
	if traits == nil {
		traits = map[string]string{}
	}

	_, err := s.pool.Exec(ctx, query,
		n.ID,
		n.Title,
		n.Description,
		n.ImageURL,
		n.MetadataURI,
		traits,
		n.Minted,
		n.TxSignature,
		n.BlockID,
		n.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isConstraintError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert nft: %w", err)
	}
	return nil
}

// GetByID retrieves an NFT by its ID. Returns ErrNotFound if not exists.
func (s *NFTStore) GetByID(ctx context.Context, id string) (*domain.NFTRecord, error) {
	query := `
		SELECT id, title, description, image_url, metadata_uri, traits, minted, tx_signature, block_id, created_at
		FROM nfts
		WHERE id = $1
	`

	n, err := scanNFT(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get nft by id: %w", err)
	}
	return n, nil
}

// List retrieves all NFTs in insertion order.
func (s *NFTStore) List(ctx context.Context) ([]*domain.NFTRecord, error) {
	query := `
		SELECT id, title, description, image_url, metadata_uri, traits, minted, tx_signature, block_id, created_at
		FROM nfts
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list nfts: %w", err)
	}
	defer rows.Close()

	var nfts []*domain.NFTRecord
	for rows.Next() {
		n, err := scanNFT(rows)
		if err != nil {
			return nil, fmt.Errorf("scan nft row: %w", err)
		}
		nfts = append(nfts, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nft rows: %w", err)
	}
	return nfts, nil
}

// MarkMinted flips minted to true. Returns ErrInvalidTransition if already minted.
func (s *NFTStore) MarkMinted(ctx context.Context, id, txSignature, blockID string) error {
	if blockID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE nfts
		SET minted = TRUE, tx_signature = $2, block_id = $3
		WHERE id = $1 AND minted = FALSE
	`

	tag, err := s.pool.Exec(ctx, query, id, txSignature, blockID)
	if err != nil {
		return fmt.Errorf("mark nft minted: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	found, err := s.pool.exists(ctx, nftsTable, id)
	if err != nil {
		return err
	}
	if !found {
		return storage.ErrNotFound
	}
	return storage.ErrInvalidTransition
}

// scanNFT scans a single row into an NFTRecord.
func scanNFT(row pgx.Row) (*domain.NFTRecord, error) {
	var n domain.NFTRecord
	err := row.Scan(
		&n.ID,
		&n.Title,
		&n.Description,
		&n.ImageURL,
		&n.MetadataURI,
		&n.Traits,
		&n.Minted,
		&n.TxSignature,
		&n.BlockID,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(n.Traits) == 0 {
		n.Traits = nil
	}
	return &n, nil
}
