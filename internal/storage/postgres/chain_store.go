package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

const chainsTable = "chains"

// ChainStore implements storage.ChainStore using PostgreSQL.
type ChainStore struct {
	pool *Pool
}

// NewChainStore creates a new ChainStore.
func NewChainStore(pool *Pool) *ChainStore {
	return &ChainStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ChainStore = (*ChainStore)(nil)

// Insert adds a new chain. Returns ErrDuplicateKey if id exists.
func (s *ChainStore) Insert(ctx context.Context, c *domain.ChainRecord) error {
	if c == nil || c.ID == "" || !c.Status.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO chains (id, name, purpose, protocol, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Purpose,
		c.Protocol,
		string(c.Status),
		c.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert chain: %w", err)
	}
	return nil
}

// GetByID retrieves a chain by its ID. Returns ErrNotFound if not exists.
func (s *ChainStore) GetByID(ctx context.Context, id string) (*domain.ChainRecord, error) {
	query := `
		SELECT id, name, purpose, protocol, status, created_at
		FROM chains
		WHERE id = $1
	`

	c, err := scanChain(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get chain by id: %w", err)
	}
	return c, nil
}

// List retrieves all chains in insertion order.
func (s *ChainStore) List(ctx context.Context) ([]*domain.ChainRecord, error) {
	query := `
		SELECT id, name, purpose, protocol, status, created_at
		FROM chains
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	defer rows.Close()

	var chains []*domain.ChainRecord
	for rows.Next() {
		c, err := scanChain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chain row: %w", err)
		}
		chains = append(chains, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chain rows: %w", err)
	}
	return chains, nil
}

// UpdateStatus moves a chain to a new status.
// Returns ErrInvalidTransition unless the move is PENDING -> ACTIVE|FAILED.
func (s *ChainStore) UpdateStatus(ctx context.Context, id string, status domain.ChainStatus) error {
	if !status.IsValid() {
		return storage.ErrInvalidInput
	}

	if status.IsTerminal() {
		query := `UPDATE chains SET status = $2 WHERE id = $1 AND status = $3`
		tag, err := s.pool.Exec(ctx, query, id, string(status), string(domain.ChainStatusPending))
		if err != nil {
			return fmt.Errorf("update chain status: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
	}

	found, err := s.pool.exists(ctx, chainsTable, id)
	if err != nil {
		return err
	}
	if !found {
		return storage.ErrNotFound
	}
	return storage.ErrInvalidTransition
}

// scanChain scans a single row into a ChainRecord.
func scanChain(row pgx.Row) (*domain.ChainRecord, error) {
	var c domain.ChainRecord
	var statusStr string

	if err := row.Scan(&c.ID, &c.Name, &c.Purpose, &c.Protocol, &statusStr, &c.CreatedAt); err != nil {
		return nil, err
	}

	c.Status = domain.ChainStatus(statusStr)
	return &c, nil
}
