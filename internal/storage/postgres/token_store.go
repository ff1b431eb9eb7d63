package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

const tokensTable = "tokens"

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Insert adds a new token. Returns ErrDuplicateKey if id exists.
func (s *TokenStore) Insert(ctx context.Context, t *domain.TokenRecord) error {
	if t == nil || t.ID == "" || t.TotalSupply.IsNegative() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tokens (id, name, symbol, total_supply, deployed, created_at)
		VALUES ($1, $2, $3, $4::NUMERIC, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		t.ID,
		t.Name,
		t.Symbol,
		t.TotalSupply.String(),
		t.Deployed,
		t.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByID retrieves a token by its ID. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByID(ctx context.Context, id string) (*domain.TokenRecord, error) {
	query := `
		SELECT id, name, symbol, total_supply::TEXT, deployed, created_at
		FROM tokens
		WHERE id = $1
	`

	t, err := scanToken(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by id: %w", err)
	}
	return t, nil
}

// List retrieves all tokens in insertion order.
func (s *TokenStore) List(ctx context.Context) ([]*domain.TokenRecord, error) {
	query := `
		SELECT id, name, symbol, total_supply::TEXT, deployed, created_at
		FROM tokens
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.TokenRecord
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}
	return tokens, nil
}

// MarkDeployed flips deployed to true. Returns ErrInvalidTransition if already deployed.
func (s *TokenStore) MarkDeployed(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tokens SET deployed = TRUE WHERE id = $1 AND deployed = FALSE`, id)
	if err != nil {
		return fmt.Errorf("mark token deployed: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	found, err := s.pool.exists(ctx, tokensTable, id)
	if err != nil {
		return err
	}
	if !found {
		return storage.ErrNotFound
	}
	return storage.ErrInvalidTransition
}

// UpdateSupply replaces the total supply of a token.
func (s *TokenStore) UpdateSupply(ctx context.Context, id string, supply decimal.Decimal) error {
	if supply.IsNegative() {
		return storage.ErrInvalidInput
	}

	tag, err := s.pool.Exec(ctx, `UPDATE tokens SET total_supply = $2::NUMERIC WHERE id = $1`, id, supply.String())
	if err != nil {
		return fmt.Errorf("update token supply: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanToken scans a single row into a TokenRecord.
func scanToken(row pgx.Row) (*domain.TokenRecord, error) {
	var t domain.TokenRecord
	var supply string

	if err := row.Scan(&t.ID, &t.Name, &t.Symbol, &supply, &t.Deployed, &t.CreatedAt); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(supply)
	if err != nil {
		return nil, fmt.Errorf("parse total_supply %q: %w", supply, err)
	}
	t.TotalSupply = parsed
	return &t, nil
}
