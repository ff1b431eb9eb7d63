package postgres

import (
	"context"
	"fmt"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

// ModuleStore implements storage.ModuleStore using PostgreSQL.
type ModuleStore struct {
	pool *Pool
}

// NewModuleStore creates a new ModuleStore.
func NewModuleStore(pool *Pool) *ModuleStore {
	return &ModuleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ModuleStore = (*ModuleStore)(nil)

// Insert adds a new module. Returns ErrDuplicateKey if id exists.
func (s *ModuleStore) Insert(ctx context.Context, m *domain.ModuleRecord) error {
	if m == nil || m.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO modules (id, name, purpose, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := s.pool.Exec(ctx, query, m.ID, m.Name, m.Purpose, m.CreatedAt); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert module: %w", err)
	}
	return nil
}

// List retrieves all modules in insertion order.
func (s *ModuleStore) List(ctx context.Context) ([]*domain.ModuleRecord, error) {
	query := `
		SELECT id, name, purpose, created_at
		FROM modules
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var modules []*domain.ModuleRecord
	for rows.Next() {
		var m domain.ModuleRecord
		if err := rows.Scan(&m.ID, &m.Name, &m.Purpose, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan module row: %w", err)
		}
		modules = append(modules, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate module rows: %w", err)
	}
	return modules, nil
}
