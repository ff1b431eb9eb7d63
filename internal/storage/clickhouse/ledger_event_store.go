package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/observability"
	"aurora-assets/internal/storage"
)

// LedgerEventStore implements storage.LedgerEventStore using ClickHouse.
// ClickHouse does not enforce uniqueness, so seq collisions are checked
// before insert and appends are serialized per store.
type LedgerEventStore struct {
	conn *Conn
	mu   sync.Mutex
}

// NewLedgerEventStore creates a new LedgerEventStore.
func NewLedgerEventStore(conn *Conn) *LedgerEventStore {
	return &LedgerEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.LedgerEventStore = (*LedgerEventStore)(nil)

// Append adds the next event. Returns ErrDuplicateKey if seq exists.
func (s *LedgerEventStore) Append(ctx context.Context, e *domain.LedgerEvent) (err error) {
	if e == nil || e.Seq == 0 {
		return storage.ErrInvalidInput
	}
	defer track("insert", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.exists(ctx, e.Seq)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ledger_events (
			seq, event_id, kind, from_addr, to_addr, spender, value, timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		e.Seq, e.ID, string(e.Kind),
		string(e.From), string(e.To), string(e.Spender),
		e.Value, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// List retrieves all events ordered by seq ASC.
func (s *LedgerEventStore) List(ctx context.Context) (events []*domain.LedgerEvent, err error) {
	defer track("select", time.Now(), &err)

	query := `
		SELECT seq, event_id, kind, from_addr, to_addr, spender, value, timestamp
		FROM ledger_events FINAL
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ledger events: %w", err)
	}
	defer rows.Close()

	return scanLedgerEvents(rows)
}

// track reports one store operation to observability. Duplicate keys are
// caller errors and not counted as failures.
func track(operation string, start time.Time, errp *error) {
	err := *errp
	if errors.Is(err, storage.ErrDuplicateKey) || errors.Is(err, storage.ErrInvalidInput) {
		err = nil
	}
	observability.RecordDBQuery("clickhouse", operation, time.Since(start).Seconds(), err)
}

// exists checks if an event with the given seq exists.
func (s *LedgerEventStore) exists(ctx context.Context, seq uint64) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM ledger_events FINAL WHERE seq = ?`, seq).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanLedgerEvents scans multiple rows.
func scanLedgerEvents(rows chRows) ([]*domain.LedgerEvent, error) {
	var events []*domain.LedgerEvent

	for rows.Next() {
		var e domain.LedgerEvent
		var kind, from, to, spender string

		err := rows.Scan(&e.Seq, &e.ID, &kind, &from, &to, &spender, &e.Value, &e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan ledger event row: %w", err)
		}

		e.Kind = domain.EventKind(kind)
		e.From = domain.Address(from)
		e.To = domain.Address(to)
		e.Spender = domain.Address(spender)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger event rows: %w", err)
	}

	return events, nil
}
