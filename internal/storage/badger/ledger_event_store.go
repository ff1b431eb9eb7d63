package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/storage"
)

const prefixLedgerEvent = "LEDGER:EVENT:"

// ledgerEventRecord is the msgpack encoding of a domain.LedgerEvent.
type ledgerEventRecord struct {
	ID        string `msgpack:"id"`
	Seq       uint64 `msgpack:"seq"`
	Kind      string `msgpack:"kind"`
	From      string `msgpack:"from"`
	To        string `msgpack:"to"`
	Spender   string `msgpack:"spender,omitempty"`
	Value     uint64 `msgpack:"value"`
	Timestamp int64  `msgpack:"ts"`
}

// LedgerEventStore implements storage.LedgerEventStore on top of Store.
// Keys are prefix + big-endian seq so iteration order equals seq order.
type LedgerEventStore struct {
	store *Store
}

// NewLedgerEventStore creates a new LedgerEventStore.
func NewLedgerEventStore(store *Store) *LedgerEventStore {
	return &LedgerEventStore{store: store}
}

// Compile-time interface check.
var _ storage.LedgerEventStore = (*LedgerEventStore)(nil)

// Append adds the next event. Returns ErrDuplicateKey if seq exists.
func (s *LedgerEventStore) Append(_ context.Context, e *domain.LedgerEvent) error {
	if e == nil || e.Seq == 0 {
		return storage.ErrInvalidInput
	}

	val, err := msgpack.Marshal(&ledgerEventRecord{
		ID:        e.ID,
		Seq:       e.Seq,
		Kind:      string(e.Kind),
		From:      string(e.From),
		To:        string(e.To),
		Spender:   string(e.Spender),
		Value:     e.Value,
		Timestamp: e.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("encode ledger event: %w", err)
	}

	key := ledgerEventKey(e.Seq)
	err = s.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return storage.ErrDuplicateKey
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, val)
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("append ledger event: %w", err)
	}
	return nil
}

// List retrieves all events ordered by seq ASC.
func (s *LedgerEventStore) List(_ context.Context) ([]*domain.LedgerEvent, error) {
	var events []*domain.LedgerEvent

	err := s.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixLedgerEvent)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.Valid(); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec ledgerEventRecord
			if err := msgpack.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode ledger event: %w", err)
			}
			events = append(events, &domain.LedgerEvent{
				ID:        rec.ID,
				Seq:       rec.Seq,
				Kind:      domain.EventKind(rec.Kind),
				From:      domain.Address(rec.From),
				To:        domain.Address(rec.To),
				Spender:   domain.Address(rec.Spender),
				Value:     rec.Value,
				Timestamp: rec.Timestamp,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list ledger events: %w", err)
	}
	return events, nil
}

func ledgerEventKey(seq uint64) []byte {
	key := make([]byte, len(prefixLedgerEvent)+8)
	copy(key, prefixLedgerEvent)
	binary.BigEndian.PutUint64(key[len(prefixLedgerEvent):], seq)
	return key
}
