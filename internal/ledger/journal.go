package ledger

import (
	"context"
	"log"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/observability"
	"aurora-assets/internal/storage"
)

// MirroredJournal appends to a primary journal and copies each accepted
// event to mirrors. Only the primary decides whether an append succeeded;
// mirror failures are logged and counted. List reads the primary.
type MirroredJournal struct {
	primary storage.LedgerEventStore
	mirrors []storage.LedgerEventStore
	logger  *log.Logger
}

// NewMirroredJournal creates a MirroredJournal.
func NewMirroredJournal(primary storage.LedgerEventStore, logger *log.Logger, mirrors ...storage.LedgerEventStore) *MirroredJournal {
	return &MirroredJournal{primary: primary, mirrors: mirrors, logger: logger}
}

// Compile-time interface check.
var _ storage.LedgerEventStore = (*MirroredJournal)(nil)

// Append writes e to the primary, then to every mirror.
func (j *MirroredJournal) Append(ctx context.Context, e *domain.LedgerEvent) error {
	if err := j.primary.Append(ctx, e); err != nil {
		return err
	}
	for _, m := range j.mirrors {
		if err := m.Append(ctx, e); err != nil {
			observability.RecordJournalError()
			if j.logger != nil {
				j.logger.Printf("mirror event %d: %v", e.Seq, err)
			}
		}
	}
	return nil
}

// List returns the primary's events.
func (j *MirroredJournal) List(ctx context.Context) ([]*domain.LedgerEvent, error) {
	return j.primary.List(ctx)
}

// Backfill appends to each mirror the primary events it is missing.
// Mirrors are expected to hold a prefix of the primary.
func (j *MirroredJournal) Backfill(ctx context.Context) error {
	events, err := j.primary.List(ctx)
	if err != nil {
		return err
	}
	for _, m := range j.mirrors {
		have, err := m.List(ctx)
		if err != nil {
			return err
		}
		for _, e := range events[min(len(have), len(events)):] {
			if err := m.Append(ctx, e); err != nil {
				return err
			}
		}
	}
	return nil
}
