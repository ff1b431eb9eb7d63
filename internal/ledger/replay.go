package ledger

import (
	"context"
	"fmt"
	"math/bits"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/idhash"
	"aurora-assets/internal/observability"
	"aurora-assets/internal/storage"
)

// Replay rebuilds a ledger from a journal in seq order.
//
// The journal must start with genesis allocations (TRANSFER from the zero
// address), be numbered 1..n without gaps, and carry event ids matching their
// content. Every later transfer must be covered by the balance (and allowance,
// for transferFrom) at that point. The founder is taken from the first genesis
// event. Options apply as for New; a journal set with WithJournal only
// receives events appended after the replay.
func Replay(events []*domain.LedgerEvent, opts ...Option) (*Ledger, error) {
	l := newLedger(opts)

	l.mu.Lock()
	defer l.mu.Unlock()

	genesisDone := false
	for i, e := range events {
		if e == nil {
			return nil, fmt.Errorf("%w: nil event at %d", ErrInvalidJournal, i)
		}
		if e.Seq != uint64(i)+1 {
			return nil, fmt.Errorf("%w: expected seq %d, got %d", ErrInvalidJournal, i+1, e.Seq)
		}
		if want := idhash.ComputeEventID(e.Seq, e.Kind, e.From, e.To, e.Spender, e.Value); e.ID != want {
			return nil, fmt.Errorf("%w: event %d id mismatch", ErrInvalidJournal, e.Seq)
		}

		if err := l.check(*e, &genesisDone); err != nil {
			return nil, err
		}
		l.apply(*e)
	}

	if len(l.events) == 0 {
		return nil, fmt.Errorf("%w: no genesis events", ErrInvalidJournal)
	}

	var sum uint64
	for _, amount := range l.balances {
		sum += amount
	}
	if sum != l.totalSupply {
		return nil, fmt.Errorf("%w: balances %d, supply %d", ErrSupplyMismatch, sum, l.totalSupply)
	}

	observability.UpdateTotalSupply(l.totalSupply)
	l.logf("replayed %d events: supply=%d holders=%d", len(l.events), l.totalSupply, len(l.balances))
	return l, nil
}

// check validates e against the current replay state. Caller must hold l.mu.
func (l *Ledger) check(e domain.LedgerEvent, genesisDone *bool) error {
	switch e.Kind {
	case domain.EventKindTransfer:
		if e.IsGenesis() {
			if *genesisDone {
				return fmt.Errorf("%w: genesis event %d after regular events", ErrInvalidJournal, e.Seq)
			}
			if len(l.events) == 0 {
				l.founder = e.To
			}
			sum, carry := bits.Add64(l.totalSupply, e.Value, 0)
			if carry != 0 {
				return fmt.Errorf("%w: genesis overflows supply at event %d", ErrSupplyMismatch, e.Seq)
			}
			l.totalSupply = sum
			return nil
		}

		*genesisDone = true
		if err := validatePair(e.From, e.To); err != nil {
			return fmt.Errorf("%w: event %d: %v", ErrInvalidJournal, e.Seq, err)
		}
		if e.Spender != "" {
			if l.allowances[allowanceKey{owner: e.From, spender: e.Spender}] < e.Value {
				return fmt.Errorf("%w: event %d overspends allowance", ErrSupplyMismatch, e.Seq)
			}
		}
		if l.balances[e.From] < e.Value {
			return fmt.Errorf("%w: event %d overdraws %s", ErrSupplyMismatch, e.Seq, e.From)
		}
		return nil

	case domain.EventKindApproval:
		*genesisDone = true
		if err := validatePair(e.From, e.To); err != nil {
			return fmt.Errorf("%w: event %d: %v", ErrInvalidJournal, e.Seq, err)
		}
		return nil

	default:
		return fmt.Errorf("%w: event %d has unknown kind %q", ErrInvalidJournal, e.Seq, e.Kind)
	}
}

// Load replays the journal when it holds events, otherwise runs genesis
// and journals the genesis events. This is the process restart path.
func Load(ctx context.Context, journal storage.LedgerEventStore, initialSupply uint64, deployer domain.Address, opts ...Option) (*Ledger, error) {
	events, err := journal.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}

	opts = append(opts[:len(opts):len(opts)], WithJournal(journal))
	if len(events) == 0 {
		return New(ctx, initialSupply, deployer, opts...)
	}
	return Replay(events, opts...)
}
