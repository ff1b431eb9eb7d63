// Package ledger implements fungible-token bookkeeping with supply conservation.
package ledger

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/idhash"
	"aurora-assets/internal/observability"
	"aurora-assets/internal/storage"
)

// DefaultFounder receives the founder share when no WithFounder option is given.
const DefaultFounder domain.Address = "DbxEdqeNi3hWemjiwSU5L4c8Q7ZbUNQNk9d5pT9bbSQg"

// FounderSharePercent is the share of initial supply allocated to the founder.
const FounderSharePercent = 15

// Operation labels for metrics.
const (
	opTransfer     = "transfer"
	opTransferFrom = "transfer_from"
	opApprove      = "approve"
)

// BalanceEntry is one non-zero balance.
type BalanceEntry struct {
	Address domain.Address `json:"address"`
	Amount  uint64         `json:"amount"`
}

type allowanceKey struct {
	owner   domain.Address
	spender domain.Address
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithFounder overrides the founder address.
func WithFounder(addr domain.Address) Option {
	return func(l *Ledger) {
		l.founder = addr
	}
}

// WithJournal sets the store every event is appended to before it takes effect.
func WithJournal(j storage.LedgerEventStore) Option {
	return func(l *Ledger) {
		l.journal = j
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// Ledger tracks balances and allowances of a single fungible asset.
// All mutations are serialized by one mutex; Σ balances == TotalSupply always holds.
type Ledger struct {
	mu          sync.Mutex
	totalSupply uint64
	balances    map[domain.Address]uint64
	allowances  map[allowanceKey]uint64
	events      []domain.LedgerEvent

	founder domain.Address
	journal storage.LedgerEventStore
	now     func() time.Time
	logger  *log.Logger
}

func newLedger(opts []Option) *Ledger {
	l := &Ledger{
		balances:   make(map[domain.Address]uint64),
		allowances: make(map[allowanceKey]uint64),
		founder:    DefaultFounder,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// New creates a ledger and performs the genesis allocation:
// floor(initialSupply*15/100) to the founder, the remainder to deployer.
// Two TRANSFER events from the zero address are emitted, founder first.
func New(ctx context.Context, initialSupply uint64, deployer domain.Address, opts ...Option) (*Ledger, error) {
	l := newLedger(opts)

	if err := validateAccount(l.founder); err != nil {
		return nil, fmt.Errorf("founder: %w", err)
	}
	if err := validateAccount(deployer); err != nil {
		return nil, fmt.Errorf("deployer: %w", err)
	}

	founderShare := FounderShare(initialSupply)
	remaining := initialSupply - founderShare

	l.mu.Lock()
	defer l.mu.Unlock()

	l.totalSupply = initialSupply
	if err := l.commit(ctx, l.newEvent(domain.EventKindTransfer, domain.ZeroAddress, l.founder, "", founderShare)); err != nil {
		return nil, err
	}
	if err := l.commit(ctx, l.newEvent(domain.EventKindTransfer, domain.ZeroAddress, deployer, "", remaining)); err != nil {
		return nil, err
	}

	observability.UpdateTotalSupply(initialSupply)
	l.logf("genesis: supply=%d founder=%s share=%d deployer=%s remaining=%d",
		initialSupply, l.founder, founderShare, deployer, remaining)
	return l, nil
}

// FounderShare returns floor(supply*15/100) without overflowing uint64.
func FounderShare(supply uint64) uint64 {
	return supply/100*FounderSharePercent + (supply%100)*FounderSharePercent/100
}

// Transfer moves amount from one account to another and emits a TRANSFER event.
// Zero-amount transfers are legal. Returns ErrInsufficientBalance without
// mutating anything when balance[from] < amount.
func (l *Ledger) Transfer(ctx context.Context, from, to domain.Address, amount uint64) error {
	if err := validatePair(from, to); err != nil {
		observability.RecordLedgerRejection(opTransfer, "invalid_address")
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		observability.RecordLedgerRejection(opTransfer, "insufficient_balance")
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, from, l.balances[from], amount)
	}

	if err := l.commit(ctx, l.newEvent(domain.EventKindTransfer, from, to, "", amount)); err != nil {
		return err
	}
	observability.RecordLedgerTransfer(opTransfer)
	return nil
}

// TransferFrom moves amount from owner to recipient using the spender's allowance.
// The allowance is checked before the balance; both are checked before anything moves.
func (l *Ledger) TransferFrom(ctx context.Context, spender, from, to domain.Address, amount uint64) error {
	if err := validateAccount(spender); err != nil {
		observability.RecordLedgerRejection(opTransferFrom, "invalid_address")
		return err
	}
	if err := validatePair(from, to); err != nil {
		observability.RecordLedgerRejection(opTransferFrom, "invalid_address")
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := allowanceKey{owner: from, spender: spender}
	if l.allowances[key] < amount {
		observability.RecordLedgerRejection(opTransferFrom, "insufficient_allowance")
		return fmt.Errorf("%w: %s may spend %d of %s, needs %d",
			ErrInsufficientAllowance, spender, l.allowances[key], from, amount)
	}
	if l.balances[from] < amount {
		observability.RecordLedgerRejection(opTransferFrom, "insufficient_balance")
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, from, l.balances[from], amount)
	}

	if err := l.commit(ctx, l.newEvent(domain.EventKindTransfer, from, to, spender, amount)); err != nil {
		return err
	}
	observability.RecordLedgerTransfer(opTransferFrom)
	return nil
}

// Approve sets the spender allowance to amount (absolute, not additive)
// and emits an APPROVAL event.
func (l *Ledger) Approve(ctx context.Context, owner, spender domain.Address, amount uint64) error {
	if err := validatePair(owner, spender); err != nil {
		observability.RecordLedgerRejection(opApprove, "invalid_address")
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.commit(ctx, l.newEvent(domain.EventKindApproval, owner, spender, "", amount)); err != nil {
		return err
	}
	observability.RecordLedgerApproval()
	return nil
}

// BalanceOf returns the balance of addr, zero for unknown accounts.
func (l *Ledger) BalanceOf(addr domain.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr]
}

// Allowance returns how much spender may move on behalf of owner, zero by default.
func (l *Ledger) Allowance(owner, spender domain.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[allowanceKey{owner: owner, spender: spender}]
}

// TotalSupply returns the fixed total supply.
func (l *Ledger) TotalSupply() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalSupply
}

// Founder returns the founder address.
func (l *Ledger) Founder() domain.Address {
	return l.founder
}

// Events returns a copy of the in-process event log in seq order.
func (l *Ledger) Events() []domain.LedgerEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.LedgerEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Holders returns all non-zero balances sorted by address.
func (l *Ledger) Holders() []BalanceEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]BalanceEntry, 0, len(l.balances))
	for addr, amount := range l.balances {
		out = append(out, BalanceEntry{Address: addr, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address < out[j].Address
	})
	return out
}

// newEvent builds the next event. Caller must hold l.mu.
func (l *Ledger) newEvent(kind domain.EventKind, from, to, spender domain.Address, value uint64) domain.LedgerEvent {
	seq := uint64(len(l.events)) + 1
	return domain.LedgerEvent{
		ID:        idhash.ComputeEventID(seq, kind, from, to, spender, value),
		Seq:       seq,
		Kind:      kind,
		From:      from,
		To:        to,
		Spender:   spender,
		Value:     value,
		Timestamp: l.now().UnixMilli(),
	}
}

// commit journals e and then applies it. Caller must hold l.mu and have
// validated e against current state. A journal failure leaves state untouched.
func (l *Ledger) commit(ctx context.Context, e domain.LedgerEvent) error {
	if l.journal != nil {
		if err := l.journal.Append(ctx, &e); err != nil {
			observability.RecordJournalError()
			l.logf("journal append seq=%d failed: %v", e.Seq, err)
			return fmt.Errorf("append journal: %w", err)
		}
	}
	l.apply(e)
	return nil
}

// apply mutates balances and allowances for e. Caller must hold l.mu.
func (l *Ledger) apply(e domain.LedgerEvent) {
	switch e.Kind {
	case domain.EventKindTransfer:
		if !e.IsGenesis() {
			l.debit(e.From, e.Value)
		}
		l.credit(e.To, e.Value)
		if e.Spender != "" {
			key := allowanceKey{owner: e.From, spender: e.Spender}
			l.allowances[key] -= e.Value
			if l.allowances[key] == 0 {
				delete(l.allowances, key)
			}
		}
	case domain.EventKindApproval:
		key := allowanceKey{owner: e.From, spender: e.To}
		if e.Value == 0 {
			delete(l.allowances, key)
		} else {
			l.allowances[key] = e.Value
		}
	}
	l.events = append(l.events, e)
}

func (l *Ledger) credit(addr domain.Address, amount uint64) {
	if amount > 0 {
		l.balances[addr] += amount
	}
}

func (l *Ledger) debit(addr domain.Address, amount uint64) {
	l.balances[addr] -= amount
	if l.balances[addr] == 0 {
		delete(l.balances, addr)
	}
}

func (l *Ledger) logf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
	}
}

// validateAccount rejects malformed and zero addresses.
func validateAccount(addr domain.Address) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	if addr.IsZero() {
		return fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	return nil
}

func validatePair(a, b domain.Address) error {
	if err := validateAccount(a); err != nil {
		return err
	}
	return validateAccount(b)
}
