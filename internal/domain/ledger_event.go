package domain

// EventKind distinguishes ledger journal entries.
type EventKind string

const (
	EventKindTransfer EventKind = "TRANSFER"
	EventKindApproval EventKind = "APPROVAL"
)

// LedgerEvent is one entry of the ledger journal.
//
// For TRANSFER: From -> To moves Value; From is ZeroAddress for genesis allocations,
// Spender is set when the move consumed an allowance.
// For APPROVAL: From is the owner, To the spender, Value the new absolute allowance.
type LedgerEvent struct {
	ID        string    // deterministic hash, see idhash.ComputeEventID
	Seq       uint64    // 1-based position in the journal
	Kind      EventKind // TRANSFER | APPROVAL
	From      Address
	To        Address
	Spender   Address // empty unless transferFrom
	Value     uint64
	Timestamp int64 // Unix ms
}

// IsGenesis reports whether the event is a genesis allocation.
func (e *LedgerEvent) IsGenesis() bool {
	return e.Kind == EventKindTransfer && e.From.IsZero()
}
