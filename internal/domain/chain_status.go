package domain

// ChainStatus is the lifecycle status of a chain record.
// Progression is monotonic: PENDING -> ACTIVE or PENDING -> FAILED.
type ChainStatus string

const (
	ChainStatusPending ChainStatus = "PENDING"
	ChainStatusActive  ChainStatus = "ACTIVE"
	ChainStatusFailed  ChainStatus = "FAILED"
)

// String returns the string representation of ChainStatus.
func (s ChainStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known value.
func (s ChainStatus) IsValid() bool {
	return s == ChainStatusPending || s == ChainStatusActive || s == ChainStatusFailed
}

// IsTerminal reports whether no further transition is allowed.
func (s ChainStatus) IsTerminal() bool {
	return s == ChainStatusActive || s == ChainStatusFailed
}

// CanTransitionTo reports whether s -> next is a legal transition.
func (s ChainStatus) CanTransitionTo(next ChainStatus) bool {
	return s == ChainStatusPending && next.IsTerminal()
}
