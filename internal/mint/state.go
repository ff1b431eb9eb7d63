package mint

// State is a mint request's position in its state machine.
type State string

const (
	StateIdle          State = "IDLE"
	StateProviderCheck State = "PROVIDER_CHECK"
	StateAuthorizing   State = "AUTHORIZING"
	StateSubmitted     State = "SUBMITTED"
	StateConfirmed     State = "CONFIRMED"
	StateFailed        State = "FAILED"
)

// String returns the string representation of State.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether s is Confirmed or Failed.
func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// next lists the forward transitions out of each state.
// Every non-terminal state may also fail.
var next = map[State]State{
	StateIdle:          StateProviderCheck,
	StateProviderCheck: StateAuthorizing,
	StateAuthorizing:   StateSubmitted,
	StateSubmitted:     StateConfirmed,
}

// CanTransitionTo reports whether s -> to is a legal transition.
func (s State) CanTransitionTo(to State) bool {
	if s.IsTerminal() {
		return false
	}
	return to == StateFailed || next[s] == to
}

// Kind classifies why a mint request failed.
type Kind string

const (
	KindNoProvider          Kind = "NO_PROVIDER"
	KindAuthorizationDenied Kind = "AUTHORIZATION_DENIED"
	KindSubmissionError     Kind = "SUBMISSION_ERROR"
	KindConfirmationError   Kind = "CONFIRMATION_ERROR"
)

var kindMessages = map[Kind]string{
	KindNoProvider:          "no wallet provider available",
	KindAuthorizationDenied: "wallet authorization denied",
	KindSubmissionError:     "transaction submission failed",
	KindConfirmationError:   "transaction confirmation failed",
}

// String returns the string representation of Kind.
func (k Kind) String() string {
	return string(k)
}

// Message returns the human-readable description of k.
func (k Kind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return "mint failed"
}

// Retryable reports whether issuing a new request may succeed without user action.
func (k Kind) Retryable() bool {
	return k == KindSubmissionError || k == KindConfirmationError
}
