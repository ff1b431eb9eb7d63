package mint

import "errors"

// Error is the failure of a mint request: exactly one Kind plus the underlying cause.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.Message()
	}
	return e.Kind.Message() + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNoProvider) works
// regardless of the cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Cause == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrNoProvider          = &Error{Kind: KindNoProvider}
	ErrAuthorizationDenied = &Error{Kind: KindAuthorizationDenied}
	ErrSubmissionError     = &Error{Kind: KindSubmissionError}
	ErrConfirmationError   = &Error{Kind: KindConfirmationError}
)

var (
	// ErrInvalidMetadataURI is the cause when a request carries no metadata reference.
	ErrInvalidMetadataURI = errors.New("metadata uri is empty")

	errNoAccounts     = errors.New("provider exposed no accounts")
	errEmptySignature = errors.New("provider returned empty transaction signature")
	errEmptyBlockID   = errors.New("confirmation carries no block identifier")
)
