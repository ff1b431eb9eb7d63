package ledger

import (
	"errors"

	"aurora-assets/internal/domain"
)

// Ledger errors. A failed operation never mutates state.
var (
	// ErrInsufficientBalance is returned when the source balance is below the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance is returned when the spender allowance is below the amount.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrInvalidAddress is returned for malformed or zero addresses.
	ErrInvalidAddress = domain.ErrInvalidAddress

	// ErrSupplyMismatch is returned when a journal does not conserve supply.
	ErrSupplyMismatch = errors.New("balances do not sum to total supply")

	// ErrInvalidJournal is returned when a journal is out of sequence or tampered with.
	ErrInvalidJournal = errors.New("invalid journal")
)
