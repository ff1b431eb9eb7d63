// Package wallet talks to an external wallet provider that signs and submits
// mint transactions on the user's behalf.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"aurora-assets/internal/domain"
)

// Wallet errors.
var (
	// ErrUserRejected is returned when the user declines a wallet request.
	ErrUserRejected = errors.New("user rejected the request")

	// ErrTransactionFailed is returned when a transaction lands with an error.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidAccount is returned when the wallet exposes an unusable signer key.
	ErrInvalidAccount = errors.New("invalid wallet account")

	// ErrClosed is returned after the client has been closed.
	ErrClosed = errors.New("client closed")
)

// InstructionMint is the only instruction this service submits.
const InstructionMint = "mint"

// Provider is the wallet capability needed to mint an asset.
type Provider interface {
	// RequestAccounts asks the user to authorize and returns the exposed accounts.
	RequestAccounts(ctx context.Context) ([]string, error)

	// SendTransaction signs and submits tx, returning its signature.
	SendTransaction(ctx context.Context, tx Transaction) (string, error)

	// WaitForConfirmation blocks until the transaction is confirmed or ctx is done.
	WaitForConfirmation(ctx context.Context, signature string) (*Confirmation, error)
}

// Transaction is a mint request handed to the wallet for signing.
type Transaction struct {
	Instruction string `json:"instruction"`
	Signer      string `json:"signer"`
	MetadataURI string `json:"metadataUri"`
}

// MintTransaction builds the mint(metadataURI) transaction for signer.
func MintTransaction(signer, metadataURI string) Transaction {
	return Transaction{
		Instruction: InstructionMint,
		Signer:      signer,
		MetadataURI: metadataURI,
	}
}

// Confirmation describes a landed transaction.
type Confirmation struct {
	Signature          string
	Slot               int64
	BlockID            string // empty when the provider did not report one
	ConfirmationStatus string // processed | confirmed | finalized
}

// SignatureStatus is one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int64
	ConfirmationStatus string
	Err                interface{}
}

// IsConfirmed reports whether the status reached confirmed commitment.
func (s *SignatureStatus) IsConfirmed() bool {
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}

// ValidateAccount checks that account is a base58 ed25519 public key able to sign.
func ValidateAccount(account string) error {
	addr, err := domain.ParseAddress(account)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	if !addr.IsOnCurve() {
		return fmt.Errorf("%w: %s is not an ed25519 public key", ErrInvalidAccount, account)
	}
	return nil
}
