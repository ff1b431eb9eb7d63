package domain

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// AddressLength is the decoded length of an account key in bytes.
const AddressLength = 32

// ZeroAddress is the all-zero account key. Genesis allocations originate from it.
const ZeroAddress Address = "11111111111111111111111111111111"

// ErrInvalidAddress is returned when an address is not a base58-encoded 32-byte key.
var ErrInvalidAddress = errors.New("invalid address")

// Address is a base58-encoded 32-byte account key (Bitcoin alphabet).
type Address string

// NewAddress encodes a raw 32-byte key as an Address.
func NewAddress(key []byte) (Address, error) {
	if len(key) != AddressLength {
		return "", fmt.Errorf("%w: key length %d", ErrInvalidAddress, len(key))
	}
	return Address(base58.Encode(key)), nil
}

// ParseAddress validates s and returns it as an Address.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded) != AddressLength {
		return "", fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(decoded))
	}
	return Address(s), nil
}

// String returns the base58 form.
func (a Address) String() string {
	return string(a)
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Validate checks that a decodes to a 32-byte key.
func (a Address) Validate() error {
	_, err := ParseAddress(string(a))
	return err
}

// Bytes returns the decoded key.
func (a Address) Bytes() ([]byte, error) {
	decoded, err := base58.Decode(string(a))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded) != AddressLength {
		return nil, fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(decoded))
	}
	return decoded, nil
}

// IsOnCurve reports whether the address is a valid ed25519 point.
// Only on-curve keys have a private key and can sign transactions;
// program-derived addresses are deliberately off-curve.
func (a Address) IsOnCurve() bool {
	key, err := a.Bytes()
	if err != nil {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(key)
	return err == nil
}
