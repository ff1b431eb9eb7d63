package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// ed25519 base point encoding
	onCurveAddress = "6x5SYnLroiN7WYq8NQYU9KHcH4YjpBbwpUfVu3EB7ieH"
	// sha256 digest that does not decode to a curve point
	offCurveAddress = "EU1aRZYwnSp23maxnjv5jVej71P1nFFb6we1x3Zy89RB"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"zero address", "11111111111111111111111111111111", false},
		{"on curve key", onCurveAddress, false},
		{"off curve key", offCurveAddress, false},
		{"empty", "", true},
		{"invalid alphabet", "0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl", true},
		{"too short", "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidAddress), "expected ErrInvalidAddress, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, addr.String())
		})
	}
}

func TestNewAddress_ZeroKey(t *testing.T) {
	addr, err := NewAddress(make([]byte, AddressLength))
	require.NoError(t, err)
	assert.Equal(t, ZeroAddress, addr)
	assert.True(t, addr.IsZero())

	_, err = NewAddress([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAddress_RoundTrip(t *testing.T) {
	key := make([]byte, AddressLength)
	for i := range key {
		key[i] = byte(i + 1)
	}

	addr, err := NewAddress(key)
	require.NoError(t, err)

	decoded, err := addr.Bytes()
	require.NoError(t, err)
	assert.Equal(t, key, decoded)
	assert.NoError(t, addr.Validate())
}

func TestAddress_IsOnCurve(t *testing.T) {
	assert.True(t, Address(onCurveAddress).IsOnCurve())
	assert.False(t, Address(offCurveAddress).IsOnCurve())
	assert.False(t, Address("not-base58!").IsOnCurve())
}
