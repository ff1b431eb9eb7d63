package idhash

import (
	"testing"

	"aurora-assets/internal/domain"
)

const (
	addrA = domain.Address("6x5SYnLroiN7WYq8NQYU9KHcH4YjpBbwpUfVu3EB7ieH")
	addrB = domain.Address("DbxEdqeNi3hWemjiwSU5L4c8Q7ZbUNQNk9d5pT9bbSQg")
)

func TestComputeEventID(t *testing.T) {
	tests := []struct {
		name    string
		seq     uint64
		kind    domain.EventKind
		from    domain.Address
		to      domain.Address
		spender domain.Address
		value   uint64
	}{
		{"genesis allocation", 1, domain.EventKindTransfer, domain.ZeroAddress, addrA, "", 850},
		{"plain transfer", 3, domain.EventKindTransfer, addrA, addrB, "", 10},
		{"approval", 4, domain.EventKindApproval, addrA, addrB, "", 50},
		{"spend", 5, domain.EventKindTransfer, addrA, addrB, addrB, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeEventID(tt.seq, tt.kind, tt.from, tt.to, tt.spender, tt.value)
			if len(got) != 64 {
				t.Errorf("ComputeEventID() length = %d, want 64", len(got))
			}

			got2 := ComputeEventID(tt.seq, tt.kind, tt.from, tt.to, tt.spender, tt.value)
			if got != got2 {
				t.Errorf("ComputeEventID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeEventID_DifferentInputs(t *testing.T) {
	base := ComputeEventID(1, domain.EventKindTransfer, addrA, addrB, "", 10)

	if base == ComputeEventID(2, domain.EventKindTransfer, addrA, addrB, "", 10) {
		t.Error("Different seq should produce different hash")
	}
	if base == ComputeEventID(1, domain.EventKindApproval, addrA, addrB, "", 10) {
		t.Error("Different kind should produce different hash")
	}
	if base == ComputeEventID(1, domain.EventKindTransfer, addrB, addrA, "", 10) {
		t.Error("Swapped parties should produce different hash")
	}
	if base == ComputeEventID(1, domain.EventKindTransfer, addrA, addrB, addrB, 10) {
		t.Error("Different spender should produce different hash")
	}
	if base == ComputeEventID(1, domain.EventKindTransfer, addrA, addrB, "", 11) {
		t.Error("Different value should produce different hash")
	}
}
