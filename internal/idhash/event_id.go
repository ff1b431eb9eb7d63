package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"aurora-assets/internal/domain"
)

// ComputeEventID computes a deterministic ledger event id using SHA256.
// Formula: SHA256(seq|kind|from|to|spender|value)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(
	seq uint64,
	kind domain.EventKind,
	from domain.Address,
	to domain.Address,
	spender domain.Address,
	value uint64,
) string {
	data := fmt.Sprintf("%d|%s|%s|%s|%s|%d",
		seq,
		string(kind),
		string(from),
		string(to),
		string(spender),
		value,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
