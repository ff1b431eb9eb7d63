package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeMintRequestID computes a deterministic mint request id using SHA256.
// Formula: SHA256(metadata_uri|nonce|started_at)
// Returns hex-encoded hash (64 characters).
func ComputeMintRequestID(
	metadataURI string,
	nonce uint64,
	startedAt int64,
) string {
	data := fmt.Sprintf("%s|%d|%d",
		metadataURI,
		nonce,
		startedAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
