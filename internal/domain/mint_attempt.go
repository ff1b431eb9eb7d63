package domain

// MintAttempt records the terminal outcome of one mint request.
// Corresponds to mint_attempts table in PostgreSQL.
type MintAttempt struct {
	RequestID    string  // PK, deterministic hash of the request
	NFTID        *string // read-model record the mint was issued for (nullable)
	MetadataURI  string
	Account      *string // authorized signer (nullable: failed before authorization)
	State        string  // CONFIRMED | FAILED
	ErrorKind    *string // nullable unless FAILED
	ErrorMessage *string
	TxSignature  *string
	BlockID      *string
	StartedAt    int64 // Unix ms
	FinishedAt   int64 // Unix ms
}
