package domain

import "github.com/shopspring/decimal"

// TokenRecord is the read-model view of a fungible token.
// Corresponds to tokens table in PostgreSQL.
type TokenRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	TotalSupply decimal.Decimal `json:"total_supply"`
	Deployed    bool            `json:"deployed"` // flips false -> true exactly once
	CreatedAt   int64           `json:"created_at"`
}

// NFTRecord is the read-model view of a non-fungible asset.
// Corresponds to nfts table in PostgreSQL.
type NFTRecord struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	ImageURL    string            `json:"image_url"`
	MetadataURI string            `json:"metadata_uri"`
	Traits      map[string]string `json:"traits,omitempty"`
	Minted      bool              `json:"minted"`                 // flips false -> true exactly once, never reverts
	TxSignature *string           `json:"tx_signature,omitempty"` // set together with Minted
	BlockID     *string           `json:"block_id,omitempty"`     // set together with Minted
	CreatedAt   int64             `json:"created_at"`
}

// ChainRecord is the read-model view of a managed subchain.
// Corresponds to chains table in PostgreSQL.
type ChainRecord struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Purpose   string      `json:"purpose"`
	Protocol  string      `json:"protocol"`
	Status    ChainStatus `json:"status"`
	CreatedAt int64       `json:"created_at"`
}

// ModuleRecord is the read-model view of a generated module. Append-only.
// Corresponds to modules table in PostgreSQL.
type ModuleRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Purpose   string `json:"purpose"`
	CreatedAt int64  `json:"created_at"`
}

// Kind implements Record.
func (*TokenRecord) Kind() CollectionKind { return CollectionTokens }

// Kind implements Record.
func (*NFTRecord) Kind() CollectionKind { return CollectionNFTs }

// Kind implements Record.
func (*ChainRecord) Kind() CollectionKind { return CollectionChains }

// Kind implements Record.
func (*ModuleRecord) Kind() CollectionKind { return CollectionModules }
