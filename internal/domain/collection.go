package domain

// CollectionKind identifies one of the read-model collections.
type CollectionKind string

const (
	CollectionTokens  CollectionKind = "tokens"
	CollectionNFTs    CollectionKind = "nfts"
	CollectionChains  CollectionKind = "chains"
	CollectionModules CollectionKind = "modules"
)

// AllCollectionKinds lists every collection in dashboard order.
var AllCollectionKinds = []CollectionKind{
	CollectionTokens,
	CollectionNFTs,
	CollectionChains,
	CollectionModules,
}

// String returns the string representation of CollectionKind.
func (k CollectionKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a known collection.
func (k CollectionKind) IsValid() bool {
	for _, known := range AllCollectionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Record is any read-model record.
type Record interface {
	Kind() CollectionKind
}
