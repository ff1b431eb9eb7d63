package assets

import (
	"context"

	"aurora-assets/internal/domain"
)

// Demo catalog created by Seed.
const (
	SeedTokenName   = "Auroraium"
	SeedTokenSymbol = "AUR"

	SeedNFTTitle       = "Aurora-Swarm"
	SeedNFTDescription = "A swarm of specialised micro-intelligences, deployable on demand"
	SeedNFTImageURL    = "https://assets.aurora.example/dreams/aurora-swarm.png"
	SeedNFTMetadataURI = "ipfs://aurora/dreams/aurora-swarm.json"
	SeedNFTType        = "dream"

	SeedChainName     = "dream-fabricator"
	SeedChainPurpose  = "dream generation"
	SeedChainProtocol = "pos"

	SeedModuleName    = "neural_core"
	SeedModulePurpose = "autonomous generated module"
)

// Seeded holds the records created by Seed.
type Seeded struct {
	Token  *domain.TokenRecord
	NFT    *domain.NFTRecord
	Chain  *domain.ChainRecord
	Module *domain.ModuleRecord
}

// Seed populates an empty read model with one record of each kind:
// an undeployed token carrying supply, an unminted dream NFT, a pending
// subchain and a generated module.
func (s *Service) Seed(ctx context.Context, supply uint64) (*Seeded, error) {
	token, err := s.CreateToken(ctx, SeedTokenName, SeedTokenSymbol, supply)
	if err != nil {
		return nil, err
	}
	nft, err := s.CreateNFT(ctx, SeedNFTTitle, SeedNFTDescription, SeedNFTImageURL, SeedNFTMetadataURI,
		map[string]string{"type": SeedNFTType, "name": SeedNFTTitle})
	if err != nil {
		return nil, err
	}
	chain, err := s.CreateChain(ctx, SeedChainName, SeedChainPurpose, SeedChainProtocol)
	if err != nil {
		return nil, err
	}
	module, err := s.RegisterModule(ctx, SeedModuleName, SeedModulePurpose)
	if err != nil {
		return nil, err
	}

	s.logf("seeded token %s, nft %s, chain %s, module %s", token.ID, nft.ID, chain.ID, module.ID)
	return &Seeded{Token: token, NFT: nft, Chain: chain, Module: module}, nil
}
