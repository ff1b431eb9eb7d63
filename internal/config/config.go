// Package config holds the environment-driven settings shared by the commands.
package config

import (
	"errors"
	"fmt"
	"time"

	"aurora-assets/internal/domain"
)

// Config is the service configuration. Command-line flags default to these values.
type Config struct {
	// Wallet provider. An empty RPC endpoint means no wallet is available.
	WalletRPCEndpoint string        `env:"AURORA_WALLET_RPC_ENDPOINT"`
	WalletWSEndpoint  string        `env:"AURORA_WALLET_WS_ENDPOINT"`
	WalletTimeout     time.Duration `env:"AURORA_WALLET_TIMEOUT"       envDefault:"30s"`
	WalletPoll        time.Duration `env:"AURORA_WALLET_POLL_INTERVAL" envDefault:"500ms"`
	MintTimeout       time.Duration `env:"AURORA_MINT_TIMEOUT"         envDefault:"2m"`

	// Storage
	PostgresDSN   string `env:"POSTGRES_DSN"`
	ClickHouseDSN string `env:"CLICKHOUSE_DSN"`
	BadgerPath    string `env:"AURORA_BADGER_PATH"`
	UseMemory     bool   `env:"AURORA_USE_MEMORY"  envDefault:"false"`

	// Ledger genesis
	InitialSupply uint64 `env:"AURORA_INITIAL_SUPPLY" envDefault:"1000"`
	Deployer      string `env:"AURORA_DEPLOYER"`
	Founder       string `env:"AURORA_FOUNDER"`

	// HTTP
	HTTPAddr   string `env:"AURORA_HTTP_ADDR"   envDefault:":8080"`
	GatewayURL string `env:"AURORA_GATEWAY_URL" envDefault:"http://localhost:8080"`

	Seed bool `env:"AURORA_SEED" envDefault:"false"`
}

// Load reads envFile (if present) and then the environment.
func Load(envFile string) (Config, error) {
	var cfg Config
	if envFile != "" {
		if err := LoadEnvFile(envFile); err != nil {
			return cfg, err
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ValidateStorage checks that a storage backend is selected.
func (c Config) ValidateStorage() error {
	if c.UseMemory {
		return nil
	}
	if c.PostgresDSN == "" {
		return errors.New("postgres DSN is required (or enable in-memory storage)")
	}
	return nil
}

// ValidateLedger checks the genesis accounts.
func (c Config) ValidateLedger() error {
	deployer, err := domain.ParseAddress(c.Deployer)
	if err != nil {
		return fmt.Errorf("deployer: %w", err)
	}
	if deployer.IsZero() {
		return fmt.Errorf("deployer: %w: zero address", domain.ErrInvalidAddress)
	}
	if c.Founder != "" {
		if _, err := domain.ParseAddress(c.Founder); err != nil {
			return fmt.Errorf("founder: %w", err)
		}
	}
	return nil
}
