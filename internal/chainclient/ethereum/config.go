package ethereum

import (
	"fmt"

	"github.com/ava-labs/libevm/common"
	"github.com/caarlos0/env/v11"
)

// Config holds contract discovery settings. Defaults target Ethereum mainnet.
type Config struct {
	StorageAddress     common.Address   `env:"ROCKET_STORAGE_ADDRESS" envDefault:"0x1d8f8f00cfa6758d7bE78336684788Fb0ee0Fa46"` // RocketStorage registry
	ENSRegistryAddress common.Address   `env:"ENS_REGISTRY_ADDRESS"   envDefault:"0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"`
	TokenKey           string           `env:"ROCKET_TOKEN_KEY"       envDefault:"rocketTokenRETH"`       // registry name of the claim token
	BalancesKey        string           `env:"ROCKET_BALANCES_KEY"    envDefault:"rocketNetworkBalances"` // registry name of the balances contract
	BalancesContracts  []common.Address `env:"ROCKET_BALANCES_CONTRACTS" envSeparator:","`                // overrides registry lookup, e.g. to include retired contracts
}

// LoadConfig loads Config from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse ethereum config: %w", err)
	}
	return cfg, nil
}
