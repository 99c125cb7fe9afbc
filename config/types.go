package config

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"graphhub/native/metatx"
)

// KnownDeployment pins a precomputed domain separator to a hub address. Both
// fields empty disables the fast path.
type KnownDeployment struct {
	Address   string `toml:"Address"`
	Separator string `toml:"Separator"`
}

// RateLimit bounds JSON-RPC requests per client.
type RateLimit struct {
	RequestsPerMinute uint32 `toml:"RequestsPerMinute"`
	Burst             uint32 `toml:"Burst"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
}

// Domain returns the signing domain described by the configuration.
func (c *Config) Domain() metatx.Domain {
	return metatx.Domain{
		Name:              c.DomainName,
		Version:           c.DomainVersion,
		ChainID:           *uint256.NewInt(c.ChainID),
		VerifyingContract: common.HexToAddress(c.HubAddress),
	}
}

// Known returns the configured known deployment, or nil when unset.
func (c *Config) Known() *metatx.KnownDeployment {
	if c.KnownDeployment.Address == "" && c.KnownDeployment.Separator == "" {
		return nil
	}
	return &metatx.KnownDeployment{
		Address:   common.HexToAddress(c.KnownDeployment.Address),
		Separator: common.HexToHash(c.KnownDeployment.Separator),
	}
}
