package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const separatorHexLen = 2 + 2*common.HashLength

// Validate rejects configurations the node cannot start with.
func Validate(c *Config) error {
	if c.ChainID == 0 {
		return fmt.Errorf("config: ChainID must be non-zero")
	}
	if !common.IsHexAddress(c.HubAddress) {
		return fmt.Errorf("config: HubAddress %q is not a hex address", c.HubAddress)
	}
	if strings.TrimSpace(c.DomainName) == "" {
		return fmt.Errorf("config: DomainName must not be empty")
	}
	if c.Known() != nil {
		if !common.IsHexAddress(c.KnownDeployment.Address) {
			return fmt.Errorf("config: KnownDeployment.Address %q is not a hex address", c.KnownDeployment.Address)
		}
		sep := c.KnownDeployment.Separator
		if len(sep) != separatorHexLen || !strings.HasPrefix(sep, "0x") {
			return fmt.Errorf("config: KnownDeployment.Separator must be a 0x-prefixed 32-byte hex string")
		}
		if _, err := common.ParseHexOrString(sep); err != nil {
			return fmt.Errorf("config: KnownDeployment.Separator: %w", err)
		}
	}
	if c.RateLimit.Burst == 0 || c.RateLimit.RequestsPerMinute == 0 {
		return fmt.Errorf("config: RateLimit values must be positive")
	}
	return nil
}
