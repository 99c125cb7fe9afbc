// core/genesis/spec.go
package genesis

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"graphhub/native/protocol"
)

// Spec is the YAML genesis document of a hub.
type Spec struct {
	GenesisTime     string   `yaml:"genesisTime"`
	ChainID         uint64   `yaml:"chainId"`
	Governance      string   `yaml:"governance"`
	EmergencyAdmin  string   `yaml:"emergencyAdmin,omitempty"`
	State           string   `yaml:"state,omitempty"`
	ProfileCreators []string `yaml:"profileCreators,omitempty"`

	genesisTimestamp time.Time
	governance       common.Address
	emergencyAdmin   common.Address
	state            protocol.State
	creators         []common.Address
}

// LoadSpec reads and validates the genesis file at path.
func LoadSpec(path string) (*Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis: %w", err)
	}
	return ParseSpec(raw)
}

// ParseSpec decodes and validates a YAML genesis document.
func ParseSpec(raw []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("decode genesis: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func parseAddress(field, raw string, required bool) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if required {
			return common.Address{}, fmt.Errorf("genesis: %s is required", field)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("genesis: %s %q is not a hex address", field, raw)
	}
	return common.HexToAddress(trimmed), nil
}

func (s *Spec) validate() error {
	if s.ChainID == 0 {
		return fmt.Errorf("genesis: chainId must be non-zero")
	}
	if strings.TrimSpace(s.GenesisTime) != "" {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(s.GenesisTime))
		if err != nil {
			return fmt.Errorf("genesis: invalid genesisTime: %w", err)
		}
		s.genesisTimestamp = ts.UTC()
	}
	var err error
	if s.governance, err = parseAddress("governance", s.Governance, true); err != nil {
		return err
	}
	if s.emergencyAdmin, err = parseAddress("emergencyAdmin", s.EmergencyAdmin, false); err != nil {
		return err
	}
	if s.state, err = protocol.ParseState(s.State); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	seen := make(map[common.Address]struct{}, len(s.ProfileCreators))
	s.creators = s.creators[:0]
	for _, raw := range s.ProfileCreators {
		addr, err := parseAddress("profileCreators", raw, true)
		if err != nil {
			return err
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("genesis: duplicate profile creator %s", addr.Hex())
		}
		seen[addr] = struct{}{}
		s.creators = append(s.creators, addr)
	}
	return nil
}

// GenesisTimestamp returns the parsed genesis time, zero when unset.
func (s *Spec) GenesisTimestamp() time.Time { return s.genesisTimestamp }

// GovernanceAddress returns the parsed governance address.
func (s *Spec) GovernanceAddress() common.Address { return s.governance }

// EmergencyAdminAddress returns the parsed emergency admin, zero when unset.
func (s *Spec) EmergencyAdminAddress() common.Address { return s.emergencyAdmin }

// InitialState returns the parsed protocol state.
func (s *Spec) InitialState() protocol.State { return s.state }

// Creators returns the parsed whitelisted profile creators.
func (s *Spec) Creators() []common.Address {
	return append([]common.Address(nil), s.creators...)
}

// Apply writes the genesis roles, protocol state and creator whitelist.
func Apply(spec *Spec, engine *protocol.Engine) error {
	if spec == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	if err := engine.Initialise(spec.governance, spec.emergencyAdmin, spec.state); err != nil {
		return fmt.Errorf("genesis: initialise protocol: %w", err)
	}
	for _, creator := range spec.creators {
		if err := engine.SeedProfileCreator(creator); err != nil {
			return fmt.Errorf("genesis: whitelist %s: %w", creator.Hex(), err)
		}
	}
	return nil
}
