package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":8080" || cfg.DomainName != "Graph Hub" || cfg.DomainVersion != "1" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ChainID != cfg.ChainID || reloaded.HubAddress != cfg.HubAddress {
		t.Fatalf("reloaded config differs: %+v vs %+v", reloaded, cfg)
	}
}

func TestLoadParsesHubSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `RPCAddress = "127.0.0.1:9000"
DataDir = "/var/lib/graphhub"
GenesisFile = "genesis.yaml"
ChainID = 80001
HubAddress = "0xDb46d1Dc155634FbC732f92E853b10B288AD5a1d"
DomainName = "Lens Protocol Profiles"
Env = "staging"
LogLevel = "debug"

[KnownDeployment]
Address = "0xDb46d1Dc155634FbC732f92E853b10B288AD5a1d"
Separator = "0x78e10b2874b1a1d4436464e65903d3bdc28b68f8d023df2e47b65f8caa45c4bb"

[RateLimit]
RequestsPerMinute = 120
Burst = 10

[Telemetry]
Endpoint = "otel:4318"
Insecure = true
Traces = true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChainID != 80001 || cfg.Env != "staging" || cfg.DomainVersion != "1" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RateLimit.RequestsPerMinute != 120 || cfg.RateLimit.Burst != 10 {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
	if !cfg.Telemetry.Traces || cfg.Telemetry.Metrics {
		t.Fatalf("unexpected telemetry: %+v", cfg.Telemetry)
	}
	domain := cfg.Domain()
	if domain.ChainID.Uint64() != 80001 || domain.VerifyingContract != common.HexToAddress(cfg.HubAddress) {
		t.Fatalf("unexpected domain: %+v", domain)
	}
	known := cfg.Known()
	if known == nil || known.Address != domain.VerifyingContract {
		t.Fatalf("known deployment not parsed: %+v", known)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("ChainID = 1\nHubAddress = \"0x0000000000000000000000000000000000000001\"\nValidatorKey = \"abc\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "ValidatorKey") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero chain id", func(c *Config) { c.ChainID = 0 }, "ChainID"},
		{"bad hub address", func(c *Config) { c.HubAddress = "hub" }, "HubAddress"},
		{"empty domain name", func(c *Config) { c.DomainName = " " }, "DomainName"},
		{"short separator", func(c *Config) {
			c.KnownDeployment = KnownDeployment{Address: c.HubAddress, Separator: "0x1234"}
		}, "Separator"},
		{"bad known address", func(c *Config) {
			c.KnownDeployment = KnownDeployment{Address: "nope", Separator: common.Hash{1}.Hex()}
		}, "KnownDeployment.Address"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
	if err := Validate(defaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
