package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress      string          `toml:"RPCAddress"`
	DataDir         string          `toml:"DataDir"`
	GenesisFile     string          `toml:"GenesisFile"`
	ChainID         uint64          `toml:"ChainID"`
	HubAddress      string          `toml:"HubAddress"`
	DomainName      string          `toml:"DomainName"`
	DomainVersion   string          `toml:"DomainVersion"`
	KnownDeployment KnownDeployment `toml:"KnownDeployment"`
	Env             string          `toml:"Env"`
	LogLevel        string          `toml:"LogLevel"`
	LogFile         string          `toml:"LogFile"`
	RateLimit       RateLimit       `toml:"RateLimit"`
	Telemetry       Telemetry       `toml:"Telemetry"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s: unknown field %q", path, undecoded[0].String())
	}

	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8080"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./graphhub-data"
	}
	if strings.TrimSpace(c.DomainName) == "" {
		c.DomainName = "Graph Hub"
	}
	if strings.TrimSpace(c.DomainVersion) == "" {
		c.DomainVersion = "1"
	}
	if strings.TrimSpace(c.Env) == "" {
		c.Env = "local"
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 600
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 60
	}
}

func defaultConfig() *Config {
	cfg := &Config{
		ChainID:    137,
		HubAddress: "0x0000000000000000000000000000000000000001",
	}
	cfg.applyDefaults()
	return cfg
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
