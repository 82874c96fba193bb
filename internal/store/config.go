package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	// StartingEquity is the baseline for the equity curve and pnl percent.
	// It is a display baseline, not the real account balance.
	StartingEquity float64 `yaml:"starting_equity"`

	Demo struct {
		Seed  int64 `yaml:"seed"`
		Count int   `yaml:"count"`
	} `yaml:"demo"`

	Deriverse struct {
		RPCURL    string `yaml:"rpc_url"`
		ProgramID string `yaml:"program_id"`
		Version   int    `yaml:"version"`
	} `yaml:"deriverse"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Cache struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"cache"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1-65535, got %d", c.Server.Port)
	}
	if c.StartingEquity < 0 {
		return fmt.Errorf("starting_equity must not be negative, got %.2f", c.StartingEquity)
	}
	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity must not be negative, got %d", c.Cache.Capacity)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	// Environment overrides for deployment-specific values
	if v := os.Getenv("SOLANA_RPC_URL"); v != "" {
		c.Deriverse.RPCURL = v
	}
	if v := os.Getenv("DERIVERSE_PROGRAM_ID"); v != "" {
		c.Deriverse.ProgramID = v
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.StartingEquity == 0 {
		c.StartingEquity = 10_000
	}
	if c.Demo.Seed == 0 {
		c.Demo.Seed = 1337
	}
	if c.Demo.Count == 0 {
		c.Demo.Count = 150
	}
	if c.Deriverse.RPCURL == "" {
		c.Deriverse.RPCURL = "https://api.devnet.solana.com"
	}
	if c.Deriverse.Version == 0 {
		c.Deriverse.Version = 6
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/journal"
	}
	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = 25
	}
}
