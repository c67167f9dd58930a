package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost          = "0.0.0.0"
	DefaultPort          = "8081"
	DefaultLedgerPath    = "data/ledger.json"
	DefaultNetwork       = "AuroraSim Testnet"
	DefaultIdempotentTTL = 30 * time.Minute
	DefaultLogLevel      = "info"
)

type Config struct {
	APIConf     APIConf     `yaml:"APIConf"`
	Ledger      Ledger      `yaml:"Ledger"`
	Idempotency Idempotency `yaml:"Idempotency"`
	LogLevel    string      `yaml:"LogLevel" default:"info"`
}

type APIConf struct {
	Port string `yaml:"Port" default:"8081"`
	Host string `yaml:"Host" default:"0.0.0.0"`
}

type Ledger struct {
	Path    string `yaml:"Path" default:"data/ledger.json"`
	Network string `yaml:"Network" default:"AuroraSim Testnet"`
	// SerializeIssuance runs every issuance through a single worker.
	// Nil means enabled.
	SerializeIssuance *bool `yaml:"SerializeIssuance"`
}

type Idempotency struct {
	TTL time.Duration `yaml:"TTL" default:"30m"`
}

// Load reads the YAML file at path and fills in defaults for anything left
// empty. An empty path yields the defaults alone.
func Load(path string) (Config, error) {
	cfg := Config{}

	if path != "" {
		yamlFile, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.APIConf.Host == "" {
		c.APIConf.Host = DefaultHost
	}
	if c.APIConf.Port == "" {
		c.APIConf.Port = DefaultPort
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = DefaultLedgerPath
	}
	if c.Ledger.Network == "" {
		c.Ledger.Network = DefaultNetwork
	}
	if c.Ledger.SerializeIssuance == nil {
		enabled := true
		c.Ledger.SerializeIssuance = &enabled
	}
	if c.Idempotency.TTL <= 0 {
		c.Idempotency.TTL = DefaultIdempotentTTL
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

func (l Ledger) Serialized() bool {
	return l.SerializeIssuance == nil || *l.SerializeIssuance
}
