package app

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/felipevm/vendasbot/core/config"
	coredatabase "github.com/felipevm/vendasbot/core/database"
	"github.com/felipevm/vendasbot/schedule"
)

// MapsConfig selects the external lookup provider credentials.
type MapsConfig struct {
	APIKey string `yaml:"api_key" envconfig:"MAPS_API_KEY"`
}

// Config is the full bot configuration: the core transport/logging config
// plus the domain sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config   `yaml:"database"`
	Maps     MapsConfig            `yaml:"maps"`
	Jobs     schedule.DigestConfig `yaml:"jobs"`
}

// CoreConfig satisfies core/cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads the YAML file, applies env overrides and validates the
// core section.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("app: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("app: parse config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("app: process env: %w", err)
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if cfg.Maps.APIKey == "" {
		return nil, fmt.Errorf("app: maps.api_key is required")
	}
	return &cfg, nil
}
