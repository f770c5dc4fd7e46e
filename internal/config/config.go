// Package config loads the recognized configuration options — the
// listen endpoint, the partner endpoint or discovery id, and the
// reserved compression level — from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the options the core recognizes.
type Config struct {
	// HostAddress is the local listen endpoint, e.g. "0.0.0.0:9121".
	HostAddress string `json:"host_address" yaml:"host_address"`
	// PartnerAddress is either "host:port" or a bare discovery id.
	PartnerAddress string `json:"partner_address" yaml:"partner_address"`
	// CompressionLevel is read but never applied to the wire in this
	// subset — reserved for a future codec.
	CompressionLevel int `json:"compression_level" yaml:"compression_level"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		HostAddress:      "0.0.0.0:9121",
		PartnerAddress:   "",
		CompressionLevel: 0,
	}
}

// Load reads configPath, creating it with DefaultConfig's values if it
// does not yet exist.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := cfg.Save(configPath); err != nil {
				return nil, fmt.Errorf("config: create default: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", configPath, err)
	}
	return &cfg, nil
}

// Save writes c to configPath, creating parent directories as needed.
func (c *Config) Save(configPath string) error {
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create dir %s: %w", dir, err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", configPath, err)
	}
	return nil
}
