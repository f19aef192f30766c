package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads the configuration from its standard location and applies
// defaults. A missing file yields a default configuration, not an error.
func Load() (*Config, error) {
	return LoadFromFile(GlobalConfigPath())
}

// LoadFromFile reads the configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := loadFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
