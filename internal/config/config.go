// Package config manages the application configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/tidwall/sjson"
)

const (
	appName        = "medchat"
	configFileName = "medchat.json"

	defaultServerURL = "http://localhost:3001/api"
	defaultTimeout   = 15 * time.Second
	defaultLogLevel  = "info"
)

// Config holds the application configuration.
type Config struct {
	// ServerURL is the base URL of the chat backend, including the API
	// prefix.
	ServerURL string `json:"server_url,omitempty"`

	// RequestTimeout bounds every API request. Zero means the default.
	RequestTimeout time.Duration `json:"request_timeout,omitempty"`

	// DataDir is where the local database lives.
	DataDir string `json:"data_dir,omitempty"`

	// Token is the saved session token, written on login so the session
	// can be resumed.
	Token string `json:"token,omitempty"`

	// DefaultModel preselects a model for new conversations.
	DefaultModel string `json:"default_model,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
	Debug    bool   `json:"debug,omitempty"`
}

// NewConfig creates a configuration with zero values; callers usually want
// Load, which also applies defaults.
func NewConfig() *Config {
	return &Config{}
}

// BaseURL returns the configured server URL, falling back to the default.
func (c *Config) BaseURL() string {
	if c.ServerURL != "" {
		return c.ServerURL
	}
	return defaultServerURL
}

// Timeout returns the configured request timeout, falling back to the
// default.
func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout > 0 {
		return c.RequestTimeout
	}
	return defaultTimeout
}

// Level returns the configured log level; debug mode overrides it.
func (c *Config) Level() string {
	if c.Debug {
		return "debug"
	}
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return defaultLogLevel
}

// DatabasePath returns the path of the local SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, appName+".db")
}

// GlobalConfigPath returns the path to the configuration file.
func GlobalConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configFileName)
}

// SetConfigField updates a single field in the config file using JSON path
// notation. Only the specified field is modified; everything else in the
// file is left byte for byte as it was.
func SetConfigField(key string, value any) error {
	configPath := GlobalConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			data = []byte("{}")
		} else {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	newData, err := sjson.Set(string(data), key, value)
	if err != nil {
		return fmt.Errorf("setting config field %q: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(newData), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(xdg.DataHome, appName)
	}
}
