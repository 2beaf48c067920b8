// Package config provides configuration loading for Cashboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/b0ase/cashboard/infra"
	"github.com/b0ase/cashboard/store"
)

// Config represents the complete Cashboard configuration
type Config struct {
	API   APIConfig   `yaml:"api"`
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
	Watch WatchConfig `yaml:"watch"`
	// Home holds the daemon pid and log files (default ~/.cashboard)
	Home string `yaml:"home"`
}

type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig selects where canvases are persisted.
type StoreConfig struct {
	// Backend is one of memory, file, sqlite, nats
	Backend string     `yaml:"backend"`
	DataDir string     `yaml:"data_dir"`
	NATS    NATSConfig `yaml:"nats"`
}

type NATSConfig struct {
	URL            string        `yaml:"url"`
	Bucket         string        `yaml:"bucket"`
	ConnectRetries int           `yaml:"connect_retries"`
	RetryBase      time.Duration `yaml:"retry_base"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// WatchConfig configures the import directory watcher.
type WatchConfig struct {
	// Dir defaults to <data_dir>/imports
	Dir      string   `yaml:"dir"`
	Patterns []string `yaml:"patterns"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{Host: "", Port: 8080},
		Store: StoreConfig{
			Backend: store.BackendFile,
			DataDir: infra.DataDir(),
			NATS: NATSConfig{
				URL:            "nats://127.0.0.1:4222",
				Bucket:         "cashboard",
				ConnectRetries: 5,
				RetryBase:      200 * time.Millisecond,
			},
		},
		Log:   LogConfig{Level: "info", Format: "json"},
		Watch: WatchConfig{Patterns: []string{"**/*.json"}},
		Home:  defaultHome(),
	}
}

func defaultHome() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".cashboard")
	}
	return ".cashboard"
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if !slices.Contains(store.Backends, c.Store.Backend) {
		return fmt.Errorf("store.backend must be one of %v, got %q", store.Backends, c.Store.Backend)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535, got %d", c.API.Port)
	}
	if c.Store.Backend == store.BackendNATS && c.Store.NATS.URL == "" {
		return fmt.Errorf("store.nats.url is required for the nats backend")
	}
	if c.Store.Backend != store.BackendMemory && c.Store.DataDir == "" && c.Store.Backend != store.BackendNATS {
		return fmt.Errorf("store.data_dir is required for the %s backend", c.Store.Backend)
	}
	for _, p := range c.Watch.Patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("watch.patterns: invalid pattern %q", p)
		}
	}
	return nil
}

// Addr is the listen address of the API server.
func (c *Config) Addr() string { return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port) }

// ImportDir is the watched directory.
func (c *Config) ImportDir() string {
	if c.Watch.Dir != "" {
		return c.Watch.Dir
	}
	return infra.ImportDir(c.Store.DataDir)
}

// StoreOptions translates the store section for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:    c.Store.Backend,
		Dir:        infra.CanvasDir(c.Store.DataDir),
		SQLitePath: infra.DBPath(c.Store.DataDir),
		NATSURL:    c.Store.NATS.URL,
		Bucket:     c.Store.NATS.Bucket,
		Backoff: store.Backoff{
			MaxRetries: c.Store.NATS.ConnectRetries,
			BaseDelay:  c.Store.NATS.RetryBase,
			Jitter:     true,
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.API.Host != "" {
		c.API.Host = other.API.Host
	}
	if other.API.Port != 0 {
		c.API.Port = other.API.Port
	}

	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Store.DataDir != "" {
		c.Store.DataDir = other.Store.DataDir
	}
	if other.Store.NATS.URL != "" {
		c.Store.NATS.URL = other.Store.NATS.URL
	}
	if other.Store.NATS.Bucket != "" {
		c.Store.NATS.Bucket = other.Store.NATS.Bucket
	}
	if other.Store.NATS.ConnectRetries != 0 {
		c.Store.NATS.ConnectRetries = other.Store.NATS.ConnectRetries
	}
	if other.Store.NATS.RetryBase != 0 {
		c.Store.NATS.RetryBase = other.Store.NATS.RetryBase
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	if other.Watch.Dir != "" {
		c.Watch.Dir = other.Watch.Dir
	}
	if len(other.Watch.Patterns) > 0 {
		c.Watch.Patterns = other.Watch.Patterns
	}

	if other.Home != "" {
		c.Home = other.Home
	}
}
