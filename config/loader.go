package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "cashboard.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/cashboard"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger   *zap.Logger
	userPath string
	workDir  string
	getenv   func(string) string
}

type LoaderOption func(*Loader)

// WithUserConfig overrides ~/.config/cashboard/config.yaml.
func WithUserConfig(path string) LoaderOption { return func(l *Loader) { l.userPath = path } }

// WithWorkDir sets where the search for cashboard.yaml starts.
func WithWorkDir(dir string) LoaderOption { return func(l *Loader) { l.workDir = dir } }

func WithEnv(getenv func(string) string) LoaderOption { return func(l *Loader) { l.getenv = getenv } }

// NewLoader creates a new configuration loader
func NewLoader(logger *zap.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{logger: logger, getenv: os.Getenv}
	if home, err := os.UserHomeDir(); err == nil {
		l.userPath = filepath.Join(home, UserConfigDir, UserConfigFile)
	}
	if cwd, err := os.Getwd(); err == nil {
		l.workDir = cwd
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/cashboard/config.yaml)
// 3. Project config (cashboard.yaml in current or parent directories)
// 4. CASHBOARD_* environment variables
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	if l.userPath != "" {
		if userConfig, err := LoadFromFile(l.userPath); err == nil {
			l.logger.Debug("loaded user config", zap.String("path", l.userPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("failed to load user config", zap.String("path", l.userPath), zap.Error(err))
		}
	}

	if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		projectConfig, err := LoadFromFile(projectConfigPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("loaded project config", zap.String("path", projectConfigPath))
		config.Merge(projectConfig)
	}

	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (l *Loader) applyEnv(c *Config) {
	if v := l.getenv("CASHBOARD_API_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.API.Port = p
		} else {
			l.logger.Warn("ignoring CASHBOARD_API_PORT", zap.String("value", v))
		}
	}
	if v := l.getenv("CASHBOARD_DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}
	if v := l.getenv("CASHBOARD_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := l.getenv("CASHBOARD_NATS_URL"); v != "" {
		c.Store.NATS.URL = v
	}
	if v := l.getenv("CASHBOARD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := l.getenv("CASHBOARD_HOME"); v != "" {
		c.Home = v
	}
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	if _, err := os.Stat(l.userPath); err == nil {
		return nil
	}
	if err := DefaultConfig().SaveToFile(l.userPath); err != nil {
		return err
	}
	l.logger.Info("created default user config", zap.String("path", l.userPath))
	return nil
}

// findProjectConfig searches for cashboard.yaml in the work dir and its parents
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}
	dir := l.workDir
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
