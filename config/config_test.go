package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "cashboard", cfg.Store.NATS.Bucket)
	assert.Equal(t, []string{"**/*.json"}, cfg.Watch.Patterns)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, true},
		{"port zero", func(c *Config) { c.API.Port = 0 }, true},
		{"port too high", func(c *Config) { c.API.Port = 70000 }, true},
		{"nats without url", func(c *Config) { c.Store.Backend = "nats"; c.Store.NATS.URL = "" }, true},
		{"sqlite without data dir", func(c *Config) { c.Store.Backend = "sqlite"; c.Store.DataDir = "" }, true},
		{"memory without data dir", func(c *Config) { c.Store.Backend = "memory"; c.Store.DataDir = "" }, false},
		{"bad watch pattern", func(c *Config) { c.Watch.Patterns = []string{"imports/[a-"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLayeredLoad(t *testing.T) {
	dir := t.TempDir()
	user := filepath.Join(dir, "user", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(user), 0o755))
	require.NoError(t, os.WriteFile(user, []byte("api:\n  port: 9000\nlog:\n  level: debug\nstore:\n  backend: sqlite\n"), 0o644))

	project := filepath.Join(dir, "proj")
	nested := filepath.Join(project, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectConfigFile), []byte("api:\n  port: 9100\nstore:\n  nats:\n    retry_base: 1s\n"), 0o644))

	l := NewLoader(zap.NewNop(),
		WithUserConfig(user),
		WithWorkDir(nested),
		WithEnv(env(map[string]string{"CASHBOARD_DATA_DIR": "/srv/cashboard", "CASHBOARD_LOG_LEVEL": "warn"})),
	)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.API.Port)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/srv/cashboard", cfg.Store.DataDir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, time.Second, cfg.Store.NATS.RetryBase)
	assert.Equal(t, "/srv/cashboard/imports", cfg.ImportDir())
	assert.Equal(t, "/srv/cashboard/cashboard.db", cfg.StoreOptions().SQLitePath)
}

func TestEnvOverrides(t *testing.T) {
	l := NewLoader(nil,
		WithUserConfig(filepath.Join(t.TempDir(), "missing.yaml")),
		WithWorkDir(t.TempDir()),
		WithEnv(env(map[string]string{
			"CASHBOARD_API_PORT": "7070",
			"CASHBOARD_STORE":    "nats",
			"CASHBOARD_NATS_URL": "nats://queue:4222",
			"CASHBOARD_HOME":     "/tmp/cb",
		})),
	)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.API.Port)
	assert.Equal(t, ":7070", cfg.Addr())
	assert.Equal(t, "nats://queue:4222", cfg.StoreOptions().NATSURL)
	assert.Equal(t, "/tmp/cb", cfg.Home)
}

func TestLoadRejectsInvalid(t *testing.T) {
	l := NewLoader(nil,
		WithUserConfig(""),
		WithWorkDir(t.TempDir()),
		WithEnv(env(map[string]string{"CASHBOARD_STORE": "etcd"})),
	)
	_, err := l.Load()
	assert.Error(t, err)
}

func TestBrokenProjectConfigFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte("api: [oops"), 0o644))
	_, err := NewLoader(nil, WithUserConfig(""), WithWorkDir(dir), WithEnv(env(nil))).Load()
	assert.Error(t, err)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.API.Port = 1234
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, got.API.Port)

	l := NewLoader(nil, WithUserConfig(path))
	require.NoError(t, l.EnsureUserConfig())
	got, _ = LoadFromFile(path)
	assert.Equal(t, 1234, got.API.Port, "existing file is kept")
}
