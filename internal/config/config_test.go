package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Auth.Secret = testSecret
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// FUNCTIONAL VALIDATION TEST: Defaults are valid once a secret is supplied
func TestConfig_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, BackendSQLite, cfg.Notifications.Backend)
	assert.Equal(t, 0.75, cfg.Grading.AtRiskThreshold)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Address())
	assert.Error(t, cfg.Validate(), "missing secret")

	assert.NoError(t, validConfig().Validate())
}

// FUNCTIONAL VALIDATION TEST: Validation prevents invalid settings
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty database path", func(c *Config) { c.Database.Path = "" }, "database path"},
		{"port out of range", func(c *Config) { c.HTTP.Port = 70000 }, "port"},
		{"unknown backend", func(c *Config) { c.Notifications.Backend = "redis" }, "unknown notification backend"},
		{"badger without path", func(c *Config) {
			c.Notifications.Backend = BackendBadger
			c.Notifications.BadgerPath = ""
		}, "badger path"},
		{"zero batch", func(c *Config) { c.Notifications.BatchSize = 0 }, "batch size"},
		{"pong not above ping", func(c *Config) { c.WebSocket.PongTimeout = c.WebSocket.PingInterval }, "pong timeout"},
		{"short secret", func(c *Config) { c.Auth.Secret = "short" }, "secret"},
		{"zero workers", func(c *Config) { c.Gateway.Workers = 0 }, "workers"},
		{"threshold above one", func(c *Config) { c.Grading.AtRiskThreshold = 1.5 }, "threshold"},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// FUNCTIONAL VALIDATION TEST: Environment variables override defaults
func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("CAMPUSWIRE_HTTP_PORT", "9090")
	t.Setenv("CAMPUSWIRE_DATABASE_PATH", "/tmp/test.db")
	t.Setenv("CAMPUSWIRE_NOTIFICATIONS_BACKEND", "badger")
	t.Setenv("CAMPUSWIRE_WEBSOCKET_PING_INTERVAL", "15s")
	t.Setenv("CAMPUSWIRE_HTTP_ALLOWED_ORIGINS", "https://portal.example.edu,https://app.example.edu")
	t.Setenv("CAMPUSWIRE_GRADING_AT_RISK_THRESHOLD", "0.8")
	t.Setenv("CAMPUSWIRE_AUTH_TOKEN_TTL", "1h")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, BackendBadger, cfg.Notifications.Backend)
	assert.Equal(t, 15*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, []string{"https://portal.example.edu", "https://app.example.edu"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 0.8, cfg.Grading.AtRiskThreshold)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ReadTimeout, "untouched fields keep defaults")
}

// TECHNICAL VALIDATION TEST: Unprefixed variables never leak into the config
func TestConfig_IgnoresUnprefixedEnvironment(t *testing.T) {
	t.Setenv("PORT", "1234")
	t.Setenv("SECRET", "from-the-wrong-place")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Empty(t, cfg.Auth.Secret)
	assert.Equal(t, "./data/campuswire.db", cfg.Database.Path)
}

// FUNCTIONAL VALIDATION TEST: .env values fill in what the environment lacks
func TestConfig_DotEnv(t *testing.T) {
	t.Setenv("CAMPUSWIRE_HTTP_PORT", "9191")
	path := writeFile(t, ".env", "CAMPUSWIRE_HTTP_PORT=7000\nCAMPUSWIRE_AUTH_ISSUER=registrar\n")
	t.Cleanup(func() { os.Unsetenv("CAMPUSWIRE_AUTH_ISSUER") })

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.HTTP.Port, "real environment wins over .env")
	assert.Equal(t, "registrar", cfg.Auth.Issuer)
}

// TECHNICAL VALIDATION TEST: Configuration file parsing
func TestConfig_ApplyFile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "campuswire.yaml", strings.Join([]string{
			"database:",
			"  path: /tmp/file.db",
			"http:",
			"  port: 8081",
			"  read_timeout: 10s",
			"notifications:",
			"  backend: badger",
			"  badger_path: /tmp/inbox",
			"  retention: 168h",
		}, "\n"))

		cfg := validConfig()
		require.NoError(t, ApplyFile(cfg, path))
		assert.Equal(t, "/tmp/file.db", cfg.Database.Path)
		assert.Equal(t, 8081, cfg.HTTP.Port)
		assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
		assert.Equal(t, 7*24*time.Hour, cfg.Notifications.Retention)
		assert.Equal(t, 30*time.Second, cfg.HTTP.WriteTimeout, "keys absent from the file keep their value")
		assert.Equal(t, testSecret, cfg.Auth.Secret)
	})

	t.Run("json", func(t *testing.T) {
		path := writeFile(t, "campuswire.json", `{"gateway": {"workers": 2, "rate_limit": 10}, "log_level": "debug"}`)
		cfg := validConfig()
		require.NoError(t, ApplyFile(cfg, path))
		assert.Equal(t, 2, cfg.Gateway.Workers)
		assert.Equal(t, 10, cfg.Gateway.RateLimit)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeFile(t, "broken.json", `{"database": {"path": "/tmp/x.db"`)
		assert.Error(t, ApplyFile(validConfig(), path))
	})

	t.Run("missing", func(t *testing.T) {
		assert.Error(t, ApplyFile(validConfig(), filepath.Join(t.TempDir(), "nope.yaml")))
	})
}

// FUNCTIONAL VALIDATION TEST: Precedence is file > environment > defaults
func TestConfig_LoadPrecedence(t *testing.T) {
	t.Setenv("CAMPUSWIRE_AUTH_SECRET", testSecret)
	t.Setenv("CAMPUSWIRE_HTTP_PORT", "7777")
	t.Setenv("CAMPUSWIRE_HTTP_HOST", "127.0.0.1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7777", cfg.HTTP.Address())

	path := writeFile(t, "campuswire.yaml", "http:\n  port: 6666\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6666", cfg.HTTP.Address())

	t.Setenv("CAMPUSWIRE_AUTH_SECRET", "")
	_, err = Load("")
	assert.ErrorContains(t, err, "invalid configuration")
}
