// Package config loads runtime settings: defaults, then an optional .env file
// and CAMPUSWIRE_* environment variables, then an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// CAMPUSWIRE_HTTP_PORT or CAMPUSWIRE_AUTH_SECRET.
// TECHNICAL DISCOVERY: Leaf fields use split_words rather than envconfig
// tags; a tagged field also falls back to the bare tag name, so PATH or
// PORT would be read from the unprefixed environment
const EnvPrefix = "CAMPUSWIRE"

// Notification backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// ARCHITECTURAL DISCOVERY: Configuration layer serves as system-wide settings
// coordinator; components receive plain values and never read the environment
type Config struct {
	Database      DatabaseConfig      `mapstructure:"database" envconfig:"DATABASE"`
	Notifications NotificationsConfig `mapstructure:"notifications" envconfig:"NOTIFICATIONS"`
	HTTP          HTTPConfig          `mapstructure:"http" envconfig:"HTTP"`
	WebSocket     WebSocketConfig     `mapstructure:"websocket" envconfig:"WEBSOCKET"`
	Auth          AuthConfig          `mapstructure:"auth" envconfig:"AUTH"`
	Gateway       GatewayConfig       `mapstructure:"gateway" envconfig:"GATEWAY"`
	Grading       GradingConfig       `mapstructure:"grading" envconfig:"GRADING"`
	LogLevel      string              `mapstructure:"log_level" split_words:"true"`
}

type DatabaseConfig struct {
	Path           string        `mapstructure:"path" split_words:"true"`
	MaxConnections int           `mapstructure:"max_connections" split_words:"true"`
	Timeout        time.Duration `mapstructure:"timeout" split_words:"true"`
}

// NotificationsConfig selects where notification records live. Other domain
// records always stay in SQLite.
type NotificationsConfig struct {
	Backend    string        `mapstructure:"backend" split_words:"true"`
	BadgerPath string        `mapstructure:"badger_path" split_words:"true"`
	BatchSize  int           `mapstructure:"batch_size" split_words:"true"`
	Retention  time.Duration `mapstructure:"retention" split_words:"true"`

	// PurgeInterval is how often read records older than Retention are
	// removed. Zero disables the purge job.
	PurgeInterval time.Duration `mapstructure:"purge_interval" split_words:"true"`
}

// HTTPConfig configures the listener. Port 0 picks a free port.
type HTTPConfig struct {
	Host           string        `mapstructure:"host" split_words:"true"`
	Port           int           `mapstructure:"port" split_words:"true"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" split_words:"true"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" split_words:"true"`
}

// Address is the listen address.
func (h HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// FUNCTIONAL DISCOVERY: WebSocket configuration optimized for lecture-hall
// bursts where a whole course connects within seconds
type WebSocketConfig struct {
	PingInterval    time.Duration `mapstructure:"ping_interval" split_words:"true"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout" split_words:"true"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" split_words:"true"`
	BufferSize      int           `mapstructure:"buffer_size" split_words:"true"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes" split_words:"true"`
}

type AuthConfig struct {
	Secret   string        `mapstructure:"secret" split_words:"true"`
	Issuer   string        `mapstructure:"issuer" split_words:"true"`
	Timeout  time.Duration `mapstructure:"timeout" split_words:"true"`
	TokenTTL time.Duration `mapstructure:"token_ttl" split_words:"true"`
}

type GatewayConfig struct {
	Workers    int           `mapstructure:"workers" split_words:"true"`
	QueueSize  int           `mapstructure:"queue_size" split_words:"true"`
	RateLimit  int           `mapstructure:"rate_limit" split_words:"true"`
	RateWindow time.Duration `mapstructure:"rate_window" split_words:"true"`

	// DirectoryTTL bounds how long a cached identity is trusted.
	DirectoryTTL time.Duration `mapstructure:"directory_ttl" split_words:"true"`
}

type GradingConfig struct {
	AtRiskThreshold float64 `mapstructure:"at_risk_threshold" split_words:"true"`
}

// DefaultConfig returns production-ready defaults. The auth secret has no
// default and must be provided.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:           "./data/campuswire.db",
			MaxConnections: 10,
			Timeout:        30 * time.Second,
		},
		Notifications: NotificationsConfig{
			Backend:       BackendSQLite,
			BadgerPath:    "./data/notifications",
			BatchSize:     500,
			Retention:     30 * 24 * time.Hour,
			PurgeInterval: time.Hour,
		},
		HTTP: HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: WebSocketConfig{
			PingInterval:    30 * time.Second,
			PongTimeout:     60 * time.Second,
			WriteTimeout:    5 * time.Second,
			BufferSize:      256,
			MaxMessageBytes: 70 * 1024,
		},
		Auth: AuthConfig{
			Issuer:   "campuswire",
			Timeout:  5 * time.Second,
			TokenTTL: 12 * time.Hour,
		},
		Gateway: GatewayConfig{
			Workers:      8,
			QueueSize:    256,
			RateLimit:    100,
			RateWindow:   time.Minute,
			DirectoryTTL: 5 * time.Minute,
		},
		Grading:  GradingConfig{AtRiskThreshold: 0.75},
		LogLevel: "INFO",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Database.Path == "":
		return errors.New("database path cannot be empty")
	case c.Database.MaxConnections <= 0:
		return errors.New("database max connections must be positive")
	case c.Database.Timeout <= 0:
		return errors.New("database timeout must be positive")
	}

	switch c.Notifications.Backend {
	case BackendSQLite:
	case BackendBadger:
		if c.Notifications.BadgerPath == "" {
			return errors.New("badger path is required for the badger notification backend")
		}
	default:
		return fmt.Errorf("unknown notification backend %q", c.Notifications.Backend)
	}
	if c.Notifications.BatchSize <= 0 {
		return errors.New("notification batch size must be positive")
	}
	if c.Notifications.Retention <= 0 {
		return errors.New("notification retention must be positive")
	}
	if c.Notifications.PurgeInterval < 0 {
		return errors.New("notification purge interval cannot be negative")
	}

	switch {
	case c.HTTP.Host == "":
		return errors.New("HTTP host cannot be empty")
	case c.HTTP.Port < 0 || c.HTTP.Port > 65535:
		return errors.New("HTTP port must be between 0 and 65535")
	case c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0:
		return errors.New("HTTP timeouts must be positive")
	}

	switch {
	case c.WebSocket.PingInterval <= 0:
		return errors.New("WebSocket ping interval must be positive")
	case c.WebSocket.PongTimeout <= c.WebSocket.PingInterval:
		return errors.New("WebSocket pong timeout must exceed the ping interval")
	case c.WebSocket.WriteTimeout <= 0:
		return errors.New("WebSocket write timeout must be positive")
	case c.WebSocket.BufferSize <= 0:
		return errors.New("WebSocket buffer size must be positive")
	case c.WebSocket.MaxMessageBytes <= 0:
		return errors.New("WebSocket max message size must be positive")
	}

	switch {
	case len(c.Auth.Secret) < 32:
		return errors.New("auth secret must be at least 32 bytes")
	case c.Auth.Timeout <= 0:
		return errors.New("auth timeout must be positive")
	case c.Auth.TokenTTL <= 0:
		return errors.New("auth token TTL must be positive")
	}

	switch {
	case c.Gateway.Workers <= 0 || c.Gateway.QueueSize <= 0:
		return errors.New("gateway workers and queue size must be positive")
	case c.Gateway.RateLimit <= 0 || c.Gateway.RateWindow <= 0:
		return errors.New("gateway rate limit and window must be positive")
	case c.Gateway.DirectoryTTL <= 0:
		return errors.New("directory cache TTL must be positive")
	}

	if c.Grading.AtRiskThreshold <= 0 || c.Grading.AtRiskThreshold > 1 {
		return errors.New("at-risk threshold must be in (0, 1]")
	}

	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// LoadFromEnv applies .env (when present) and CAMPUSWIRE_* variables over
// the defaults.
func LoadFromEnv(dotEnvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotEnvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, nil
}

// ApplyFile overlays a JSON, YAML or TOML file. Only keys present in the
// file change cfg.
func ApplyFile(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Load resolves the configuration with precedence file > environment >
// defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := ApplyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	// ARCHITECTURAL DISCOVERY: Validate configuration after loading to catch
	// errors before any listener opens
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
