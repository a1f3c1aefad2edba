// Package config declares the application configuration, loaded from a
// YAML file and/or environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// StoreConfig selects and configures the record-store backend.
type StoreConfig struct {
	// Backend is "hosted", "local", or "memory".
	Backend string        `yaml:"backend"  env:"STORE_BACKEND"  env-default:"hosted"`
	BaseURL string        `yaml:"base_url" env:"STORE_BASE_URL"`
	Token   string        `yaml:"token"    env:"STORE_TOKEN"`
	Timeout time.Duration `yaml:"timeout"  env:"STORE_TIMEOUT"  env-default:"15s"`
	// Path is the SQLite database path for the local backend.
	Path string `yaml:"path" env:"STORE_PATH" env-default:"rollcall.db"`
}

// SessionConfig holds edit-session lifecycle settings.
type SessionConfig struct {
	MaxAge          time.Duration `yaml:"max_age"          env:"SESSION_MAX_AGE"          env-default:"24h"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SESSION_IDLE_TIMEOUT"     env-default:"30m"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"SESSION_CLEANUP_INTERVAL" env-default:"5m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Validate checks cross-field constraints that tags cannot express.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "hosted":
		if c.Store.BaseURL == "" {
			return fmt.Errorf("config: store.base_url is required for the hosted backend")
		}
	case "local", "memory":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Session.IdleTimeout <= 0 || c.Session.MaxAge <= 0 {
		return fmt.Errorf("config: session timeouts must be positive")
	}
	return nil
}
