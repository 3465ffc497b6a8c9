package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"dqx0.com/go/httpfetch/httpx"
	"dqx0.com/go/httpfetch/internal/obs"
)

// Config holds process-wide settings read from the environment.
type Config struct {
	Fetch   FetchConfig
	Logging LogConfig
}

// FetchConfig holds the defaults every fetch falls back to.
type FetchConfig struct {
	SocketTimeout time.Duration `envconfig:"FETCH_SOCKET_TIMEOUT" default:"60s"`
	UserAgent     string        `envconfig:"FETCH_USER_AGENT"`
	From          string        `envconfig:"FETCH_FROM"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Fetch: FetchConfig{
			SocketTimeout: 60 * time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Defaults converts the fetch section for httpx.Fetcher.
func (c *Config) Defaults() httpx.Defaults {
	return httpx.Defaults{
		SocketTimeout: c.Fetch.SocketTimeout,
		UserAgent:     c.Fetch.UserAgent,
		FromAddress:   c.Fetch.From,
	}
}

// LogConfig converts the logging section for obs.NewLogger.
func (c *Config) LogConfig() obs.LogConfig {
	lc := obs.DefaultLogConfig()
	lc.Level = c.Logging.Level
	lc.Development = c.Logging.Development
	return lc
}
