package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all browser configuration.
type Config struct {
	HTTP    HTTPConfig
	Layout  LayoutConfig
	Logging LogConfig
}

// HTTPConfig holds HTTP client configuration.
type HTTPConfig struct {
	UserAgent      string        `envconfig:"USER_AGENT" default:"BabyBrowser/1.0"`
	RedirectBudget int           `envconfig:"REDIRECT_BUDGET" default:"10"`
	DialTimeout    time.Duration `envconfig:"DIAL_TIMEOUT" default:"30s"`
	EnableCache    bool          `envconfig:"CACHE_ENABLED" default:"true"`
	EnableGzip     bool          `envconfig:"GZIP_ENABLED" default:"true"`
}

// LayoutConfig holds text layout configuration.
type LayoutConfig struct {
	HStep int `envconfig:"LAYOUT_HSTEP" default:"8"`
	VStep int `envconfig:"LAYOUT_VSTEP" default:"18"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from BROWSER_-prefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("browser", &cfg); err != nil {
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
		HTTP: HTTPConfig{
			UserAgent:      "BabyBrowser/1.0",
			RedirectBudget: 10,
			DialTimeout:    30 * time.Second,
			EnableCache:    true,
			EnableGzip:     true,
		},
		Layout: LayoutConfig{
			HStep: 8,
			VStep: 18,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
