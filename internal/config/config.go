// Package config loads daemon configuration from .env, the environment and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"dex-pair-monitor/internal/domain"
)

// ErrInvalid is returned when the loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the daemon configuration.
type Config struct {
	// Refresh loop
	Endpoint        string        `envconfig:"DEX_ENDPOINT" default:"https://api.dexscreener.com/latest/dex/search?q=new" yaml:"endpoint"`
	MinLiquidityUSD float64       `envconfig:"MIN_LIQUIDITY_USD" default:"5000" yaml:"min_liquidity_usd"`
	MaxAgeMinutes   float64       `envconfig:"MAX_AGE_MINUTES" default:"60" yaml:"max_age_minutes"`
	RefreshSeconds  int           `envconfig:"REFRESH_SECONDS" default:"30" yaml:"refresh_seconds"`
	FetchTimeout    time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s" yaml:"fetch_timeout"`
	FetchRetries    int           `envconfig:"FETCH_RETRIES" default:"0" yaml:"fetch_retries"`
	AutoStart       bool          `envconfig:"AUTOSTART" default:"false" yaml:"autostart"`

	// Surfaces
	HTTPAddr      string `envconfig:"HTTP_ADDR" default:":8080" yaml:"http_addr"`
	Terminal      bool   `envconfig:"TERMINAL" default:"true" yaml:"terminal"`
	NATSURL       string `envconfig:"NATS_URL" yaml:"nats_url"`
	NATSSubject   string `envconfig:"NATS_SUBJECT" default:"dex.pairs.frames" yaml:"nats_subject"`
	AlertCapacity int    `envconfig:"ALERT_CAPACITY" default:"200" yaml:"alert_capacity"`

	// Storage; empty DSN selects the in-memory blacklist store.
	PostgresDSN string `envconfig:"POSTGRES_DSN" yaml:"postgres_dsn"`
}

// Load builds the configuration: .env (if present) into the environment,
// environment variables over defaults, then the YAML file at path over that.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	return &cfg, nil
}

// Monitor returns the refresh loop config.
func (c *Config) Monitor() domain.Config {
	return domain.Config{
		Endpoint: c.Endpoint,
		Thresholds: domain.Thresholds{
			MinLiquidityUSD: c.MinLiquidityUSD,
			MaxAgeMinutes:   c.MaxAgeMinutes,
		},
		RefreshSeconds: c.RefreshSeconds,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Monitor().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: fetch timeout must be > 0, got %v", ErrInvalid, c.FetchTimeout)
	}
	if c.FetchRetries < 0 {
		return fmt.Errorf("%w: fetch retries must be >= 0, got %d", ErrInvalid, c.FetchRetries)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: http address is required", ErrInvalid)
	}
	if c.AlertCapacity < 0 {
		return fmt.Errorf("%w: alert capacity must be >= 0, got %d", ErrInvalid, c.AlertCapacity)
	}
	if c.NATSURL != "" && c.NATSSubject == "" {
		return fmt.Errorf("%w: nats subject is required when nats url is set", ErrInvalid)
	}
	return nil
}
