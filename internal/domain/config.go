package domain

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"
)

// ErrInvalidConfig is returned when monitor configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Thresholds are the operator-configured filter bounds.
type Thresholds struct {
	MinLiquidityUSD float64 `json:"minLiquidityUsd" yaml:"min_liquidity_usd"` // strict lower bound
	MaxAgeMinutes   float64 `json:"maxAgeMinutes" yaml:"max_age_minutes"`     // inclusive upper bound
}

// Config is the input to every refresh cycle.
type Config struct {
	Endpoint       string     `json:"endpoint" yaml:"endpoint"`
	Thresholds     Thresholds `json:"thresholds" yaml:"thresholds"`
	RefreshSeconds int        `json:"refreshSeconds" yaml:"refresh_seconds"`
}

// RefreshInterval returns the pacing pause between cycles.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// Validate checks that the config can drive a cycle.
func (c Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: endpoint must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.Endpoint)
	}
	// NaN fails every comparison, so it is rejected explicitly.
	if minLiq := c.Thresholds.MinLiquidityUSD; math.IsNaN(minLiq) || math.IsInf(minLiq, 1) || minLiq < 0 {
		return fmt.Errorf("%w: min liquidity must be a finite number >= 0, got %v", ErrInvalidConfig, minLiq)
	}
	if math.IsNaN(c.Thresholds.MaxAgeMinutes) || c.Thresholds.MaxAgeMinutes <= 0 {
		return fmt.Errorf("%w: max age must be > 0, got %v", ErrInvalidConfig, c.Thresholds.MaxAgeMinutes)
	}
	if c.RefreshSeconds < 1 {
		return fmt.Errorf("%w: refresh seconds must be >= 1, got %d", ErrInvalidConfig, c.RefreshSeconds)
	}
	return nil
}
