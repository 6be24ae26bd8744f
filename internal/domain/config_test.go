package domain

import (
	"errors"
	"math"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Endpoint:       "https://api.dexscreener.com/latest/dex/search?q=new",
		Thresholds:     Thresholds{MinLiquidityUSD: 5000, MaxAgeMinutes: 60},
		RefreshSeconds: 30,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() on valid config = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"ftp endpoint", func(c *Config) { c.Endpoint = "ftp://example.com" }},
		{"no host", func(c *Config) { c.Endpoint = "https://" }},
		{"negative min liquidity", func(c *Config) { c.Thresholds.MinLiquidityUSD = -0.01 }},
		{"NaN min liquidity", func(c *Config) { c.Thresholds.MinLiquidityUSD = math.NaN() }},
		{"+Inf min liquidity", func(c *Config) { c.Thresholds.MinLiquidityUSD = math.Inf(1) }},
		{"zero max age", func(c *Config) { c.Thresholds.MaxAgeMinutes = 0 }},
		{"NaN max age", func(c *Config) { c.Thresholds.MaxAgeMinutes = math.NaN() }},
		{"zero refresh", func(c *Config) { c.RefreshSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
