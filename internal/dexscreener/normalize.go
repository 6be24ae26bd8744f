package dexscreener

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"dex-pair-monitor/internal/domain"
)

// Record validation errors. A record failing validation is dropped, never
// counted as a fetch failure.
var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field value")
)

// DetailBaseURL is the fallback viewer used when a record carries no url.
const DetailBaseURL = "https://dexscreener.com"

// Validate checks that a record carries every field a snapshot needs:
// pairCreatedAt, baseToken.symbol, quoteToken.symbol, liquidity.usd, volume.h24.
func Validate(p *RawPair) error {
	if p.decodeErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, p.decodeErr)
	}

	switch {
	case p.PairCreatedAt == nil:
		return fmt.Errorf("%w: pairCreatedAt", ErrMissingField)
	case p.BaseToken == nil || strings.TrimSpace(p.BaseToken.Symbol) == "":
		return fmt.Errorf("%w: baseToken", ErrMissingField)
	case p.QuoteToken == nil || strings.TrimSpace(p.QuoteToken.Symbol) == "":
		return fmt.Errorf("%w: quoteToken", ErrMissingField)
	case p.Liquidity == nil || p.Liquidity.USD == nil:
		return fmt.Errorf("%w: liquidity.usd", ErrMissingField)
	case p.Volume == nil || p.Volume.H24 == nil:
		return fmt.Errorf("%w: volume.h24", ErrMissingField)
	}

	if *p.Liquidity.USD < 0 {
		return fmt.Errorf("%w: liquidity.usd=%v", ErrInvalidField, *p.Liquidity.USD)
	}
	if *p.PairCreatedAt <= 0 {
		return fmt.Errorf("%w: pairCreatedAt=%d", ErrInvalidField, *p.PairCreatedAt)
	}
	return nil
}

// ToSnapshot converts a validated record into a snapshot aged against nowMs.
// Callers must run Validate first.
func ToSnapshot(p *RawPair, nowMs int64) domain.PairSnapshot {
	base := strings.TrimSpace(p.BaseToken.Symbol)
	quote := strings.TrimSpace(p.QuoteToken.Symbol)

	return domain.PairSnapshot{
		PairLabel:    domain.PairLabel(base, quote),
		PairAddress:  p.PairAddress,
		ChainID:      p.ChainID,
		DexID:        p.DexID,
		BaseToken:    domain.TokenRef{Address: p.BaseToken.Address, Symbol: base},
		QuoteToken:   domain.TokenRef{Address: p.QuoteToken.Address, Symbol: quote},
		LiquidityUSD: *p.Liquidity.USD,
		AgeMinutes:   domain.AgeMinutes(*p.PairCreatedAt, nowMs),
		Volume:       *p.Volume.H24,
		PriceUSD:     parsePrice(p.PriceUSD),
		Security:     securityFlags(p.Security),
		DetailLink:   detailLink(p),
		CreatedAtMs:  *p.PairCreatedAt,
	}
}

// Normalize validates every record and converts the usable ones.
// Returns the snapshots and the records that were dropped, with reasons.
func Normalize(raw []RawPair, nowMs int64) ([]domain.PairSnapshot, []error) {
	snapshots := make([]domain.PairSnapshot, 0, len(raw))
	var dropped []error

	for i := range raw {
		if err := Validate(&raw[i]); err != nil {
			dropped = append(dropped, fmt.Errorf("record %d (%s): %w", i, raw[i].PairAddress, err))
			continue
		}
		snapshots = append(snapshots, ToSnapshot(&raw[i], nowMs))
	}

	return snapshots, dropped
}

func parsePrice(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func securityFlags(s *RawSecurity) domain.SecurityFlags {
	if s == nil {
		return domain.SecurityFlags{}
	}
	return domain.SecurityFlags{
		Honeypot:        boolOrFalse(s.Honeypot),
		Verified:        boolOrFalse(s.Verified),
		LiquidityLocked: boolOrFalse(s.LiquidityLocked),
	}
}

func boolOrFalse(b *bool) bool {
	return b != nil && *b
}

func detailLink(p *RawPair) string {
	if p.URL != "" {
		return p.URL
	}
	if p.ChainID == "" || p.PairAddress == "" {
		return DetailBaseURL
	}
	return fmt.Sprintf("%s/%s/%s", DetailBaseURL, p.ChainID, p.PairAddress)
}
