package domain

import "github.com/shopspring/decimal"

// TokenRef identifies one side of a trading pair.
type TokenRef struct {
	Address string // token contract / mint address (may be empty)
	Symbol  string // ticker symbol
}

// PairSnapshot is a point-in-time view of one trading pair.
// Rebuilt every refresh cycle and never persisted.
type PairSnapshot struct {
	PairLabel    string          // "{base}/{quote}"
	PairAddress  string          // pool / pair address
	ChainID      string          // upstream chain identifier
	DexID        string          // upstream DEX identifier
	BaseToken    TokenRef        // base side
	QuoteToken   TokenRef        // quote side
	LiquidityUSD float64         // USD value backing the pair, >= 0
	AgeMinutes   float64         // minutes since pair creation, >= 0
	Volume       float64         // traded volume over the upstream window (24h)
	PriceUSD     decimal.Decimal // zero when unknown
	Security     SecurityFlags   // upstream-reported risk flags
	DetailLink   string          // external viewer URL
	CreatedAtMs  int64           // pair creation, Unix ms
}

// PairLabel formats the display label for a base/quote symbol pair.
func PairLabel(base, quote string) string {
	return base + "/" + quote
}

// AgeMinutes returns minutes elapsed between createdAtMs and nowMs.
// A creation time in the future yields 0.
func AgeMinutes(createdAtMs, nowMs int64) float64 {
	if nowMs <= createdAtMs {
		return 0
	}
	return float64(nowMs-createdAtMs) / 60000
}
