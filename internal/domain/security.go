package domain

// SecurityFlags holds upstream-reported risk indicators.
// Absent upstream fields default to false; nothing here is verified locally.
type SecurityFlags struct {
	Honeypot        bool
	Verified        bool
	LiquidityLocked bool
}

// SecurityStatus is the display status derived from SecurityFlags.
type SecurityStatus string

const (
	StatusSecure SecurityStatus = "secure"
	StatusWatch  SecurityStatus = "watch"
	StatusRisky  SecurityStatus = "risky"
)

// Status derives the display status: honeypot is risky, unverified or
// unlocked liquidity is watch, anything else is secure.
func (f SecurityFlags) Status() SecurityStatus {
	switch {
	case f.Honeypot:
		return StatusRisky
	case !f.Verified || !f.LiquidityLocked:
		return StatusWatch
	default:
		return StatusSecure
	}
}

// Indicator returns a short glyph for table cells.
func (s SecurityStatus) Indicator() string {
	switch s {
	case StatusRisky:
		return "❌"
	case StatusWatch:
		return "⚠️"
	default:
		return "✅"
	}
}
