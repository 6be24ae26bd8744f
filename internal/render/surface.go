// Package render implements the display surfaces a refresh cycle draws on.
package render

import (
	"dex-pair-monitor/internal/domain"
)

// Surface is a display target for refresh cycles.
// A cycle always calls StatusLines first, which opens a new frame, then
// Table or a "no matches" Notice, then any Metric call-outs and notices.
// Implementations must not block the caller for long and report their own
// failures; nothing is returned to the loop.
type Surface interface {
	StatusLines(lines []string)
	Table(rows []domain.PairSnapshot)
	Metric(m Metric)
	Notice(n domain.Notice)
}

// Metric is a scalar call-out with an optional delta against the previous cycle.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
}

// Row is the display form of a PairSnapshot.
type Row struct {
	Pair         string  `json:"pair"`
	PairAddress  string  `json:"pairAddress"`
	Chain        string  `json:"chain"`
	Dex          string  `json:"dex"`
	LiquidityUSD float64 `json:"liquidityUsd"`
	AgeMinutes   float64 `json:"ageMinutes"`
	Volume24h    float64 `json:"volume24h"`
	PriceUSD     string  `json:"priceUsd"`
	Status       string  `json:"status"`
	Indicator    string  `json:"indicator"`
	Link         string  `json:"link"`
}

// NewRow converts a snapshot to its display row.
func NewRow(s domain.PairSnapshot) Row {
	status := s.Security.Status()
	return Row{
		Pair:         s.PairLabel,
		PairAddress:  s.PairAddress,
		Chain:        s.ChainID,
		Dex:          s.DexID,
		LiquidityUSD: s.LiquidityUSD,
		AgeMinutes:   s.AgeMinutes,
		Volume24h:    s.Volume,
		PriceUSD:     s.PriceUSD.String(),
		Status:       string(status),
		Indicator:    status.Indicator(),
		Link:         s.DetailLink,
	}
}

// NewRows converts snapshots preserving order.
func NewRows(snapshots []domain.PairSnapshot) []Row {
	rows := make([]Row, len(snapshots))
	for i, s := range snapshots {
		rows[i] = NewRow(s)
	}
	return rows
}
