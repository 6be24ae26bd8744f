package monitor

import (
	"fmt"

	"dex-pair-monitor/internal/domain"
	"dex-pair-monitor/internal/render"
)

// cycleTotals are the figures behind the metric call-outs of one cycle.
type cycleTotals struct {
	pairs        int
	liquidityUSD float64
	alerts       int
	securityRate float64 // percent of displayed pairs with secure status
}

func newCycleTotals(out Outcome) cycleTotals {
	t := cycleTotals{
		pairs:  len(out.Rows),
		alerts: len(out.Alerts),
	}
	secure := 0
	for _, r := range out.Rows {
		t.liquidityUSD += r.LiquidityUSD
		if r.Security.Status() == domain.StatusSecure {
			secure++
		}
	}
	if t.pairs > 0 {
		t.securityRate = 100 * float64(secure) / float64(t.pairs)
	}
	return t
}

// metrics returns the call-outs for t, with deltas against prev when known.
func (t cycleTotals) metrics(prev *cycleTotals) []render.Metric {
	out := []render.Metric{
		{Label: "Pairs found", Value: fmt.Sprintf("%d", t.pairs)},
		{Label: "Total liquidity", Value: fmt.Sprintf("$%.0f", t.liquidityUSD)},
		{Label: "Active alerts", Value: fmt.Sprintf("%d", t.alerts)},
		{Label: "Security rate", Value: fmt.Sprintf("%.0f%%", t.securityRate)},
	}
	if prev == nil {
		return out
	}

	out[0].Delta = fmt.Sprintf("%+d", t.pairs-prev.pairs)
	out[1].Delta = percentChange(prev.liquidityUSD, t.liquidityUSD)
	out[2].Delta = fmt.Sprintf("%+d", t.alerts-prev.alerts)
	out[3].Delta = fmt.Sprintf("%+.0f pts", t.securityRate-prev.securityRate)
	return out
}

// percentChange formats the relative change from old to cur, or "" when old is zero.
func percentChange(old, cur float64) string {
	if old == 0 {
		return ""
	}
	return fmt.Sprintf("%+.1f%%", 100*(cur-old)/old)
}
