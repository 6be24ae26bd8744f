package monitor

import "dex-pair-monitor/internal/domain"

// TokenBlacklist reports whether a base token address is blocked.
type TokenBlacklist interface {
	ContainsToken(address string) bool
}

// FilterResult splits one cycle's snapshots by outcome.
type FilterResult struct {
	Kept           []domain.PairSnapshot
	Blacklisted    []domain.PairSnapshot
	TooOld         int
	BelowLiquidity int
}

// Filter applies, in order: age <= MaxAgeMinutes, base token not blacklisted,
// liquidity > MinLiquidityUSD. A nil blacklist blocks nothing.
// Input order is preserved in Kept.
func Filter(snapshots []domain.PairSnapshot, th domain.Thresholds, bl TokenBlacklist) FilterResult {
	var res FilterResult
	for _, s := range snapshots {
		if s.AgeMinutes > th.MaxAgeMinutes {
			res.TooOld++
			continue
		}
		if bl != nil && bl.ContainsToken(s.BaseToken.Address) {
			res.Blacklisted = append(res.Blacklisted, s)
			continue
		}
		if s.LiquidityUSD <= th.MinLiquidityUSD {
			res.BelowLiquidity++
			continue
		}
		res.Kept = append(res.Kept, s)
	}
	return res
}
