package monitor

import (
	"sort"
	"strings"

	"dex-pair-monitor/internal/domain"
)

// SortSnapshots orders snapshots by (liquidity DESC, age ASC, label ASC).
// Pair address breaks any remaining tie so the order is total.
func SortSnapshots(snapshots []domain.PairSnapshot) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		return compareSnapshots(&snapshots[i], &snapshots[j]) < 0
	})
}

// compareSnapshots returns:
//   - negative if a sorts before b
//   - zero if a == b
//   - positive if a sorts after b
//
// Order: (liquidity_usd DESC, age_minutes ASC, pair_label ASC, pair_address ASC)
func compareSnapshots(a, b *domain.PairSnapshot) int {
	if a.LiquidityUSD != b.LiquidityUSD {
		if a.LiquidityUSD > b.LiquidityUSD {
			return -1
		}
		return 1
	}

	if a.AgeMinutes != b.AgeMinutes {
		if a.AgeMinutes < b.AgeMinutes {
			return -1
		}
		return 1
	}

	if c := strings.Compare(a.PairLabel, b.PairLabel); c != 0 {
		return c
	}

	return strings.Compare(a.PairAddress, b.PairAddress)
}
