package monitor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-pair-monitor/internal/domain"
	"dex-pair-monitor/internal/idhash"
)

func reasons(alerts []domain.Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.Reason
	}
	return out
}

func TestDeriveAlerts(t *testing.T) {
	tests := []struct {
		name string
		pair domain.PairSnapshot
		want []string
	}{
		{
			name: "secure pair",
			pair: domain.PairSnapshot{LiquidityUSD: 1000, Volume: 500, Security: domain.SecurityFlags{Verified: true, LiquidityLocked: true}},
			want: []string{},
		},
		{
			name: "honeypot",
			pair: domain.PairSnapshot{LiquidityUSD: 1000, Security: domain.SecurityFlags{Honeypot: true, Verified: true, LiquidityLocked: true}},
			want: []string{ReasonHoneypot},
		},
		{
			name: "absent flags",
			pair: domain.PairSnapshot{LiquidityUSD: 1000},
			want: []string{ReasonUnlocked, ReasonUnverified},
		},
		{
			name: "abnormal volume",
			pair: domain.PairSnapshot{LiquidityUSD: 1000, Volume: 10001, Security: domain.SecurityFlags{Verified: true, LiquidityLocked: true}},
			want: []string{ReasonAbnormalVolume},
		},
		{
			name: "volume at ratio is normal",
			pair: domain.PairSnapshot{LiquidityUSD: 1000, Volume: 10000, Security: domain.SecurityFlags{Verified: true, LiquidityLocked: true}},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveAlerts([]domain.PairSnapshot{tt.pair}, nil, 1000)
			assert.Equal(t, tt.want, append([]string{}, reasons(got)...))
		})
	}
}

func TestDeriveAlerts_Fields(t *testing.T) {
	pair := domain.PairSnapshot{ChainID: "solana", PairLabel: "A/SOL", PairAddress: "pair-a", LiquidityUSD: 1, Security: domain.SecurityFlags{Honeypot: true, Verified: true, LiquidityLocked: true}}

	alerts := DeriveAlerts(nil, []domain.PairSnapshot{pair}, 1700000000000)

	require.Len(t, alerts, 2)
	assert.Equal(t, ReasonBlacklisted, alerts[0].Reason)
	assert.Equal(t, ReasonHoneypot, alerts[1].Reason)
	for _, a := range alerts {
		assert.Equal(t, domain.AlertCritical, a.Level)
		assert.Equal(t, "A/SOL", a.PairLabel)
		assert.Equal(t, "pair-a", a.PairAddress)
		assert.Equal(t, int64(1700000000000), a.AtMs)
		assert.Equal(t, idhash.ComputeAlertID("solana", "pair-a", "A/SOL", a.Reason, 1700000000000), a.ID)
	}
}

func TestDeriveAlerts_DistinctIDsWithoutPairAddress(t *testing.T) {
	rows := []domain.PairSnapshot{
		{ChainID: "solana", PairLabel: "A/SOL", LiquidityUSD: 1000},
		{ChainID: "solana", PairLabel: "B/SOL", LiquidityUSD: 1000},
	}

	alerts := DeriveAlerts(rows, nil, 1000)

	require.Len(t, alerts, 4)
	seen := make(map[string]bool)
	for _, a := range alerts {
		assert.False(t, seen[a.ID], "duplicate alert id %s for %s", a.ID, a.PairLabel)
		seen[a.ID] = true
	}
}

func TestAlertLog_NewestFirstAndBounded(t *testing.T) {
	log := NewAlertLog(3)

	log.Add(domain.Alert{ID: "1"}, domain.Alert{ID: "2"})
	log.Add(domain.Alert{ID: "3"}, domain.Alert{ID: "4"})

	got := log.Recent(0)
	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"3", "4", "1"}, ids)
	assert.Equal(t, 3, log.Len())

	assert.Len(t, log.Recent(2), 2)
	assert.Len(t, log.Recent(10), 3)
}

func TestAlertLog_DefaultCapacity(t *testing.T) {
	log := NewAlertLog(0)
	for i := 0; i < DefaultAlertLogCapacity+50; i++ {
		log.Add(domain.Alert{ID: fmt.Sprint(i)})
	}
	assert.Equal(t, DefaultAlertLogCapacity, log.Len())
	assert.Equal(t, fmt.Sprint(DefaultAlertLogCapacity+49), log.Recent(1)[0].ID)
}

func TestAlertLog_RecentIsCopy(t *testing.T) {
	log := NewAlertLog(5)
	log.Add(domain.Alert{ID: "a"})

	got := log.Recent(0)
	got[0].ID = "mutated"

	assert.Equal(t, "a", log.Recent(0)[0].ID)
}
