package monitor

import (
	"sync"

	"dex-pair-monitor/internal/domain"
	"dex-pair-monitor/internal/idhash"
)

// Alert reasons.
const (
	ReasonHoneypot       = "honeypot flag"
	ReasonBlacklisted    = "blacklisted address"
	ReasonUnlocked       = "liquidity not locked"
	ReasonAbnormalVolume = "abnormal volume"
	ReasonUnverified     = "unverified contract"
)

// AbnormalVolumeRatio is the volume/liquidity ratio above which volume is flagged.
const AbnormalVolumeRatio = 10.0

// DeriveAlerts raises alerts for displayed rows and blacklisted hits.
// Blacklisted hits come first, then rows in display order; within a pair,
// alerts are ordered by descending severity.
func DeriveAlerts(rows, blacklisted []domain.PairSnapshot, atMs int64) []domain.Alert {
	var alerts []domain.Alert

	for _, s := range blacklisted {
		alerts = append(alerts, newAlert(s, ReasonBlacklisted, domain.AlertCritical, atMs))
		alerts = append(alerts, pairAlerts(s, atMs)...)
	}
	for _, s := range rows {
		alerts = append(alerts, pairAlerts(s, atMs)...)
	}

	return alerts
}

func pairAlerts(s domain.PairSnapshot, atMs int64) []domain.Alert {
	var alerts []domain.Alert
	if s.Security.Honeypot {
		alerts = append(alerts, newAlert(s, ReasonHoneypot, domain.AlertCritical, atMs))
	}
	if !s.Security.LiquidityLocked {
		alerts = append(alerts, newAlert(s, ReasonUnlocked, domain.AlertHigh, atMs))
	}
	if s.LiquidityUSD > 0 && s.Volume > AbnormalVolumeRatio*s.LiquidityUSD {
		alerts = append(alerts, newAlert(s, ReasonAbnormalVolume, domain.AlertMedium, atMs))
	}
	if !s.Security.Verified {
		alerts = append(alerts, newAlert(s, ReasonUnverified, domain.AlertLow, atMs))
	}
	return alerts
}

func newAlert(s domain.PairSnapshot, reason string, level domain.AlertLevel, atMs int64) domain.Alert {
	return domain.Alert{
		ID:          idhash.ComputeAlertID(s.ChainID, s.PairAddress, s.PairLabel, reason, atMs),
		AtMs:        atMs,
		PairLabel:   s.PairLabel,
		PairAddress: s.PairAddress,
		Reason:      reason,
		Level:       level,
	}
}

// DefaultAlertLogCapacity is the number of alerts kept when no capacity is given.
const DefaultAlertLogCapacity = 200

// AlertLog is a bounded in-memory list of recent alerts, newest first.
// Thread-safe for concurrent use.
type AlertLog struct {
	mu       sync.RWMutex
	capacity int
	alerts   []domain.Alert
}

// NewAlertLog creates an AlertLog. capacity <= 0 uses DefaultAlertLogCapacity.
func NewAlertLog(capacity int) *AlertLog {
	if capacity <= 0 {
		capacity = DefaultAlertLogCapacity
	}
	return &AlertLog{capacity: capacity}
}

// Add records a batch of alerts raised together. The batch keeps its order
// and is placed ahead of older alerts; the oldest are evicted past capacity.
func (l *AlertLog) Add(alerts ...domain.Alert) {
	if len(alerts) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make([]domain.Alert, 0, len(alerts)+len(l.alerts))
	merged = append(merged, alerts...)
	merged = append(merged, l.alerts...)
	if len(merged) > l.capacity {
		merged = merged[:l.capacity]
	}
	l.alerts = merged
}

// Recent returns up to limit alerts, newest first. limit <= 0 returns all.
func (l *AlertLog) Recent(limit int) []domain.Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.alerts)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Alert, n)
	copy(out, l.alerts[:n])
	return out
}

// Len returns the number of stored alerts.
func (l *AlertLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.alerts)
}
