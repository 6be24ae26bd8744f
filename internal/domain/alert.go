package domain

// AlertLevel orders alert severities.
type AlertLevel string

const (
	AlertLow      AlertLevel = "low"
	AlertMedium   AlertLevel = "medium"
	AlertHigh     AlertLevel = "high"
	AlertCritical AlertLevel = "critical"
)

// Rank returns a sortable severity, higher is worse.
func (l AlertLevel) Rank() int {
	switch l {
	case AlertCritical:
		return 3
	case AlertHigh:
		return 2
	case AlertMedium:
		return 1
	default:
		return 0
	}
}

// Alert is a risk observation raised during a refresh cycle.
// Kept in memory only.
type Alert struct {
	ID          string     `json:"id"`   // deterministic hash, see idhash
	AtMs        int64      `json:"atMs"` // cycle time, Unix ms
	PairLabel   string     `json:"pair"`
	PairAddress string     `json:"pairAddress"`
	Reason      string     `json:"reason"`
	Level       AlertLevel `json:"level"`
}
