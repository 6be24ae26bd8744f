package monitor

import (
	"fmt"
	"time"

	"dex-pair-monitor/internal/dexscreener"
	"dex-pair-monitor/internal/domain"
)

// FetchResult is what one upstream fetch produced: records or an error.
type FetchResult struct {
	Records []dexscreener.RawPair
	Err     error
}

// Counts tallies what happened to the records of one cycle.
type Counts struct {
	Received       int `json:"received"`
	Dropped        int `json:"dropped"` // malformed records
	TooOld         int `json:"tooOld"`
	Blacklisted    int `json:"blacklisted"`
	BelowLiquidity int `json:"belowLiquidity"`
	Displayed      int `json:"displayed"`
}

// Outcome is the result of evaluating one refresh cycle.
type Outcome struct {
	Session     domain.Session
	Rows        []domain.PairSnapshot // filtered and sorted, ready to display
	Blacklisted []domain.PairSnapshot
	Alerts      []domain.Alert
	Notices     []domain.Notice
	Counts      Counts
	Err         error // fetch failure, nil on success
}

// Failed reports whether the cycle's fetch failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// NoMatchesMessage is the notice emitted when nothing passes the filters.
const NoMatchesMessage = "no pairs match the current filters"

// Evaluate computes the outcome of one cycle from the previous session and
// the fetch result. It has no side effects.
//
// A fetch error increments the session error count and, on reaching
// domain.MaxConsecutiveErrors, stops the session. A successful fetch resets
// the count, drops malformed records, then filters, sorts and derives alerts.
func Evaluate(cfg domain.Config, session domain.Session, res FetchResult, now time.Time, bl TokenBlacklist) Outcome {
	if res.Err != nil {
		return evaluateFailure(session, res.Err, now)
	}

	nowMs := now.UnixMilli()
	snapshots, invalid := dexscreener.Normalize(res.Records, nowMs)
	filtered := Filter(snapshots, cfg.Thresholds, bl)
	SortSnapshots(filtered.Kept)

	out := Outcome{
		Session:     domain.Session{State: session.State},
		Rows:        filtered.Kept,
		Blacklisted: filtered.Blacklisted,
		Alerts:      DeriveAlerts(filtered.Kept, filtered.Blacklisted, nowMs),
		Counts: Counts{
			Received:       len(res.Records),
			Dropped:        len(invalid),
			TooOld:         filtered.TooOld,
			Blacklisted:    len(filtered.Blacklisted),
			BelowLiquidity: filtered.BelowLiquidity,
			Displayed:      len(filtered.Kept),
		},
	}

	if len(out.Rows) == 0 {
		out.Notices = append(out.Notices, domain.Notice{
			Level:   domain.NoticeInfo,
			Message: NoMatchesMessage,
			At:      now,
		})
	}

	return out
}

func evaluateFailure(session domain.Session, err error, now time.Time) Outcome {
	count := session.ErrorCount + 1
	next := domain.Session{State: session.State, ErrorCount: count}

	notices := []domain.Notice{{
		Level:   domain.NoticeError,
		Message: fmt.Sprintf("fetch failed (%d/%d): %v", count, domain.MaxConsecutiveErrors, err),
		At:      now,
	}}

	if count >= domain.MaxConsecutiveErrors {
		next.State = domain.StateStoppedByErrors
		notices = append(notices, domain.Notice{
			Level:   domain.NoticeError,
			Message: fmt.Sprintf("monitoring stopped automatically after %d consecutive errors", count),
			At:      now,
		})
	}

	return Outcome{Session: next, Notices: notices, Err: err}
}
