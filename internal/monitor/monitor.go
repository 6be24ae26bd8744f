// Package monitor runs the poll-filter-render refresh loop and its
// consecutive-failure circuit breaker.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"dex-pair-monitor/internal/dexscreener"
	"dex-pair-monitor/internal/domain"
	"dex-pair-monitor/internal/observability"
	"dex-pair-monitor/internal/render"
)

var (
	// ErrAlreadyRunning is returned by Start while the loop is running.
	ErrAlreadyRunning = errors.New("monitor already running")

	// ErrNotRunning is returned by Stop while the loop is not running.
	ErrNotRunning = errors.New("monitor not running")

	// ErrBusy is returned when the command queue is full.
	ErrBusy = errors.New("monitor command queue full")
)

// Source fetches raw upstream pair records.
type Source interface {
	FetchPairs(ctx context.Context, endpoint string) ([]dexscreener.RawPair, error)
}

// DefaultQueueSize is the command queue capacity.
const DefaultQueueSize = 8

// Options contains configuration for creating a Monitor.
type Options struct {
	Source    Source
	Surface   render.Surface
	Blacklist TokenBlacklist // optional
	Alerts    *AlertLog      // optional, created when nil
	Config    domain.Config  // initial config, used by the first Start
	Logger    *log.Logger

	// Now and After replace the wall clock in tests.
	Now   func() time.Time
	After func(d time.Duration) <-chan time.Time

	QueueSize int // Default: DefaultQueueSize
}

// Status is a point-in-time copy of the monitor state.
type Status struct {
	Session           domain.Session `json:"session"`
	Config            domain.Config  `json:"config"`
	Cycles            int64          `json:"cycles"`
	FailedCycles      int64          `json:"failedCycles"`
	LastCycleAt       *time.Time     `json:"lastCycleAt,omitempty"`
	LastCycleDuration time.Duration  `json:"lastCycleDurationNs"`
	LastCounts        Counts         `json:"lastCounts"`
	LastError         string         `json:"lastError,omitempty"`
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
)

// Monitor owns the refresh loop. Run drives it from a single goroutine;
// Start, Stop, UpdateConfig and Status are safe to call from any goroutine.
type Monitor struct {
	source    Source
	surface   render.Surface
	blacklist TokenBlacklist
	alerts    *AlertLog
	logger    *log.Logger
	now       func() time.Time
	after     func(d time.Duration) <-chan time.Time
	commands  chan commandKind

	mu     sync.RWMutex
	status Status

	// Loop-only state.
	prev    *cycleTotals
	pending []domain.Notice // drawn after the next cycle's status lines
}

// New creates a Monitor in the idle state.
func New(opts Options) *Monitor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	after := opts.After
	if after == nil {
		after = time.After
	}

	alerts := opts.Alerts
	if alerts == nil {
		alerts = NewAlertLog(0)
	}

	surface := opts.Surface
	if surface == nil {
		surface = render.Fanout(nil)
	}

	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	observability.SetLoopState(domain.StateIdle.String())

	return &Monitor{
		source:    opts.Source,
		surface:   surface,
		blacklist: opts.Blacklist,
		alerts:    alerts,
		logger:    logger,
		now:       now,
		after:     after,
		commands:  make(chan commandKind, queueSize),
		status: Status{
			Session: domain.NewSession(),
			Config:  opts.Config,
		},
	}
}

// Alerts returns the alert log the loop writes to.
func (m *Monitor) Alerts() *AlertLog {
	return m.alerts
}

// Status returns a copy of the current state.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.status
	if st.LastCycleAt != nil {
		at := *st.LastCycleAt
		st.LastCycleAt = &at
	}
	return st
}

// Config returns the config the next cycle will use.
func (m *Monitor) Config() domain.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Config
}

// UpdateConfig validates and stores cfg. A running loop picks it up at the
// next cycle boundary; otherwise it is used by the next Start.
func (m *Monitor) UpdateConfig(cfg domain.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.status.Config = cfg
	m.mu.Unlock()
	m.logger.Printf("config updated: endpoint=%s min_liquidity=%.2f max_age=%.1f refresh=%ds",
		cfg.Endpoint, cfg.Thresholds.MinLiquidityUSD, cfg.Thresholds.MaxAgeMinutes, cfg.RefreshSeconds)
	return nil
}

// Start requests the loop to start. A non-nil cfg replaces the stored config.
// The first cycle runs as soon as the loop picks up the command.
// A rejected start leaves the stored config untouched.
func (m *Monitor) Start(cfg *domain.Config) error {
	if m.Status().Session.Running() {
		return ErrAlreadyRunning
	}

	if cfg != nil {
		if err := m.UpdateConfig(*cfg); err != nil {
			return err
		}
	} else if err := m.Config().Validate(); err != nil {
		return err
	}

	return m.enqueue(cmdStart)
}

// Stop requests the loop to stop. During the pacing wait the stop is
// immediate; a cycle already in flight completes and is rendered first.
func (m *Monitor) Stop() error {
	if !m.Status().Session.Running() {
		return ErrNotRunning
	}
	return m.enqueue(cmdStop)
}

func (m *Monitor) enqueue(cmd commandKind) error {
	select {
	case m.commands <- cmd:
		return nil
	default:
		return ErrBusy
	}
}

// Run processes commands and cycles until ctx is cancelled.
// It blocks; call it from its own goroutine.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Println("monitor loop started")

	// nil while not running, so the select never fires on it.
	var wait <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			m.logger.Println("monitor loop stopping...")
			return ctx.Err()

		case cmd := <-m.commands:
			switch cmd {
			case cmdStart:
				if m.session().Running() {
					m.logger.Println("start ignored: already running")
					continue
				}
				m.setSession(m.session().Started())
				// Surfaces open a frame on StatusLines, so the notice waits for the first cycle.
				m.pending = append(m.pending, domain.Notice{Level: domain.NoticeSuccess, Message: "monitoring started", At: m.now()})
				m.logger.Println("monitoring started")
				wait = m.cycle(ctx)

			case cmdStop:
				if !m.session().Running() {
					m.logger.Println("stop ignored: not running")
					continue
				}
				wait = nil
				m.setSession(m.session().Stopped())
				m.notice(domain.NoticeWarning, "monitoring stopped")
				m.logger.Println("monitoring stopped by user")
			}

		case <-wait:
			wait = m.cycle(ctx)
		}
	}
}

// cycle runs one refresh cycle and returns the pacing channel for the next,
// or nil when the loop is no longer running.
func (m *Monitor) cycle(ctx context.Context) <-chan time.Time {
	cfg := m.Config()
	m.RunCycle(ctx, cfg)

	if ctx.Err() != nil || !m.session().Running() {
		return nil
	}
	return m.after(cfg.RefreshInterval())
}

// RunCycle fetches, evaluates and renders one cycle with cfg and returns
// its outcome. The session is updated from the outcome.
func (m *Monitor) RunCycle(ctx context.Context, cfg domain.Config) Outcome {
	start := m.now()

	records, err := m.source.FetchPairs(ctx, cfg.Endpoint)
	if ctx.Err() != nil {
		// Shutdown, not an upstream failure.
		return Outcome{Session: m.session(), Err: ctx.Err()}
	}

	now := m.now()
	out := Evaluate(cfg, m.session(), FetchResult{Records: records, Err: err}, now, m.blacklist)
	duration := now.Sub(start)

	m.record(out, now, duration)
	m.alerts.Add(out.Alerts...)
	m.draw(cfg, out, now)
	m.observe(out, now, duration)

	return out
}

func (m *Monitor) record(out Outcome, now time.Time, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.Session = out.Session
	m.status.Cycles++
	at := now
	m.status.LastCycleAt = &at
	m.status.LastCycleDuration = duration
	if out.Failed() {
		m.status.FailedCycles++
		m.status.LastError = out.Err.Error()
		return
	}
	m.status.LastCounts = out.Counts
	m.status.LastError = ""
}

func (m *Monitor) draw(cfg domain.Config, out Outcome, now time.Time) {
	m.surface.StatusLines([]string{
		fmt.Sprintf("state: %s", out.Session.State),
		fmt.Sprintf("last update: %s", now.Format("15:04:05")),
		fmt.Sprintf("filters: liquidity > $%.0f, age <= %.0f min, refresh %ds",
			cfg.Thresholds.MinLiquidityUSD, cfg.Thresholds.MaxAgeMinutes, cfg.RefreshSeconds),
		fmt.Sprintf("consecutive errors: %d/%d", out.Session.ErrorCount, domain.MaxConsecutiveErrors),
	})

	for _, n := range m.pending {
		m.surface.Notice(n)
	}
	m.pending = nil

	if !out.Failed() {
		if len(out.Rows) > 0 {
			m.surface.Table(out.Rows)
		}
		totals := newCycleTotals(out)
		for _, metric := range totals.metrics(m.prev) {
			m.surface.Metric(metric)
		}
		m.prev = &totals
	}

	for _, n := range out.Notices {
		m.surface.Notice(n)
	}
}

func (m *Monitor) observe(out Outcome, now time.Time, duration time.Duration) {
	status := "success"
	if out.Failed() {
		status = "error"
	}
	observability.RecordCycle(status, duration.Seconds(), out.Counts.Received, out.Counts.Displayed, float64(now.Unix()))
	observability.RecordDropped("malformed", out.Counts.Dropped)
	observability.RecordDropped("too_old", out.Counts.TooOld)
	observability.RecordDropped("blacklisted", out.Counts.Blacklisted)
	observability.RecordDropped("low_liquidity", out.Counts.BelowLiquidity)
	observability.SetErrorCount(out.Session.ErrorCount)
	observability.SetLoopState(out.Session.State.String())
	for _, a := range out.Alerts {
		observability.RecordAlert(string(a.Level))
	}

	if out.Failed() {
		m.logger.Printf("cycle failed (%d/%d) in %v: %v",
			out.Session.ErrorCount, domain.MaxConsecutiveErrors, duration, out.Err)
		if out.Session.State == domain.StateStoppedByErrors {
			m.logger.Printf("stopped after %d consecutive errors", out.Session.ErrorCount)
		}
		return
	}

	c := out.Counts
	m.logger.Printf("cycle done in %v: received=%d dropped=%d too_old=%d blacklisted=%d low_liquidity=%d displayed=%d alerts=%d",
		duration, c.Received, c.Dropped, c.TooOld, c.Blacklisted, c.BelowLiquidity, c.Displayed, len(out.Alerts))
}

func (m *Monitor) notice(level domain.NoticeLevel, msg string) {
	m.surface.Notice(domain.Notice{Level: level, Message: msg, At: m.now()})
}

func (m *Monitor) session() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Session
}

func (m *Monitor) setSession(s domain.Session) {
	m.mu.Lock()
	m.status.Session = s
	m.mu.Unlock()
	observability.SetLoopState(s.State.String())
	observability.SetErrorCount(s.ErrorCount)
}
