package render

import (
	"sync"
	"time"

	"dex-pair-monitor/internal/domain"
)

// Frame is everything drawn by one refresh cycle.
type Frame struct {
	Seq     uint64          `json:"seq"`
	At      time.Time       `json:"at"`
	Lines   []string        `json:"lines"`
	Rows    []Row           `json:"rows"`
	Metrics []Metric        `json:"metrics"`
	Notices []domain.Notice `json:"notices"`
}

// clone returns a deep copy of f.
func (f Frame) clone() Frame {
	out := f
	out.Lines = append([]string(nil), f.Lines...)
	out.Rows = append([]Row(nil), f.Rows...)
	out.Metrics = append([]Metric(nil), f.Metrics...)
	out.Notices = append([]domain.Notice(nil), f.Notices...)
	return out
}

// Recorder keeps the most recent frame in memory.
// Thread-safe for concurrent use.
type Recorder struct {
	mu    sync.RWMutex
	frame Frame
	now   func() time.Time
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Compile-time interface check.
var _ Surface = (*Recorder)(nil)

// StatusLines opens a new frame.
func (r *Recorder) StatusLines(lines []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = Frame{
		Seq:   r.frame.Seq + 1,
		At:    r.now(),
		Lines: append([]string(nil), lines...),
	}
}

// Table replaces the rows of the current frame.
func (r *Recorder) Table(rows []domain.PairSnapshot) {
	converted := NewRows(rows)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame.Rows = converted
}

// Metric appends a call-out to the current frame.
func (r *Recorder) Metric(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame.Metrics = append(r.frame.Metrics, m)
}

// Notice appends a notice to the current frame.
func (r *Recorder) Notice(n domain.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame.Notices = append(r.frame.Notices, n)
}

// Frame returns a copy of the most recent frame.
// Seq is zero until the first cycle has been drawn.
func (r *Recorder) Frame() Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frame.clone()
}
