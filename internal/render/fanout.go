package render

import "dex-pair-monitor/internal/domain"

// Fanout forwards every call to each surface in order.
type Fanout []Surface

// Compile-time interface check.
var _ Surface = Fanout(nil)

// StatusLines implements Surface.
func (f Fanout) StatusLines(lines []string) {
	for _, s := range f {
		s.StatusLines(lines)
	}
}

// Table implements Surface.
func (f Fanout) Table(rows []domain.PairSnapshot) {
	for _, s := range f {
		s.Table(rows)
	}
}

// Metric implements Surface.
func (f Fanout) Metric(m Metric) {
	for _, s := range f {
		s.Metric(m)
	}
}

// Notice implements Surface.
func (f Fanout) Notice(n domain.Notice) {
	for _, s := range f {
		s.Notice(n)
	}
}
