package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"dex-pair-monitor/internal/domain"
)

type terminalStyles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
	metric  lipgloss.Style
	status  map[domain.SecurityStatus]lipgloss.Style
	notices map[domain.NoticeLevel]lipgloss.Style
}

func newTerminalStyles(r *lipgloss.Renderer) terminalStyles {
	return terminalStyles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7DD3FC")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#94A3B8")),
		header: r.NewStyle().Bold(true).Underline(true),
		metric: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FACC15")),
		status: map[domain.SecurityStatus]lipgloss.Style{
			domain.StatusSecure: r.NewStyle().Foreground(lipgloss.Color("#22C55E")),
			domain.StatusWatch:  r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
			domain.StatusRisky:  r.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		},
		notices: map[domain.NoticeLevel]lipgloss.Style{
			domain.NoticeInfo:    r.NewStyle().Foreground(lipgloss.Color("#38BDF8")),
			domain.NoticeSuccess: r.NewStyle().Foreground(lipgloss.Color("#22C55E")),
			domain.NoticeWarning: r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
			domain.NoticeError:   r.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		},
	}
}

// Terminal draws frames as styled text on a writer, usually stdout.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	styles terminalStyles
}

// NewTerminal creates a Terminal writing to w.
// The color profile is detected from w, so non-TTY writers get plain text.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w:      w,
		styles: newTerminalStyles(lipgloss.NewRenderer(w)),
	}
}

// Compile-time interface check.
var _ Surface = (*Terminal)(nil)

// StatusLines implements Surface.
func (t *Terminal) StatusLines(lines []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(t.styles.title.Render("DEX new pairs"))
	sb.WriteString("\n")
	for _, line := range lines {
		sb.WriteString(t.styles.muted.Render(line))
		sb.WriteString("\n")
	}
	io.WriteString(t.w, sb.String())
}

var tableHeader = []string{"PAIR", "LIQUIDITY USD", "AGE MIN", "VOLUME 24H", "STATUS", "LINK"}

// Table implements Surface.
func (t *Terminal) Table(rows []domain.PairSnapshot) {
	cells := make([][]string, 0, len(rows))
	statuses := make([]domain.SecurityStatus, 0, len(rows))
	for _, s := range rows {
		status := s.Security.Status()
		statuses = append(statuses, status)
		cells = append(cells, []string{
			s.PairLabel,
			fmt.Sprintf("%.2f", s.LiquidityUSD),
			fmt.Sprintf("%.1f", s.AgeMinutes),
			fmt.Sprintf("%.2f", s.Volume),
			status.Indicator() + " " + string(status),
			s.DetailLink,
		})
	}

	widths := make([]int, len(tableHeader))
	for i, h := range tableHeader {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range cells {
		for i, c := range row {
			if w := lipgloss.Width(c); w > widths[i] {
				widths[i] = w
			}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	header := make([]string, len(tableHeader))
	for i, h := range tableHeader {
		header[i] = t.styles.header.Render(pad(h, widths[i]))
	}
	sb.WriteString(strings.Join(header, "  "))
	sb.WriteString("\n")

	for r, row := range cells {
		out := make([]string, len(row))
		for i, c := range row {
			cell := pad(c, widths[i])
			if i == 4 {
				cell = t.styles.status[statuses[r]].Render(cell)
			}
			out[i] = cell
		}
		sb.WriteString(strings.TrimRight(strings.Join(out, "  "), " "))
		sb.WriteString("\n")
	}
	io.WriteString(t.w, sb.String())
}

// Metric implements Surface.
func (t *Terminal) Metric(m Metric) {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := fmt.Sprintf("%s %s", t.styles.muted.Render(m.Label+":"), t.styles.metric.Render(m.Value))
	if m.Delta != "" {
		line += " " + t.styles.muted.Render("("+m.Delta+")")
	}
	io.WriteString(t.w, line+"\n")
}

// Notice implements Surface.
func (t *Terminal) Notice(n domain.Notice) {
	t.mu.Lock()
	defer t.mu.Unlock()

	style, ok := t.styles.notices[n.Level]
	if !ok {
		style = t.styles.muted
	}
	io.WriteString(t.w, style.Render(fmt.Sprintf("[%s] %s", strings.ToUpper(string(n.Level)), n.Message))+"\n")
}

// pad right-pads s with spaces to display width w.
func pad(s string, w int) string {
	if d := w - lipgloss.Width(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}
