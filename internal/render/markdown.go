package render

import (
	"fmt"
	"strings"
	"time"
)

// Markdown renders a frame as a Markdown document.
func Markdown(f Frame) string {
	var sb strings.Builder

	sb.WriteString("# New Pairs\n\n")
	if f.Seq == 0 {
		sb.WriteString("No cycle has run yet.\n")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("Frame %d at %s\n\n", f.Seq, f.At.UTC().Format(time.RFC3339)))

	for _, line := range f.Lines {
		sb.WriteString(fmt.Sprintf("- %s\n", line))
	}
	if len(f.Lines) > 0 {
		sb.WriteString("\n")
	}

	if len(f.Metrics) > 0 {
		sb.WriteString("## Metrics\n\n")
		sb.WriteString("| Metric | Value | Delta |\n")
		sb.WriteString("|--------|-------|-------|\n")
		for _, m := range f.Metrics {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", m.Label, m.Value, m.Delta))
		}
		sb.WriteString("\n")
	}

	if len(f.Rows) > 0 {
		sb.WriteString("## Pairs\n\n")
		sb.WriteString("| Pair | Liquidity (USD) | Age (min) | Volume 24h | Status | Link |\n")
		sb.WriteString("|------|-----------------|-----------|------------|--------|------|\n")
		for _, r := range f.Rows {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.1f | %.2f | %s %s | [view](%s) |\n",
				escapeCell(r.Pair), r.LiquidityUSD, r.AgeMinutes, r.Volume24h, r.Indicator, r.Status, r.Link))
		}
		sb.WriteString("\n")
	}

	if len(f.Notices) > 0 {
		sb.WriteString("## Notices\n\n")
		for _, n := range f.Notices {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", strings.ToUpper(string(n.Level)), n.Message))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// escapeCell keeps pipes in symbols from breaking the table.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
