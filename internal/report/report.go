// Package report renders algorithm comparisons for the console.
//
// Format* functions return strings without performing I/O; Display*
// functions write to an io.Writer.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/eugenenazirov/coin-change/internal/benchmark"
	"github.com/eugenenazirov/coin-change/internal/change"
)

// FormatBreakdown renders a breakdown largest denomination first, e.g. "{50: 2, 1: 1}".
func FormatBreakdown(b change.Breakdown) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, d := range b.Denominations() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(d))
		sb.WriteString(": ")
		sb.WriteString(strconv.Itoa(b[d]))
	}
	sb.WriteByte('}')
	return sb.String()
}

// FormatMicros renders a duration in microseconds with three decimals.
func FormatMicros(d time.Duration) string {
	return fmt.Sprintf("%.3f µs", float64(d.Nanoseconds())/float64(time.Microsecond))
}

// FormatNote explains how the greedy result differs from the optimal one.
// It returns an empty string when there is nothing to point out.
func FormatNote(c benchmark.Comparison) string {
	switch {
	case c.Amount > 0 && len(c.Optimal.Breakdown) == 0:
		return fmt.Sprintf("no combination of the denominations sums exactly to %d", c.Amount)
	case !c.GreedyExact():
		return fmt.Sprintf("greedy left %d uncovered", c.Amount-c.Greedy.Breakdown.Value())
	case c.ExtraCoins() > 0:
		return fmt.Sprintf("greedy used %d more coin(s) than optimal", c.ExtraCoins())
	}
	return ""
}

// DisplayComparison writes a comparison in a human-readable layout.
func DisplayComparison(out io.Writer, c benchmark.Comparison) {
	r := lipgloss.NewRenderer(out)
	label := r.NewStyle().Bold(true)
	value := r.NewStyle().Foreground(lipgloss.Color("6"))
	warn := r.NewStyle().Foreground(lipgloss.Color("3"))

	fmt.Fprintf(out, "%s %s\n", label.Render("Amount:"), value.Render(strconv.Itoa(c.Amount)))
	fmt.Fprintf(out, "%s %s (%d coins)\n", label.Render("Greedy algorithm result:"),
		FormatBreakdown(c.Greedy.Breakdown), c.Greedy.Breakdown.Coins())
	fmt.Fprintf(out, "%s %s (%d coins)\n", label.Render("Dynamic programming result:"),
		FormatBreakdown(c.Optimal.Breakdown), c.Optimal.Breakdown.Coins())
	fmt.Fprintf(out, "%s %s\n", label.Render("Greedy time:"), value.Render(FormatMicros(c.Greedy.PerCall())))
	fmt.Fprintf(out, "%s     %s\n", label.Render("DP time:"), value.Render(FormatMicros(c.Optimal.PerCall())))
	if note := FormatNote(c); note != "" {
		fmt.Fprintf(out, "%s %s\n", label.Render("Note:"), warn.Render(note))
	}
	fmt.Fprintln(out)
}
