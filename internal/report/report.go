// Package report renders run results for the console and for sample files.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mohamed-abdelsamei/loadster/internal/stats"
	"github.com/mohamed-abdelsamei/loadster/internal/types"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"} // Dark green / Bright green
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"} // Dark red / Bright red
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"} // Dark goldenrod / Yellow
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"} // Dark cyan / Cyan
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"} // Dark gray / Light gray
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSection = lipgloss.NewStyle().
			Bold(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)
)

// Render writes the console report for one run: the results summary followed
// by the detailed report with response codes, latency distribution, and
// success-only metrics. Styling degrades to plain text off-TTY.
func Render(w io.Writer, rep stats.Report, target string) {
	var b strings.Builder

	b.WriteString("\n" + styleTitle.Render("Load Test Results") + "\n")
	fmt.Fprintf(&b, "Total Requests: %d\n", rep.Total)
	fmt.Fprintf(&b, "Successful Requests: %d\n", rep.Successful)
	fmt.Fprintf(&b, "Failed Requests: %d\n", rep.Failed)
	fmt.Fprintf(&b, "Total Time: %s\n", ms(rep.TotalLatency))
	fmt.Fprintf(&b, "Average Time per Request: %s\n", msf(rep.AverageLatency))
	fmt.Fprintf(&b, "Median Time: %s\n", ms(rep.MedianLatency))
	fmt.Fprintf(&b, "Minimum Time: %s\n", ms(rep.MinLatency))
	fmt.Fprintf(&b, "Maximum Time: %s\n", ms(rep.MaxLatency))

	b.WriteString("\n" + styleTitle.Render("Load Test Report") + "\n")

	b.WriteString(styleSection.Render("Summary") + "\n")
	fmt.Fprintf(&b, "  %-22s%s\n", "Target URL", target)
	fmt.Fprintf(&b, "  %-22s%d\n", "Total Requests", rep.Total)
	fmt.Fprintf(&b, "  %-22s%d\n", "Successful Requests", rep.Successful)
	fmt.Fprintf(&b, "  %-22s%d\n", "Failed Requests", rep.Failed)
	fmt.Fprintf(&b, "  %-22s%.2f s\n", "Duration", rep.TotalLatency.Seconds())
	fmt.Fprintf(&b, "  %-22s%.2f req/s\n", "Throughput", rep.Throughput)
	fmt.Fprintf(&b, "  %-22s%.2f s\n", "Wall Clock", rep.WallDuration.Seconds())
	fmt.Fprintf(&b, "  %-22s%.2f req/s\n", "Wall Throughput", rep.WallThroughput)
	fmt.Fprintf(&b, "  %-22s%s\n", "Avg Latency", msf(rep.AverageLatency))
	fmt.Fprintf(&b, "  %-22s%s\n", "P95 Latency", ms(rep.P95Latency))
	fmt.Fprintf(&b, "  %-22s%s\n", "P99 Latency", ms(rep.P99Latency))

	b.WriteString("\n" + styleSection.Render("Response Codes") + "\n")
	b.WriteString(styleSubtle.Render(fmt.Sprintf("  %-6s%-8s%s", "Code", "Count", "Percentage")) + "\n")
	for _, code := range sortedCodes(rep.StatusCodes) {
		fmt.Fprintf(&b, "  %s%-8d%.2f%%\n",
			statusStyle(code).Render(fmt.Sprintf("%-6d", code)),
			rep.StatusCodes[code],
			rep.StatusPercent(code))
	}

	b.WriteString("\n" + styleSection.Render("Latency Distribution") + "\n")
	b.WriteString(styleSubtle.Render(fmt.Sprintf("  %-12s%s", "Percentile", "Latency")) + "\n")
	fmt.Fprintf(&b, "  %-12s%s\n", "P50", ms(rep.MedianLatency))
	fmt.Fprintf(&b, "  %-12s%s\n", "P75", ms(rep.P75Latency))
	fmt.Fprintf(&b, "  %-12s%s\n", "P95", ms(rep.P95Latency))
	fmt.Fprintf(&b, "  %-12s%s\n", "P99", ms(rep.P99Latency))
	fmt.Fprintf(&b, "  %-12s%s\n", "Max", ms(rep.MaxLatency))

	b.WriteString("\n" + styleSection.Render("Additional Metrics") + "\n")
	fmt.Fprintf(&b, "Min Successful Request Time: %s\n", ms(rep.SuccessMinLatency))
	fmt.Fprintf(&b, "Max Successful Request Time: %s\n", ms(rep.SuccessMaxLatency))
	fmt.Fprintf(&b, "Avg Successful Request Time: %s\n", msf(rep.SuccessAvgLatency))

	_, _ = io.WriteString(w, b.String())
}

// WriteSamples writes one line per completed call in collection order, for
// offline inspection of a run.
func WriteSamples(w io.Writer, samples []types.Sample) error {
	for _, s := range samples {
		_, err := fmt.Fprintf(w, "%s\tstatus=%d\tlatency_ms=%d\n",
			s.Timestamp.Format(time.RFC3339Nano), s.Status, s.Latency.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to write sample: %w", err)
		}
	}
	return nil
}

// statusStyle picks the color class for a status code row.
func statusStyle(code int) lipgloss.Style {
	switch {
	case code >= 200 && code < 300:
		return styleSuccess
	case code >= 500:
		return styleError
	case code >= 400:
		return styleWarning
	default:
		return styleSubtle
	}
}

// sortedCodes returns the histogram keys in ascending order so the report is
// stable across runs.
func sortedCodes(codes map[int]int) []int {
	out := make([]int, 0, len(codes))
	for code := range codes {
		out = append(out, code)
	}
	sort.Ints(out)
	return out
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%d ms", d.Milliseconds())
}

func msf(d time.Duration) string {
	return fmt.Sprintf("%.2f ms", float64(d)/float64(time.Millisecond))
}
