package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mohamed-abdelsamei/loadster/internal/store"
)

// RenderRunList writes a table of recorded runs to w in the order given.
func RenderRunList(w io.Writer, runs []*store.Run) {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Run History"))
	b.WriteString("\n\n")

	if len(runs) == 0 {
		b.WriteString(styleSubtle.Render("  No runs recorded yet"))
		b.WriteString("\n")
		_, _ = io.WriteString(w, b.String())
		return
	}

	header := fmt.Sprintf("  %-6s%-21s%-8s%-7s%-7s%-8s%-13s%-14s%-11s%s",
		"ID", "Started", "Method", "Users", "Total", "Failed", "Avg Latency", "Throughput", "Status", "Target")
	b.WriteString(styleSubtle.Render(header))
	b.WriteString("\n")

	for _, run := range runs {
		fmt.Fprintf(&b, "  %-6d%-21s%-8s%-7d%-7d%-8d%-13s%-14s%-11s%s\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Method,
			run.Concurrency,
			run.TotalRequests,
			run.FailedRequests,
			fmt.Sprintf("%.2f ms", run.AvgLatencyMs),
			fmt.Sprintf("%.2f req/s", run.Throughput),
			run.Status,
			run.TargetURL,
		)
	}

	_, _ = io.WriteString(w, b.String())
}

// RenderRunTotals writes the aggregate footer shown under the run history.
func RenderRunTotals(w io.Writer, t store.Totals) {
	summary := fmt.Sprintf("%d runs recorded: %d requests (%d successful, %d failed, %d dropped)",
		t.Runs, t.Requests, t.Successful, t.Failed, t.Dropped)
	fmt.Fprintf(w, "\n  %s\n", styleSubtle.Render(summary))
}
