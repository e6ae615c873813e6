package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/imamik/infermesh/internal/pipeline"
)

// RenderSummary lists every step result with its status and duration,
// followed by totals.
func RenderSummary(title string, results []pipeline.Result) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  " + title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n\n")

	width := 0
	for _, r := range results {
		width = max(width, len(r.Name))
	}

	var total time.Duration
	counts := map[pipeline.Status]int{}
	for _, r := range results {
		counts[r.Status]++
		total += r.Duration

		name := fmt.Sprintf("%-*s", width, r.Name)
		switch r.Status {
		case pipeline.StatusSucceeded:
			fmt.Fprintf(&b, "  %s %s  %s\n", okStyle.Render(checkMark), name, dimStyle.Render(formatDuration(r.Duration)))
		case pipeline.StatusFailed:
			fmt.Fprintf(&b, "  %s %s  %s\n", failedStyle.Render(crossMark), name, dimStyle.Render(formatDuration(r.Duration)))
			if r.Err != nil {
				fmt.Fprintf(&b, "       %s\n", failedStyle.Render(firstLine(r.Err.Error())))
			}
		default:
			fmt.Fprintf(&b, "  %s %s\n", skippedStyle.Render(skipMark), dimStyle.Render(name))
		}
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "    %d succeeded, %d failed, %d skipped in %s\n",
		counts[pipeline.StatusSucceeded], counts[pipeline.StatusFailed], counts[pipeline.StatusSkipped], formatDuration(total))

	return b.String()
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
