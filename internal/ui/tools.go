package ui

import (
	"fmt"
	"strings"

	"github.com/imamik/infermesh/internal/util/prerequisites"
)

// RenderTools lists every checked tool with its path and version. Missing
// required tools link to their install instructions.
func RenderTools(results *prerequisites.CheckResults) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Tools"))
	b.WriteString("\n\n")

	width := 0
	for _, r := range results.Results {
		width = max(width, len(r.Tool.Name))
	}

	for _, r := range results.Results {
		name := fmt.Sprintf("%-*s", width, r.Tool.Name)
		switch {
		case r.Found:
			detail := r.Path
			if r.Version != "" {
				detail += "  " + r.Version
			}
			fmt.Fprintf(&b, "  %s %s  %s\n", okStyle.Render(checkMark), name, dimStyle.Render(detail))
		case r.Tool.Required:
			fmt.Fprintf(&b, "  %s %s  %s\n", failedStyle.Render(crossMark), name, failedStyle.Render("missing, see "+r.Tool.InstallURL))
		default:
			fmt.Fprintf(&b, "  %s %s  %s\n", skippedStyle.Render(skipMark), name, dimStyle.Render("optional: "+r.Tool.Description))
		}
	}
	return b.String()
}
