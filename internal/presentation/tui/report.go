package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/analysis"
	"github.com/aretw0/canopy/pkg/domain"
)

// Report renders an evaluation as markdown: a summary table, the optimal path
// and the computation behind every node.
func Report(title string, res *analysis.Result) string {
	var sb strings.Builder
	summary := analysis.Summarize(res)

	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "**Expected value:** %.2f\n\n", summary.ExpectedValue)

	sb.WriteString("| Nodes | Decision | Chance | Terminal |\n")
	sb.WriteString("|---|---|---|---|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d |\n\n",
		summary.TotalNodes, summary.DecisionNodes, summary.ChanceNodes, summary.TerminalNodes)

	sb.WriteString("## Optimal path\n\n```\n")
	for _, line := range summary.OptimalPath {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")

	if res != nil && len(res.Warnings) > 0 {
		sb.WriteString("\n## Warnings\n\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w.Message)
		}
	}

	if res != nil && res.Breakdown != nil {
		sb.WriteString("\n## Breakdown\n\n")
		res.Breakdown.Walk(func(b *domain.Breakdown, depth int) bool {
			fmt.Fprintf(&sb, "%s- **%s** (%s): `%s`\n", strings.Repeat("  ", depth), b.Name, b.Role, b.Trace)
			return true
		})
	}

	return sb.String()
}

// ValidationReport renders a validation report as markdown.
func ValidationReport(title string, r analysis.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if r.OK {
		fmt.Fprintf(&sb, "✅ Valid tree (%d nodes)\n", r.NodeCount)
	} else {
		fmt.Fprintf(&sb, "❌ Invalid tree (%d errors)\n", len(r.Errors))
	}

	section := func(name string, issues []analysis.Issue) {
		if len(issues) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", name)
		for _, is := range issues {
			fmt.Fprintf(&sb, "- `%s` %s\n", is.Code, is.Message)
		}
	}
	section("Errors", r.Errors)
	section("Warnings", r.Warnings)
	return sb.String()
}
