package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/aretw0/canopy/pkg/analysis"
	"github.com/aretw0/canopy/pkg/domain"
)

// Printer writes command results as JSON, rendered markdown or plain text.
type Printer struct {
	Out  io.Writer
	JSON bool
	// Rich enables glamour rendering, normally only when Out is a TTY.
	Rich bool
}

func (p Printer) json(v any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p Printer) markdown(md string) error {
	out, err := tui.NewRenderer(p.Rich)(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(p.Out, out)
	return err
}

// Evaluation prints the full report of an evaluation.
func (p Printer) Evaluation(title string, res *analysis.Result) error {
	if p.JSON {
		return p.json(res)
	}
	return p.markdown(tui.Report(title, res))
}

// Validation prints a validation report.
func (p Printer) Validation(title string, r analysis.Report) error {
	if p.JSON {
		return p.json(r)
	}
	return p.markdown(tui.ValidationReport(title, r))
}

// Path prints the optimal path.
func (p Printer) Path(res *analysis.Result) error {
	if p.JSON {
		return p.json(analysis.Path(res))
	}
	_, err := fmt.Fprintln(p.Out, strings.Join(analysis.OptimalPath(res), "\n"))
	return err
}

// Summary prints node counts and the expected value.
func (p Printer) Summary(s analysis.Summary) error {
	if p.JSON {
		return p.json(s)
	}
	w := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Expected value:\t%s\n", tui.FormatEV(s.ExpectedValue))
	fmt.Fprintf(w, "Nodes:\t%d\n", s.TotalNodes)
	fmt.Fprintf(w, "Decision:\t%d\n", s.DecisionNodes)
	fmt.Fprintf(w, "Chance:\t%d\n", s.ChanceNodes)
	fmt.Fprintf(w, "Terminal:\t%d\n", s.TerminalNodes)
	return w.Flush()
}

// Sensitivity prints one line per sweep point.
func (p Printer) Sensitivity(field string, points []analysis.Point) error {
	if p.JSON {
		return p.json(points)
	}
	w := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tEV\tBEST\n", strings.ToUpper(field))
	for _, pt := range points {
		fmt.Fprintf(w, "%g\t%.2f\t%s\n", pt.Input, pt.ExpectedValue, pt.BestChoice)
	}
	return w.Flush()
}

// Graph prints a Mermaid diagram, overlaid with the evaluation when available.
func (p Printer) Graph(nodes []domain.Node, res *analysis.Result) error {
	_, err := io.WriteString(p.Out, graph.GenerateMermaid(nodes, graph.OverlayFromResult(res)))
	return err
}
