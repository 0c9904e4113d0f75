package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/canopy/pkg/analysis"
	"github.com/aretw0/canopy/pkg/domain"
)

// GraphOverlay contains evaluation data to visualize on the graph.
type GraphOverlay struct {
	// Values annotates nodes with their expected value.
	Values map[string]float64
	// OptimalPath lists the node IDs on the optimal path.
	OptimalPath []string
}

// OverlayFromResult builds an overlay from an evaluation.
func OverlayFromResult(res *analysis.Result) *GraphOverlay {
	if res == nil {
		return nil
	}
	overlay := &GraphOverlay{Values: res.Values()}
	for _, s := range analysis.Path(res) {
		overlay.OptimalPath = append(overlay.OptimalPath, s.NodeID)
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a list of nodes.
// It applies semantic styling:
// - Decision: [Rectangle]
// - Chance: ((Circle))
// - Terminal: [/Parallelogram/]
// Edges into uncertain events carry their probability.
// It also applies overlay styles (values and optimal path) if provided.
func GenerateMermaid(nodes []domain.Node, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	idx := domain.NewIndex(nodes)
	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Kind {
		case domain.KindChance:
			opener, closer = "((", "))"
		case domain.KindTerminal:
			opener, closer = "[/", "/]"
		}

		text := escapeLabel(node.Name)
		if text == "" {
			text = escapeLabel(node.ID)
		}
		if node.Kind == domain.KindTerminal && node.Utility != nil {
			text += " <br/> u=" + formatNumber(*node.Utility)
		}
		if overlay != nil {
			if ev, ok := overlay.Values[node.ID]; ok {
				text += " <br/> EV " + strconv.FormatFloat(ev, 'f', 2, 64)
			}
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, text, closer))

		if node.IsRoot() {
			continue
		}
		arrow := "-->"
		if domain.RoleOf(node, idx) == domain.RoleUncertain && node.Probability != nil {
			arrow = fmt.Sprintf("-- \"p=%s\" -->", formatNumber(*node.Probability))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(node.ParentID), arrow, safeID))
	}

	if overlay != nil && len(overlay.OptimalPath) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef optimal fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.OptimalPath {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s optimal;\n", safeID))
			}
		}
	}

	return sb.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
