package analysis

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// Step actions used by Path.
const (
	ActionStart    = "start"
	ActionChoose   = "choose"
	ActionOutcome  = "outcome"
	ActionContinue = "continue"
)

// PathStep is one line of the optimal path walk.
type PathStep struct {
	Depth         int         `json:"depth"`
	NodeID        string      `json:"node_id"`
	Name          string      `json:"name"`
	Kind          domain.Kind `json:"kind"`
	Action        string      `json:"action"`
	ExpectedValue float64     `json:"expected_value"`
	Probability   *float64    `json:"probability,omitempty"`
}

// String renders the step with two spaces of indentation per depth level.
func (s PathStep) String() string {
	indent := strings.Repeat("  ", s.Depth)
	switch s.Action {
	case ActionStart:
		return fmt.Sprintf("%sStart: %s (EV: %.2f)", indent, s.Name, s.ExpectedValue)
	case ActionChoose:
		return fmt.Sprintf("%s→ Choose: %s (EV: %.2f)", indent, s.Name, s.ExpectedValue)
	case ActionOutcome:
		if s.Probability != nil {
			return fmt.Sprintf("%s• %s (p=%g, EV: %.2f)", indent, s.Name, *s.Probability, s.ExpectedValue)
		}
		return fmt.Sprintf("%s• %s (EV: %.2f)", indent, s.Name, s.ExpectedValue)
	default:
		return fmt.Sprintf("%s↳ Follow: %s (EV: %.2f)", indent, s.Name, s.ExpectedValue)
	}
}

// Path walks the breakdown from the root, following the best child at every decision
// and listing every outcome of a chance node before continuing into its best child.
// Ties go to the first child in input order.
func Path(res *Result) []PathStep {
	if res == nil || res.Breakdown == nil {
		return nil
	}
	root := res.Breakdown
	steps := []PathStep{step(root, 0, ActionStart)}

	cur, depth := root, 1
	for len(cur.Children) > 0 && cur.Role != domain.RoleTerminal {
		best, _ := cur.Best()
		switch cur.Role {
		case domain.RoleDecision:
			steps = append(steps, step(best, depth, ActionChoose))
		default:
			for _, c := range cur.Children {
				steps = append(steps, step(c, depth, ActionOutcome))
			}
			if len(cur.Children) > 1 && best.Role != domain.RoleTerminal && len(best.Children) > 0 {
				steps = append(steps, step(best, depth, ActionContinue))
			}
		}
		cur = best
		depth++
	}
	return steps
}

func step(b *domain.Breakdown, depth int, action string) PathStep {
	return PathStep{
		Depth:         depth,
		NodeID:        b.NodeID,
		Name:          b.Name,
		Kind:          b.Kind,
		Action:        action,
		ExpectedValue: b.ExpectedValue,
		Probability:   b.Probability,
	}
}

// OptimalPath renders Path as human-readable lines.
func OptimalPath(res *Result) []string {
	steps := Path(res)
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.String()
	}
	return out
}

// Summary aggregates counts and the optimal path of an evaluated tree.
type Summary struct {
	TotalNodes    int      `json:"total_nodes"`
	DecisionNodes int      `json:"decision_nodes"`
	ChanceNodes   int      `json:"chance_nodes"`
	TerminalNodes int      `json:"terminal_nodes"`
	ExpectedValue float64  `json:"expected_value"`
	OptimalPath   []string `json:"optimal_path"`
}

// Summarize counts the evaluated nodes by kind.
func Summarize(res *Result) Summary {
	s := Summary{OptimalPath: OptimalPath(res)}
	if res == nil || res.Breakdown == nil {
		return s
	}
	s.ExpectedValue = res.ExpectedValue
	res.Breakdown.Walk(func(b *domain.Breakdown, _ int) bool {
		s.TotalNodes++
		switch b.Kind {
		case domain.KindDecision:
			s.DecisionNodes++
		case domain.KindChance:
			s.ChanceNodes++
		case domain.KindTerminal:
			s.TerminalNodes++
		}
		return true
	})
	return s
}
