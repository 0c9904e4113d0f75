package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/canopy/pkg/domain"
)

// Sweep fields.
const (
	FieldUtility = "utility"
	FieldCost    = "cost"
)

// ErrInvalidSweep is returned for a malformed sweep definition.
var ErrInvalidSweep = errors.New("invalid sensitivity sweep")

// Sweep varies one numeric field of one node over an inclusive linear range.
type Sweep struct {
	NodeID string  `json:"node_id"`
	Field  string  `json:"field"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Steps  int     `json:"steps"`
}

// Point is the tree's expected value for one input value.
type Point struct {
	Input         float64 `json:"input"`
	ExpectedValue float64 `json:"expected_value"`
	// BestChoice is the option picked at the root decision, empty when the root is not a decision.
	BestChoice string `json:"best_choice,omitempty"`
}

// Values returns the evenly spaced inputs of the sweep, both ends included.
func (s Sweep) Values() []float64 {
	if s.Steps <= 1 {
		return []float64{s.Min}
	}
	out := make([]float64, s.Steps)
	span := s.Max - s.Min
	for i := range out {
		out[i] = s.Min + span*float64(i)/float64(s.Steps-1)
	}
	return out
}

func (s Sweep) validate(nodes []domain.Node) error {
	if s.Field != FieldUtility && s.Field != FieldCost {
		return fmt.Errorf("%w: field must be %q or %q, got %q", ErrInvalidSweep, FieldUtility, FieldCost, s.Field)
	}
	if s.Steps < 1 {
		return fmt.Errorf("%w: steps must be positive", ErrInvalidSweep)
	}
	if s.Max < s.Min {
		return fmt.Errorf("%w: max %g is below min %g", ErrInvalidSweep, s.Max, s.Min)
	}
	for _, n := range nodes {
		if n.ID != s.NodeID {
			continue
		}
		if s.Field == FieldUtility && n.Kind != domain.KindTerminal {
			return fmt.Errorf("%w: utility sweeps need a terminal node, '%s' is %s", ErrInvalidSweep, n.ID, n.Kind)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, s.NodeID)
}

// Sensitivity re-evaluates the tree once per sweep value. Each point works on its own
// copy of nodes; the input is never modified. Points come back in sweep order.
func Sensitivity(ctx context.Context, nodes []domain.Node, sweep Sweep, opts ...Option) ([]Point, error) {
	if nodes == nil {
		return nil, domain.ErrNilInput
	}
	if err := sweep.validate(nodes); err != nil {
		return nil, err
	}

	// Reject invalid trees once, up front, instead of once per point.
	if report := Validate(nodes, opts...); !report.OK {
		return nil, &RejectedError{Report: report}
	}

	values := sweep.Values()
	points := make([]Point, len(values))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, v := range values {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			variant := withValue(nodes, sweep, v)
			res, err := Evaluate(variant, opts...)
			if err != nil {
				return fmt.Errorf("evaluating %s=%g: %w", sweep.Field, v, err)
			}
			points[i] = Point{Input: v, ExpectedValue: res.ExpectedValue}
			if res.Breakdown.Role == domain.RoleDecision {
				if best, _ := res.Breakdown.Best(); best != nil {
					points[i].BestChoice = best.Name
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func withValue(nodes []domain.Node, sweep Sweep, v float64) []domain.Node {
	out := domain.CloneNodes(nodes)
	for i := range out {
		if out[i].ID != sweep.NodeID {
			continue
		}
		switch sweep.Field {
		case FieldUtility:
			out[i].Utility = domain.Float(v)
		case FieldCost:
			out[i].Cost = v
		}
	}
	return out
}
