package analysis

import (
	"fmt"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

// Result is the outcome of a successful evaluation.
type Result struct {
	ExpectedValue float64           `json:"expected_value"`
	RootID        string            `json:"root_id"`
	Breakdown     *domain.Breakdown `json:"breakdown"`
	Warnings      []Issue           `json:"warnings"`
}

// Values returns the expected value of every visited node keyed by ID.
func (r *Result) Values() map[string]float64 {
	out := make(map[string]float64)
	r.Breakdown.Walk(func(b *domain.Breakdown, _ int) bool {
		out[b.NodeID] = b.ExpectedValue
		return true
	})
	return out
}

// Evaluate validates nodes and, when the tree is well-formed, computes the expected
// value of every node reachable from the root.
//
// A nil collection yields domain.ErrNilInput. A tree that fails validation yields a
// *RejectedError carrying the report; evaluation never runs on it.
func Evaluate(nodes []domain.Node, opts ...Option) (*Result, error) {
	if nodes == nil {
		return nil, domain.ErrNilInput
	}

	cfg := newConfig(opts)
	start := time.Now()
	idx := domain.NewIndex(nodes)

	report := validate(idx, cfg)
	if !report.OK {
		cfg.logger.Debug("Evaluation rejected", "errors", len(report.Errors), "warnings", len(report.Warnings))
		cfg.emitEvaluated(&domain.EvaluationEvent{
			Timestamp: start,
			NodeCount: idx.Len(),
			Errors:    len(report.Errors),
			Warnings:  len(report.Warnings),
			Rejected:  true,
			Duration:  time.Since(start),
		})
		return nil, &RejectedError{Report: report}
	}

	root := idx.Roots()[0]
	w := &walker{idx: idx, cfg: cfg}
	breakdown, err := w.walk(root, 0)
	if err != nil {
		cfg.logger.Warn("Evaluation aborted", "root", root.ID, "err", err)
		return nil, err
	}

	res := &Result{
		ExpectedValue: breakdown.ExpectedValue,
		RootID:        root.ID,
		Breakdown:     breakdown,
		Warnings:      report.Warnings,
	}

	cfg.emitEvaluated(&domain.EvaluationEvent{
		Timestamp:     start,
		RootID:        root.ID,
		NodeCount:     idx.Len(),
		Warnings:      len(report.Warnings),
		ExpectedValue: res.ExpectedValue,
		Duration:      time.Since(start),
	})
	cfg.logger.Debug("Evaluation complete", "root", root.ID, "expected_value", res.ExpectedValue)

	return res, nil
}

func (c *config) emitEvaluated(e *domain.EvaluationEvent) {
	if c.hooks.OnEvaluated != nil {
		c.hooks.OnEvaluated(e)
	}
}

// walker performs the post-order walk. It holds no state shared between branches
// beyond the read-only index.
type walker struct {
	idx *domain.Index
	cfg *config
}

func (w *walker) walk(n domain.Node, depth int) (*domain.Breakdown, error) {
	if depth > w.cfg.maxDepth {
		return nil, fmt.Errorf("%w: node '%s' at depth %d exceeds limit %d", domain.ErrDepthExceeded, n.ID, depth, w.cfg.maxDepth)
	}

	role := domain.RoleOf(n, w.idx)
	b := &domain.Breakdown{
		NodeID: n.ID,
		Name:   n.Name,
		Kind:   n.Kind,
		Role:   role,
		Cost:   n.Cost,
	}
	if role == domain.RoleUncertain && n.Probability != nil {
		b.Probability = domain.Float(*n.Probability)
	}

	var op domain.Operation
	switch role {
	case domain.RoleTerminal:
		op = w.payoff(n, b)

	case domain.RoleDecision:
		children, err := w.children(n, b, depth)
		if err != nil {
			return nil, err
		}
		op = maxOf(children, n.Cost)

	case domain.RoleChoice:
		children, err := w.children(n, b, depth)
		if err != nil {
			return nil, err
		}
		op = weighted(children, n.Cost, 1)

	case domain.RoleUncertain:
		children, err := w.children(n, b, depth)
		if err != nil {
			return nil, err
		}
		if len(children) == 1 {
			op = domain.Operation{
				Op:     domain.OpPassThrough,
				Terms:  []domain.Term{term(children[0], 1)},
				Cost:   n.Cost,
				Result: children[0].ExpectedValue - n.Cost,
				Chosen: -1,
			}
		} else {
			op = weighted(children, n.Cost, equalShare(len(children)))
		}

	default:
		w.cfg.logger.Warn("Unrecognized node kind, counting as zero utility", "node_id", n.ID, "kind", n.Kind)
		b.Fallback = true
		op = domain.Operation{Op: domain.OpFallback, Cost: n.Cost, Result: -n.Cost, Chosen: -1}
	}

	if !finite(op.Result) {
		return nil, fmt.Errorf("%w: node '%s' evaluates to %v", domain.ErrNonFiniteResult, n.ID, op.Result)
	}

	b.Operation = op
	b.ExpectedValue = op.Result
	b.Trace = op.String()

	if w.cfg.hooks.OnNodeEvaluated != nil {
		w.cfg.hooks.OnNodeEvaluated(&domain.NodeEvaluatedEvent{
			Timestamp:     time.Now(),
			NodeID:        n.ID,
			Kind:          n.Kind,
			Role:          role,
			ExpectedValue: b.ExpectedValue,
			Fallback:      b.Fallback,
		})
	}

	return b, nil
}

func (w *walker) payoff(n domain.Node, b *domain.Breakdown) domain.Operation {
	u := 0.0
	if n.Utility != nil {
		u = *n.Utility
		b.Utility = domain.Float(u)
	}
	return domain.Operation{
		Op:      domain.OpPayoff,
		Utility: b.Utility,
		Cost:    n.Cost,
		Result:  u - n.Cost,
		Chosen:  -1,
	}
}

// children evaluates the direct children of n and attaches them to b.
func (w *walker) children(n domain.Node, b *domain.Breakdown, depth int) ([]*domain.Breakdown, error) {
	nodes := w.idx.Children(n.ID)
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]*domain.Breakdown, 0, len(nodes))
	for _, c := range nodes {
		cb, err := w.walk(c, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, cb)
	}
	b.Children = out
	return out, nil
}

func maxOf(children []*domain.Breakdown, cost float64) domain.Operation {
	if len(children) == 0 {
		return domain.Operation{Op: domain.OpEmpty, Cost: cost, Result: -cost, Chosen: -1}
	}
	op := domain.Operation{Op: domain.OpMax, Cost: cost, Terms: make([]domain.Term, len(children))}
	best := 0
	for i, c := range children {
		op.Terms[i] = term(c, 1)
		if c.ExpectedValue > children[best].ExpectedValue {
			best = i
		}
	}
	op.Chosen = best
	op.Result = children[best].ExpectedValue - cost
	return op
}

// weighted sums children, using each uncertain event's own probability and
// fallback for every other child.
func weighted(children []*domain.Breakdown, cost, fallback float64) domain.Operation {
	if len(children) == 0 {
		return domain.Operation{Op: domain.OpEmpty, Cost: cost, Result: -cost, Chosen: -1}
	}
	op := domain.Operation{Op: domain.OpWeightedSum, Cost: cost, Chosen: -1, Terms: make([]domain.Term, len(children))}
	var sum float64
	for i, c := range children {
		weight := fallback
		if c.Role == domain.RoleUncertain && c.Probability != nil {
			weight = *c.Probability
		}
		op.Terms[i] = term(c, weight)
		sum += weight * c.ExpectedValue
	}
	op.Result = sum - cost
	return op
}

func equalShare(n int) float64 {
	return 1 / float64(n)
}

func term(b *domain.Breakdown, weight float64) domain.Term {
	return domain.Term{NodeID: b.NodeID, Name: b.Name, Weight: weight, Value: b.ExpectedValue}
}
