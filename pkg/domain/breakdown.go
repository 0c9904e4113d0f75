package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OpKind tags the arithmetic performed at a node.
type OpKind string

const (
	OpPayoff      OpKind = "payoff"       // terminal: utility - cost
	OpMax         OpKind = "max"          // decision: best child - cost
	OpWeightedSum OpKind = "weighted_sum" // chance with several contributions
	OpPassThrough OpKind = "pass_through" // uncertain event with a single child
	OpEmpty       OpKind = "empty"        // decision without options
	OpFallback    OpKind = "fallback"     // unrecognised kind, counts as zero
)

// Term is one operand of a max or weighted sum.
type Term struct {
	NodeID string  `json:"node_id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// Operation is the structured record of how a node's expected value was computed.
// It has no semantic role in the numeric result.
type Operation struct {
	Op      OpKind   `json:"op"`
	Terms   []Term   `json:"terms,omitempty"`
	Utility *float64 `json:"utility,omitempty"`
	Cost    float64  `json:"cost"`
	Result  float64  `json:"result"`
	// Chosen is the index of the winning term for OpMax, -1 otherwise.
	Chosen int `json:"chosen"`
}

// String renders the operation as arithmetic, e.g.
// "EV = 0.7 × 120.00 + 0.3 × (-40.00) - 5 (cost) = 67.00".
// Rounding here is cosmetic only.
func (o Operation) String() string {
	var lhs string
	switch o.Op {
	case OpPayoff:
		u := 0.0
		if o.Utility != nil {
			u = *o.Utility
		}
		lhs = fmt.Sprintf("%s (utility)", formatValue(u))
	case OpMax:
		parts := make([]string, len(o.Terms))
		for i, t := range o.Terms {
			parts[i] = fmt.Sprintf("%s: %.2f", t.Name, t.Value)
		}
		lhs = fmt.Sprintf("max(%s)", strings.Join(parts, ", "))
	case OpWeightedSum:
		parts := make([]string, len(o.Terms))
		for i, t := range o.Terms {
			parts[i] = fmt.Sprintf("%s × %s", formatWeight(t.Weight), formatValue(t.Value))
		}
		lhs = strings.Join(parts, " + ")
	case OpPassThrough:
		if len(o.Terms) == 1 {
			lhs = formatValue(o.Terms[0].Value)
		}
	case OpEmpty:
		lhs = "0 (no options)"
	default:
		lhs = "0 (unknown kind)"
	}
	return fmt.Sprintf("EV = %s - %s (cost) = %.2f", lhs, strconv.FormatFloat(o.Cost, 'f', -1, 64), o.Result)
}

func formatValue(v float64) string {
	if v < 0 {
		return fmt.Sprintf("(%.2f)", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(math.Round(w*1e4)/1e4, 'f', -1, 64)
}

// Breakdown is the per-node computation trace, mirroring the evaluated tree.
type Breakdown struct {
	NodeID        string   `json:"node_id"`
	Name          string   `json:"name"`
	Kind          Kind     `json:"kind"`
	Role          Role     `json:"role"`
	ExpectedValue float64  `json:"expected_value"`
	Utility       *float64 `json:"utility,omitempty"`
	Probability   *float64 `json:"probability,omitempty"`
	Cost          float64  `json:"cost"`

	Operation Operation `json:"operation"`
	Trace     string    `json:"trace,omitempty"`
	// Fallback is set when the node's kind was not recognised.
	Fallback bool `json:"fallback,omitempty"`

	Children []*Breakdown `json:"children,omitempty"`
}

// Walk visits b and its descendants in pre-order. Returning false skips the subtree.
func (b *Breakdown) Walk(fn func(b *Breakdown, depth int) bool) {
	b.walk(fn, 0)
}

func (b *Breakdown) walk(fn func(*Breakdown, int) bool, depth int) {
	if b == nil || !fn(b, depth) {
		return
	}
	for _, c := range b.Children {
		c.walk(fn, depth+1)
	}
}

// Best returns the child with the highest expected value; ties go to the first one.
func (b *Breakdown) Best() (*Breakdown, int) {
	best, at := (*Breakdown)(nil), -1
	for i, c := range b.Children {
		if best == nil || c.ExpectedValue > best.ExpectedValue {
			best, at = c, i
		}
	}
	return best, at
}
