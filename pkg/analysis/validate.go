package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// Issue codes reported by Validate.
const (
	CodeEmptyTree          = "empty_tree"
	CodeNoRoot             = "no_root"
	CodeMultipleRoots      = "multiple_roots"
	CodeDuplicateID        = "duplicate_id"
	CodeInvalidParent      = "invalid_parent"
	CodeCycle              = "cycle"
	CodeUnknownKind        = "unknown_kind"
	CodeNonFinite          = "non_finite"
	CodeMissingUtility     = "missing_utility"
	CodeTerminalProb       = "terminal_probability"
	CodeTerminalChildren   = "terminal_children"
	CodeNoChildren         = "no_children"
	CodeMissingProbability = "missing_probability"
	CodeProbabilityRange   = "probability_range"
	CodeProbabilitySum     = "probability_sum"
	CodeIgnoredField       = "ignored_field"
	CodeEmptyDecision      = "empty_decision"
	CodeUnusualChild       = "unusual_child"
	CodeNegativeCost       = "negative_cost"
	CodeEmptyName          = "empty_name"
)

// Issue is a single validation finding.
type Issue struct {
	NodeID  string `json:"node_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Message
}

// Report is the outcome of Validate. Warnings never block evaluation; errors always do.
type Report struct {
	OK        bool    `json:"ok"`
	Errors    []Issue `json:"errors"`
	Warnings  []Issue `json:"warnings"`
	NodeCount int     `json:"node_count"`
	RootCount int     `json:"root_count"`
}

// ErrorMessages returns the error messages in report order.
func (r Report) ErrorMessages() []string {
	return messages(r.Errors)
}

// WarningMessages returns the warning messages in report order.
func (r Report) WarningMessages() []string {
	return messages(r.Warnings)
}

func messages(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Message
	}
	return out
}

func (r *Report) fail(nodeID, code, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{NodeID: nodeID, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warn(nodeID, code, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{NodeID: nodeID, Code: code, Message: fmt.Sprintf(format, args...)})
}

// RejectedError is returned by Evaluate when the tree does not pass validation.
type RejectedError struct {
	Report Report
}

func (e *RejectedError) Error() string {
	msgs := e.Report.ErrorMessages()
	if len(msgs) == 1 {
		return "tree rejected: " + msgs[0]
	}
	return fmt.Sprintf("tree rejected with %d errors:\n- %s", len(msgs), strings.Join(msgs, "\n- "))
}

// Validate inspects a flat node collection and reports structural and semantic problems.
// It never alters the input.
func Validate(nodes []domain.Node, opts ...Option) Report {
	return validate(domain.NewIndex(nodes), newConfig(opts))
}

func validate(idx *domain.Index, cfg *config) Report {
	r := Report{
		NodeCount: idx.Len(),
		Errors:    []Issue{},
		Warnings:  []Issue{},
	}

	if idx.Len() == 0 {
		r.fail("", CodeEmptyTree, "Tree has no nodes")
		return r
	}

	roots := idx.Roots()
	r.RootCount = len(roots)
	switch {
	case len(roots) == 0:
		r.fail("", CodeNoRoot, "Tree has no root node")
	case len(roots) > 1 && cfg.rootPolicy == RootPolicyFirst:
		r.warn(roots[0].ID, CodeMultipleRoots, "Tree has %d root nodes; evaluating from '%s'", len(roots), roots[0].Name)
	case len(roots) > 1:
		r.fail("", CodeMultipleRoots, "Tree has %d root nodes (exactly one is required)", len(roots))
	}

	for _, id := range idx.Duplicates {
		r.fail(id, CodeDuplicateID, "Node id '%s' is used more than once", id)
	}
	nodes := idx.Nodes()
	for _, pos := range idx.Dangling {
		n := nodes[pos]
		r.fail(n.ID, CodeInvalidParent, "Node '%s' has invalid parent reference '%s'", n.Name, n.ParentID)
	}

	for _, n := range nodes {
		validateNode(&r, idx, n)
	}

	checked := make(map[string]bool, idx.Len())
	for _, n := range nodes {
		if checked[n.ID] {
			continue
		}
		checked[n.ID] = true
		validateSiblingSum(&r, idx, n)
	}

	r.OK = len(r.Errors) == 0
	return r
}

func validateNode(r *Report, idx *domain.Index, n domain.Node) {
	if idx.InCycle(n) {
		r.fail(n.ID, CodeCycle, "Node '%s' is part of a parent cycle", n.Name)
	}
	if n.Name == "" {
		r.warn(n.ID, CodeEmptyName, "Node '%s' has an empty name", n.ID)
	}
	if !finite(n.Cost) || (n.Probability != nil && !finite(*n.Probability)) || (n.Utility != nil && !finite(*n.Utility)) {
		r.fail(n.ID, CodeNonFinite, "Node '%s' has a non-finite numeric field", n.Name)
	}

	children := idx.Children(n.ID)

	switch domain.RoleOf(n, idx) {
	case domain.RoleTerminal:
		if n.Utility == nil {
			r.fail(n.ID, CodeMissingUtility, "Terminal node '%s' is missing utility value", n.Name)
		}
		if n.Probability != nil {
			r.fail(n.ID, CodeTerminalProb, "Terminal node '%s' must not carry a probability (it belongs to the parent's relationship)", n.Name)
		}
		if len(children) > 0 {
			r.warn(n.ID, CodeTerminalChildren, "Terminal node '%s' has children (they will be ignored)", n.Name)
		}

	case domain.RoleChoice:
		if len(children) == 0 {
			r.fail(n.ID, CodeNoChildren, "Chance node '%s' has no children - cannot calculate expected value", n.Name)
		}
		if n.Probability != nil {
			r.warn(n.ID, CodeIgnoredField, "Chance node '%s' has probability but represents a choice (probability not needed)", n.Name)
		}
		if n.Utility != nil {
			r.warn(n.ID, CodeIgnoredField, "Chance node '%s' has utility but chance nodes should not have utilities", n.Name)
		}

	case domain.RoleUncertain:
		if len(children) == 0 {
			r.fail(n.ID, CodeNoChildren, "Chance node '%s' has no children - cannot calculate expected value", n.Name)
		}
		// Nothing consumes the probability of a root event.
		if !n.IsRoot() {
			if n.Probability == nil {
				parentName := n.ParentID
				if p, ok := idx.Parent(n); ok {
					parentName = p.Name
				}
				r.fail(n.ID, CodeMissingProbability, "Chance node '%s' needs probability (child of '%s')", n.Name, parentName)
			} else if p := *n.Probability; p < 0 || p > 1 {
				r.fail(n.ID, CodeProbabilityRange, "Chance node '%s' has invalid probability: %g (must be 0-1)", n.Name, p)
			}
		}
		if n.Utility != nil {
			r.warn(n.ID, CodeIgnoredField, "Chance node '%s' has utility but chance nodes should not have utilities", n.Name)
		}

	case domain.RoleDecision:
		if len(children) == 0 {
			r.warn(n.ID, CodeEmptyDecision, "Decision node '%s' has no choices to decide between", n.Name)
		}
		if n.Probability != nil {
			r.warn(n.ID, CodeIgnoredField, "Decision node '%s' has probability but decisions don't have probabilities", n.Name)
		}
		if n.Utility != nil {
			r.warn(n.ID, CodeIgnoredField, "Decision node '%s' has utility but decisions don't have utilities", n.Name)
		}
		for _, c := range children {
			if c.Kind != domain.KindChance {
				r.warn(n.ID, CodeUnusualChild, "Decision node '%s' has non-chance child '%s' - this is unusual in decision trees", n.Name, c.Name)
				break
			}
		}

	default:
		r.fail(n.ID, CodeUnknownKind, "Node '%s' has unrecognized type '%s'", n.Name, n.Kind)
	}

	if n.Cost < 0 {
		r.warn(n.ID, CodeNegativeCost, "Node '%s' has negative cost: %g", n.Name, n.Cost)
	}
}

// validateSiblingSum checks the uncertain-event children of parent. Choice siblings
// are excluded, and the sum is only checked when no sibling lacks a probability.
func validateSiblingSum(r *Report, idx *domain.Index, parent domain.Node) {
	var (
		sum     float64
		events  int
		missing bool
	)
	for _, c := range idx.Children(parent.ID) {
		if domain.RoleOf(c, idx) != domain.RoleUncertain {
			continue
		}
		events++
		if c.Probability == nil {
			missing = true
			continue
		}
		sum += *c.Probability
	}

	if events == 0 || missing {
		return
	}
	// The epsilon absorbs float error so that 0.999 is accepted at the boundary.
	if math.Abs(sum-1) > ProbabilityTolerance+1e-9 {
		r.fail(parent.ID, CodeProbabilitySum, "Children of '%s' have probabilities that sum to %.3f, should sum to 1.0", parent.Name, sum)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
