package domain

import "time"

// Kind is the declared type of a node.
type Kind string

// Kind constants define how a node contributes to the expected value.
const (
	// KindDecision is a choice controlled by the decision-maker (max of its options).
	KindDecision Kind = "decision"
	// KindChance is either a choice option or an uncertain event, depending on its parent.
	KindChance Kind = "chance"
	// KindTerminal is a leaf carrying a final payoff.
	KindTerminal Kind = "terminal"
)

// Known reports whether k is one of the recognised kinds.
func (k Kind) Known() bool {
	switch k {
	case KindDecision, KindChance, KindTerminal:
		return true
	}
	return false
}

// Node represents a single element of a decision tree.
// Children are never stored; they are derived from ParentID links.
type Node struct {
	ID       string `json:"id" yaml:"id"`
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Kind     Kind   `json:"kind" yaml:"kind"`
	Name     string `json:"name" yaml:"name"`

	// Probability is consumed by the parent when this node is an uncertain event.
	Probability *float64 `json:"probability,omitempty" yaml:"probability,omitempty"`
	Cost        float64  `json:"cost,omitempty" yaml:"cost,omitempty"`
	// Utility is the payoff of a terminal node.
	Utility *float64 `json:"utility,omitempty" yaml:"utility,omitempty"`

	// Presentation data, ignored by the engine.
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	PositionX   int               `json:"position_x,omitempty" yaml:"position_x,omitempty"`
	PositionY   int               `json:"position_y,omitempty" yaml:"position_y,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.ParentID == ""
}

// Clone returns a deep copy of the node so callers can never alias pointer fields.
func (n Node) Clone() Node {
	c := n
	if n.Probability != nil {
		c.Probability = Float(*n.Probability)
	}
	if n.Utility != nil {
		c.Utility = Float(*n.Utility)
	}
	if n.Metadata != nil {
		c.Metadata = make(map[string]string, len(n.Metadata))
		for k, v := range n.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// CloneNodes deep copies a node slice.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Float returns a pointer to v. Handy for optional fields.
func Float(v float64) *float64 {
	return &v
}

// Tree is the storage aggregate for one decision model.
type Tree struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	IsTemplate  bool      `json:"is_template" yaml:"is_template"`
	IsPublic    bool      `json:"is_public" yaml:"is_public"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
	Nodes       []Node    `json:"nodes" yaml:"nodes"`
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	c := *t
	c.Nodes = CloneNodes(t.Nodes)
	return &c
}

// Node returns the node with the given ID.
func (t *Tree) Node(id string) (Node, bool) {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
