package dsl

import "github.com/aretw0/canopy/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Decision marks the node as a decision and sets its label.
func (n *NodeBuilder) Decision(name string) *NodeBuilder {
	n.node.Kind = domain.KindDecision
	n.node.Name = name
	return n
}

// Chance marks the node as a chance node and sets its label.
// Whether it acts as a choice or an uncertain event depends on its parent.
func (n *NodeBuilder) Chance(name string) *NodeBuilder {
	n.node.Kind = domain.KindChance
	n.node.Name = name
	return n
}

// Terminal marks the node as a leaf with the given payoff.
func (n *NodeBuilder) Terminal(name string, utility float64) *NodeBuilder {
	n.node.Kind = domain.KindTerminal
	n.node.Name = name
	n.node.Utility = domain.Float(utility)
	return n
}

// Name sets the display label.
func (n *NodeBuilder) Name(name string) *NodeBuilder {
	n.node.Name = name
	return n
}

// Kind sets an arbitrary kind. Useful to exercise unrecognised kinds.
func (n *NodeBuilder) Kind(kind domain.Kind) *NodeBuilder {
	n.node.Kind = kind
	return n
}

// Under attaches the node to a parent.
func (n *NodeBuilder) Under(parentID string) *NodeBuilder {
	n.node.ParentID = parentID
	return n
}

// Probability sets the probability consumed by the parent.
func (n *NodeBuilder) Probability(p float64) *NodeBuilder {
	n.node.Probability = domain.Float(p)
	return n
}

// Utility sets the payoff without changing the kind.
func (n *NodeBuilder) Utility(u float64) *NodeBuilder {
	n.node.Utility = domain.Float(u)
	return n
}

// Cost sets the cost subtracted at this node.
func (n *NodeBuilder) Cost(c float64) *NodeBuilder {
	n.node.Cost = c
	return n
}

// Describe sets the free-text description.
func (n *NodeBuilder) Describe(text string) *NodeBuilder {
	n.node.Description = text
	return n
}

// Meta adds a metadata entry.
func (n *NodeBuilder) Meta(key, value string) *NodeBuilder {
	if n.node.Metadata == nil {
		n.node.Metadata = make(map[string]string)
	}
	n.node.Metadata[key] = value
	return n
}

// Add starts the next node on the same builder.
func (n *NodeBuilder) Add(id string) *NodeBuilder {
	return n.builder.Add(id)
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}
