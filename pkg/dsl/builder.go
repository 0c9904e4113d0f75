package dsl

import (
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

// Builder manages the tree construction.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new tree builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the tree.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID: id,
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build returns the nodes in insertion order. Each call returns a fresh copy.
func (b *Builder) Build() []domain.Node {
	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].node.Clone())
	}
	return nodes
}

// Tree wraps the built nodes in a storage aggregate.
func (b *Builder) Tree(id, name string) *domain.Tree {
	now := time.Now().UTC()
	return &domain.Tree{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Nodes:     b.Build(),
	}
}
