package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// TreeStore defines the interface for persisting trees.
// Implementations must be safe for concurrent use and must not alias the caller's tree.
type TreeStore interface {
	TreeSource

	// SaveTree creates or replaces the tree with the same ID.
	SaveTree(ctx context.Context, tree *domain.Tree) error

	// DeleteTree removes a tree.
	// Returns domain.ErrTreeNotFound if the tree does not exist.
	DeleteTree(ctx context.Context, id string) error
}
