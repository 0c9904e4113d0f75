package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// TreeSource defines how the engine retrieves stored trees.
// This allows the storage layer (Loam, FS, Memory, Redis) to be decoupled.
type TreeSource interface {
	// GetTree retrieves a tree by ID.
	// Returns domain.ErrTreeNotFound if the tree does not exist.
	GetTree(ctx context.Context, id string) (*domain.Tree, error)

	// ListTrees returns the IDs of all available trees.
	ListTrees(ctx context.Context) ([]string, error)
}
