package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// Store implements ports.TreeStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Tree
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Tree),
	}
}

// NewFromTrees creates a store pre-loaded with trees.
// This is handy for tests and for the CLI when reading a single file.
func NewFromTrees(trees ...*domain.Tree) *Store {
	s := NewStore()
	for _, t := range trees {
		s.data[t.ID] = t.Clone()
	}
	return s
}

// SaveTree persists the tree in memory.
func (s *Store) SaveTree(ctx context.Context, tree *domain.Tree) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := tree.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[tree.ID] = copied
	return nil
}

// GetTree retrieves the tree from memory.
func (s *Store) GetTree(ctx context.Context, id string) (*domain.Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, ok := s.data[id]
	if !ok {
		return nil, domain.ErrTreeNotFound
	}

	// Create a copy on read so caller can't mutate store state directly by pointer
	return tree.Clone(), nil
}

// DeleteTree removes the tree.
func (s *Store) DeleteTree(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return domain.ErrTreeNotFound
	}
	delete(s.data, id)
	return nil
}

// ListTrees returns stored tree IDs in sorted order.
func (s *Store) ListTrees(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids, nil
}
