package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// MockStore is an in-memory implementation of TreeStore for testing purposes.
type MockStore struct {
	mu   sync.Mutex
	data map[string]*domain.Tree
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Tree),
	}
}

func (m *MockStore) GetTree(ctx context.Context, id string) (*domain.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tree, ok := m.data[id]
	if !ok {
		return nil, domain.ErrTreeNotFound
	}
	return tree.Clone(), nil
}

func (m *MockStore) ListTrees(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockStore) SaveTree(ctx context.Context, tree *domain.Tree) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Deep copy to simulate serialization
	m.data[tree.ID] = tree.Clone()
	return nil
}

func (m *MockStore) DeleteTree(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return domain.ErrTreeNotFound
	}
	delete(m.data, id)
	return nil
}

func TestTreeStore_Contract(t *testing.T) {
	ports.RunTreeStoreContract(t, NewMockStore())
}
