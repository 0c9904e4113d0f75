package trees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates tree access, ensuring safe concurrent mutations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.TreeStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator replaces the UUID generator, mostly for deterministic tests.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		m.now = fn
	}
}

// NewManager creates a new tree Manager with the given persistence store.
func NewManager(store ports.TreeStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying tree store.
func (m *Manager) Store() ports.TreeStore {
	return m.store
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(treeID) after unlocking.
func (m *Manager) acquire(treeID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[treeID]
	if !exists {
		entry = &lockEntry{}
		m.locks[treeID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(treeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[treeID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, treeID)
	}
}

// WithLock executes a function while holding the lock for the tree.
func (m *Manager) WithLock(ctx context.Context, treeID string, fn func(context.Context) error) error {
	entry := m.acquire(treeID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(treeID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, treeID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"tree_id", treeID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// mutate loads a tree under its lock, applies fn and saves the result.
func (m *Manager) mutate(ctx context.Context, treeID string, fn func(*domain.Tree) error) (*domain.Tree, error) {
	var out *domain.Tree
	err := m.WithLock(ctx, treeID, func(ctx context.Context) error {
		tree, err := m.store.GetTree(ctx, treeID)
		if err != nil {
			return err
		}
		if err := fn(tree); err != nil {
			return err
		}
		tree.UpdatedAt = m.now()
		if err := m.store.SaveTree(ctx, tree); err != nil {
			return fmt.Errorf("failed to save tree %s: %w", treeID, err)
		}
		out = tree
		return nil
	})
	return out, err
}

// CreateTree stores a new tree, with a root node when one is given.
func (m *Manager) CreateTree(ctx context.Context, in TreeInput) (*domain.Tree, error) {
	if err := check(in); err != nil {
		return nil, err
	}

	now := m.now()
	tree := &domain.Tree{
		ID:          m.newID(),
		Name:        in.Name,
		Description: in.Description,
		IsTemplate:  in.IsTemplate,
		IsPublic:    in.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
		Nodes:       []domain.Node{},
	}
	if in.Root != nil {
		tree.Nodes = append(tree.Nodes, domain.Node{
			ID:          m.newID(),
			Kind:        domain.Kind(in.Root.Kind),
			Name:        in.Root.Name,
			Description: in.Root.Description,
			PositionX:   in.Root.PositionX,
			PositionY:   in.Root.PositionY,
		})
	}

	if err := m.store.SaveTree(ctx, tree); err != nil {
		return nil, fmt.Errorf("failed to create tree: %w", err)
	}
	m.logger.Debug("Tree created", "tree_id", tree.ID, "nodes", len(tree.Nodes))
	return tree, nil
}

// GetTree delegates to the store.
func (m *Manager) GetTree(ctx context.Context, id string) (*domain.Tree, error) {
	return m.store.GetTree(ctx, id)
}

// ListTrees loads every stored tree. Trees that vanish mid-listing are skipped.
func (m *Manager) ListTrees(ctx context.Context) ([]*domain.Tree, error) {
	ids, err := m.store.ListTrees(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Tree, 0, len(ids))
	for _, id := range ids {
		tree, err := m.store.GetTree(ctx, id)
		if errors.Is(err, domain.ErrTreeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, tree)
	}
	return out, nil
}

// UpdateTree applies a metadata patch.
func (m *Manager) UpdateTree(ctx context.Context, id string, patch TreePatch) (*domain.Tree, error) {
	if err := check(patch); err != nil {
		return nil, err
	}
	return m.mutate(ctx, id, func(t *domain.Tree) error {
		if patch.Name != nil {
			t.Name = *patch.Name
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.IsTemplate != nil {
			t.IsTemplate = *patch.IsTemplate
		}
		if patch.IsPublic != nil {
			t.IsPublic = *patch.IsPublic
		}
		return nil
	})
}

// DeleteTree removes a tree with all its nodes.
func (m *Manager) DeleteTree(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.DeleteTree(ctx, id)
	})
}

// DuplicateTree copies a tree under fresh IDs, remapping every parent link.
// The copy is never a template nor public.
func (m *Manager) DuplicateTree(ctx context.Context, id, newName string) (*domain.Tree, error) {
	if newName == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	src, err := m.store.GetTree(ctx, id)
	if err != nil {
		return nil, err
	}

	desc := src.Description
	if desc == "" {
		desc = src.Name
	}
	now := m.now()
	dup := &domain.Tree{
		ID:          m.newID(),
		Name:        newName,
		Description: "Copy of " + desc,
		CreatedAt:   now,
		UpdatedAt:   now,
		Nodes:       domain.CloneNodes(src.Nodes),
	}
	if dup.Nodes == nil {
		dup.Nodes = []domain.Node{}
	}

	mapping := make(map[string]string, len(dup.Nodes))
	for i := range dup.Nodes {
		fresh := m.newID()
		mapping[dup.Nodes[i].ID] = fresh
		dup.Nodes[i].ID = fresh
	}
	for i := range dup.Nodes {
		if dup.Nodes[i].ParentID != "" {
			dup.Nodes[i].ParentID = mapping[dup.Nodes[i].ParentID]
		}
	}

	if err := m.store.SaveTree(ctx, dup); err != nil {
		return nil, fmt.Errorf("failed to save duplicate: %w", err)
	}
	return dup, nil
}

// AddNode appends a node to a tree. The parent, when given, must belong to the same tree.
func (m *Manager) AddNode(ctx context.Context, treeID string, in NodeInput) (domain.Node, error) {
	if err := check(in); err != nil {
		return domain.Node{}, err
	}

	var added domain.Node
	_, err := m.mutate(ctx, treeID, func(t *domain.Tree) error {
		if in.ParentID != "" {
			if _, ok := t.Node(in.ParentID); !ok {
				return fmt.Errorf("%w: %s", domain.ErrInvalidParent, in.ParentID)
			}
		}
		added = in.node(m.newID())
		t.Nodes = append(t.Nodes, added)
		return nil
	})
	return added.Clone(), err
}

// UpdateNode replaces a node's fields. The parent link is kept; use MoveNode to change it.
func (m *Manager) UpdateNode(ctx context.Context, treeID, nodeID string, in NodeInput) (domain.Node, error) {
	if err := check(in); err != nil {
		return domain.Node{}, err
	}

	var updated domain.Node
	_, err := m.mutate(ctx, treeID, func(t *domain.Tree) error {
		i := position(t, nodeID)
		if i < 0 {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
		}
		n := in.node(nodeID)
		n.ParentID = t.Nodes[i].ParentID
		t.Nodes[i] = n
		updated = n
		return nil
	})
	return updated.Clone(), err
}

// DeleteNode removes a node and all of its descendants. It returns the removed IDs.
func (m *Manager) DeleteNode(ctx context.Context, treeID, nodeID string) ([]string, error) {
	var removed []string
	_, err := m.mutate(ctx, treeID, func(t *domain.Tree) error {
		if position(t, nodeID) < 0 {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
		}
		removed = append([]string{nodeID}, domain.NewIndex(t.Nodes).Descendants(nodeID)...)

		drop := make(map[string]bool, len(removed))
		for _, id := range removed {
			drop[id] = true
		}
		kept := t.Nodes[:0]
		for _, n := range t.Nodes {
			if !drop[n.ID] {
				kept = append(kept, n)
			}
		}
		t.Nodes = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// MoveNode reparents a node and updates its position.
// Moving a node under itself or one of its descendants fails with domain.ErrCircularMove.
func (m *Manager) MoveNode(ctx context.Context, treeID, nodeID string, in MoveInput) (domain.Node, error) {
	var moved domain.Node
	_, err := m.mutate(ctx, treeID, func(t *domain.Tree) error {
		i := position(t, nodeID)
		if i < 0 {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
		}
		if in.ParentID != "" {
			if _, ok := t.Node(in.ParentID); !ok {
				return fmt.Errorf("%w: %s", domain.ErrInvalidParent, in.ParentID)
			}
			if in.ParentID == nodeID {
				return domain.ErrCircularMove
			}
			for _, d := range domain.NewIndex(t.Nodes).Descendants(nodeID) {
				if d == in.ParentID {
					return domain.ErrCircularMove
				}
			}
		}
		t.Nodes[i].ParentID = in.ParentID
		t.Nodes[i].PositionX = in.PositionX
		t.Nodes[i].PositionY = in.PositionY
		moved = t.Nodes[i]
		return nil
	})
	return moved.Clone(), err
}

func position(t *domain.Tree, nodeID string) int {
	for i, n := range t.Nodes {
		if n.ID == nodeID {
			return i
		}
	}
	return -1
}
