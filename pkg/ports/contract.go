package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractTree(id string) *domain.Tree {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Tree{
		ID:        id,
		Name:      "Contract " + id,
		CreatedAt: now,
		UpdatedAt: now,
		Nodes: []domain.Node{
			{ID: id + "-root", Kind: domain.KindDecision, Name: "Root", Cost: 10},
			{ID: id + "-opt", ParentID: id + "-root", Kind: domain.KindChance, Name: "Option"},
			{ID: id + "-up", ParentID: id + "-opt", Kind: domain.KindChance, Name: "Up", Probability: domain.Float(0.6)},
			{ID: id + "-gain", ParentID: id + "-up", Kind: domain.KindTerminal, Name: "Gain", Utility: domain.Float(500)},
			{ID: id + "-down", ParentID: id + "-opt", Kind: domain.KindChance, Name: "Down", Probability: domain.Float(0.4)},
			{ID: id + "-loss", ParentID: id + "-down", Kind: domain.KindTerminal, Name: "Loss", Utility: domain.Float(-100)},
		},
	}
}

// RunTreeStoreContract runs a suite of tests to verify that a TreeStore implementation
// adheres to the defined interface contract.
func RunTreeStoreContract(t *testing.T, store TreeStore) {
	ctx := context.Background()
	treeID := "contract-tree-" + time.Now().Format("20060102150405")

	t.Run("Save and Get", func(t *testing.T) {
		tree := contractTree(treeID)

		err := store.SaveTree(ctx, tree)
		require.NoError(t, err, "SaveTree should not return error")

		loaded, err := store.GetTree(ctx, treeID)
		require.NoError(t, err, "GetTree should not return error")
		assert.Equal(t, tree.Name, loaded.Name)
		assert.True(t, tree.CreatedAt.Equal(loaded.CreatedAt))
		require.Len(t, loaded.Nodes, len(tree.Nodes))

		// Node order drives tie-breaking and must survive persistence.
		for i := range tree.Nodes {
			assert.Equal(t, tree.Nodes[i].ID, loaded.Nodes[i].ID)
		}
		require.NotNil(t, loaded.Nodes[2].Probability)
		assert.Equal(t, 0.6, *loaded.Nodes[2].Probability)
		require.NotNil(t, loaded.Nodes[5].Utility)
		assert.Equal(t, -100.0, *loaded.Nodes[5].Utility)
		assert.Nil(t, loaded.Nodes[0].Utility)
	})

	t.Run("No Aliasing", func(t *testing.T) {
		tree := contractTree(treeID + "-alias")
		require.NoError(t, store.SaveTree(ctx, tree))
		defer func() { _ = store.DeleteTree(ctx, tree.ID) }()

		tree.Nodes[0].Name = "mutated after save"
		loaded, err := store.GetTree(ctx, tree.ID)
		require.NoError(t, err)
		assert.Equal(t, "Root", loaded.Nodes[0].Name)

		loaded.Nodes[0].Name = "mutated after load"
		again, err := store.GetTree(ctx, tree.ID)
		require.NoError(t, err)
		assert.Equal(t, "Root", again.Nodes[0].Name)
	})

	t.Run("Overwrite", func(t *testing.T) {
		tree := contractTree(treeID)
		tree.Name = "Renamed"
		require.NoError(t, store.SaveTree(ctx, tree))

		loaded, err := store.GetTree(ctx, treeID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", loaded.Name)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.GetTree(ctx, "non-existent-"+treeID)
		assert.ErrorIs(t, err, domain.ErrTreeNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.SaveTree(ctx, contractTree(treeID)))

		err := store.DeleteTree(ctx, treeID)
		require.NoError(t, err, "DeleteTree should not return error")

		_, err = store.GetTree(ctx, treeID)
		assert.ErrorIs(t, err, domain.ErrTreeNotFound, "GetTree after DeleteTree should return ErrTreeNotFound")

		err = store.DeleteTree(ctx, treeID)
		assert.ErrorIs(t, err, domain.ErrTreeNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := treeID + "-1"
		id2 := treeID + "-2"
		require.NoError(t, store.SaveTree(ctx, contractTree(id1)))
		require.NoError(t, store.SaveTree(ctx, contractTree(id2)))

		defer func() {
			_ = store.DeleteTree(ctx, id1)
			_ = store.DeleteTree(ctx, id2)
		}()

		ids, err := store.ListTrees(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})

	t.Run("Concurrent Saves", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = store.SaveTree(ctx, contractTree(treeID+"-concurrent"))
			}()
		}
		wg.Wait()

		_, err := store.GetTree(ctx, treeID+"-concurrent")
		require.NoError(t, err)
		_ = store.DeleteTree(ctx, treeID+"-concurrent")
	})
}
