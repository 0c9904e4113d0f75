package tests

import (
	"context"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// TreeSourceContractTest is a reusable test suite that verifies if a read-only adapter complies with ports.TreeSource.
// want maps each stored tree ID to the node IDs it must contain, in order.
func TreeSourceContractTest(t *testing.T, source ports.TreeSource, want map[string][]string) {
	t.Helper()
	ctx := context.Background()

	// 1. Test GetTree (Success)
	t.Run("GetTree_Success", func(t *testing.T) {
		for id, nodeIDs := range want {
			tree, err := source.GetTree(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting tree %s: %v", id, err)
			}
			if tree.ID != id {
				t.Errorf("tree id mismatch: got %q, want %q", tree.ID, id)
			}
			if len(tree.Nodes) != len(nodeIDs) {
				t.Fatalf("tree %s: expected %d nodes, got %d", id, len(nodeIDs), len(tree.Nodes))
			}
			for i, n := range tree.Nodes {
				if n.ID != nodeIDs[i] {
					t.Errorf("tree %s: node %d is %q, want %q", id, i, n.ID, nodeIDs[i])
				}
			}
		}
	})

	// 2. Test GetTree (NotFound)
	t.Run("GetTree_NotFound", func(t *testing.T) {
		_, err := source.GetTree(ctx, "non-existent-tree")
		if err == nil {
			t.Error("expected error for non-existent tree, got nil")
		}
	})

	// 3. Test ListTrees
	t.Run("ListTrees", func(t *testing.T) {
		ids, err := source.ListTrees(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing trees: %v", err)
		}

		if len(ids) != len(want) {
			t.Errorf("expected %d trees, got %d", len(want), len(ids))
		}

		// Verify all expected IDs are present
		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}

		for id := range want {
			if !lookup[id] {
				t.Errorf("tree %s missing from list", id)
			}
		}
	})
}
