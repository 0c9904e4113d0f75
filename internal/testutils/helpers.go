package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// InvestTreeYAML is a small tree file whose root expected value is 250:
// paying 10 to invest returns 500 with p=0.6 or -100 with p=0.4.
const InvestTreeYAML = `id: invest
name: Invest
nodes:
  - id: root
    kind: decision
    name: Invest?
    cost: 10
  - id: bet
    parent_id: root
    kind: chance
    name: Invest
  - id: up
    parent_id: bet
    kind: chance
    name: Up
    probability: 0.6
  - id: gain
    parent_id: up
    kind: terminal
    name: Gain
    utility: 500
  - id: down
    parent_id: bet
    kind: chance
    name: Down
    probability: 0.4
  - id: loss
    parent_id: down
    kind: terminal
    name: Loss
    utility: -100
`

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteTreeFile writes content to dir/name and returns the full path.
func WriteTreeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "Failed to write tree file")
	return path
}
