package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ErrInvalidID is returned for tree IDs that cannot be used as file names.
var ErrInvalidID = errors.New("invalid tree id")

var extensions = []string{".yaml", ".yml", ".json"}

// Store implements ports.TreeStore using the local filesystem.
// It stores one tree per YAML file in a configured directory.
// Files ending in .yml or .json are read too; writes always produce .yaml.
type Store struct {
	BasePath string

	mu sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".canopy/trees".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".canopy", "trees")
	}
	return &Store{BasePath: basePath}
}

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// SaveTree persists the tree to a YAML file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) SaveTree(ctx context.Context, tree *domain.Tree) error {
	if err := checkID(tree.ID); err != nil {
		return err
	}

	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure tree directory: %w", err)
	}

	destPath := filepath.Join(s.BasePath, tree.ID+".yaml")

	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+tree.ID+"-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename fails on Windows if the destination exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing tree file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	// Drop stale copies under the other extensions.
	for _, ext := range extensions[1:] {
		_ = os.Remove(filepath.Join(s.BasePath, tree.ID+ext))
	}
	return nil
}

// GetTree reads a tree file. A tree without an ID inherits it from the file name.
func (s *Store) GetTree(ctx context.Context, id string) (*domain.Tree, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	path, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return ReadFile(path, id)
}

// ReadFile decodes a single tree file. fallbackID is used when the file omits its ID.
func ReadFile(path, fallbackID string) (*domain.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrTreeNotFound
		}
		return nil, fmt.Errorf("failed to read tree file: %w", err)
	}

	var tree domain.Tree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode tree file %s: %w", filepath.Base(path), err)
	}
	if tree.ID == "" {
		tree.ID = fallbackID
	}
	if tree.Name == "" {
		tree.Name = tree.ID
	}
	return &tree, nil
}

func (s *Store) find(id string) (string, error) {
	for _, ext := range extensions {
		p := filepath.Join(s.BasePath, id+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", domain.ErrTreeNotFound
}

// DeleteTree removes the tree file.
func (s *Store) DeleteTree(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	for _, ext := range extensions {
		err := os.Remove(filepath.Join(s.BasePath, id+ext))
		switch {
		case err == nil:
			removed = true
		case !os.IsNotExist(err):
			return fmt.Errorf("failed to delete tree file: %w", err)
		}
	}
	if !removed {
		return domain.ErrTreeNotFound
	}
	return nil
}

// ListTrees returns the IDs of all tree files, sorted.
func (s *Store) ListTrees(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list trees: %w", err)
	}

	seen := make(map[string]bool)
	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		ext := filepath.Ext(name)
		if entry.IsDir() || strings.HasPrefix(name, "tmp-") || !isTreeExt(ext) {
			continue
		}
		id := strings.TrimSuffix(name, ext)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func isTreeExt(ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}
