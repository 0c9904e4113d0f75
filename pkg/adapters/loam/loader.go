package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

// Loader adapts the Loam library to the canopy TreeSource interface.
// Each document holds one tree: metadata and nodes in the frontmatter,
// and an optional body used as the description.
type Loader struct {
	Repo *loam.TypedRepository[TreeMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[TreeMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at path and wraps it.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode gives consistent numeric types (json.Number) across Markdown, YAML and JSON.
	// ReadOnly avoids Loam's sandbox behaviour in dev mode.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[TreeMetadata](repo)), nil
}

// GetTree retrieves a tree document and decodes its nodes.
func (l *Loader) GetTree(ctx context.Context, id string) (*domain.Tree, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		// Loam does not expose a typed not-found error; any lookup failure means no such tree.
		return nil, fmt.Errorf("%w: loam get failed for %s: %v", domain.ErrTreeNotFound, id, err)
	}

	meta := doc.Data
	treeID := meta.ID
	if treeID == "" {
		treeID = doc.ID
	}

	tree := &domain.Tree{
		ID:          trimExtension(treeID),
		Name:        meta.Name,
		Description: meta.Description,
		IsTemplate:  meta.IsTemplate,
		IsPublic:    meta.IsPublic,
	}
	if tree.Name == "" {
		tree.Name = tree.ID
	}
	if tree.Description == "" {
		tree.Description = strings.TrimSpace(doc.Content)
	}

	nodes, err := decodeNodes(meta.Nodes)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", tree.ID, err)
	}
	tree.Nodes = nodes

	return tree, nil
}

// decodeNodes converts raw frontmatter records, keeping their order.
func decodeNodes(raw []any) ([]domain.Node, error) {
	nodes := make([]domain.Node, 0, len(raw))
	for i, item := range raw {
		var rec NodeRecord
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &rec,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(item); err != nil {
			return nil, fmt.Errorf("node %d: failed to decode: %w", i, err)
		}
		if rec.ID == "" {
			return nil, fmt.Errorf("node %d: missing id", i)
		}
		nodes = append(nodes, rec.toDomain())
	}
	return nodes, nil
}

func (r NodeRecord) toDomain() domain.Node {
	n := domain.Node{
		ID:          r.ID,
		ParentID:    r.ParentID,
		Kind:        domain.Kind(strings.ToLower(r.Kind)),
		Name:        r.Name,
		Probability: r.Probability,
		Cost:        r.Cost,
		Utility:     r.Utility,
		Description: r.Description,
		PositionX:   r.PositionX,
		PositionY:   r.PositionY,
	}
	// Short aliases for hand-written documents.
	if n.ParentID == "" {
		n.ParentID = r.Parent
	}
	if n.Kind == "" {
		n.Kind = domain.Kind(strings.ToLower(r.Type))
	}
	if len(r.Metadata) > 0 {
		n.Metadata = flattenMetadata(r.Metadata)
	}
	return n
}

// ListTrees lists all tree documents in the repository.
func (l *Loader) ListTrees(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		// Use the ID from metadata if available, otherwise filename ID
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// flattenMetadata converts a nested map[string]any into a flat map[string]string
// using dash-joined keys.
func flattenMetadata(src map[string]any) map[string]string {
	res := make(map[string]string)
	var visit func(prefix string, v any)

	visit = func(prefix string, v any) {
		switch val := v.(type) {
		case map[string]any:
			for k, sub := range val {
				fullKey := k
				if prefix != "" {
					fullKey = prefix + "-" + k
				}
				visit(fullKey, sub)
			}
		case map[any]any: // YAML often decodes to this
			for k, sub := range val {
				strKey := fmt.Sprintf("%v", k)
				fullKey := strKey
				if prefix != "" {
					fullKey = prefix + "-" + strKey
				}
				visit(fullKey, sub)
			}
		case []any:
			var parts []string
			for _, item := range val {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
			res[prefix] = strings.Join(parts, " ")
		default:
			if prefix != "" {
				res[prefix] = fmt.Sprintf("%v", val)
			}
		}
	}

	for k, v := range src {
		visit(k, v)
	}
	return res
}
