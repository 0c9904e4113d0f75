package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// Mask replaces redacted metadata values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.TreeStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks node metadata values whose keys
// match one of the patterns before they reach the store.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.TreeStore) ports.TreeStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) SaveTree(ctx context.Context, tree *domain.Tree) error {
	// Clone so the caller keeps the unmasked values.
	cloned := tree.Clone()
	for i := range cloned.Nodes {
		maskMetadata(cloned.Nodes[i].Metadata, m.patterns)
	}
	return m.next.SaveTree(ctx, cloned)
}

func (m *piiMiddleware) GetTree(ctx context.Context, id string) (*domain.Tree, error) {
	return m.next.GetTree(ctx, id)
}

func (m *piiMiddleware) DeleteTree(ctx context.Context, id string) error {
	return m.next.DeleteTree(ctx, id)
}

func (m *piiMiddleware) ListTrees(ctx context.Context) ([]string, error) {
	return m.next.ListTrees(ctx)
}

func maskMetadata(md map[string]string, patterns []*regexp.Regexp) {
	for k := range md {
		for _, p := range patterns {
			if p.MatchString(k) {
				md[k] = Mask
				break
			}
		}
	}
}
