package analysis

import (
	"log/slog"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
)

// RootPolicy decides what happens when a tree has more than one parentless node.
type RootPolicy string

const (
	// RootPolicyStrict rejects trees with several roots.
	RootPolicyStrict RootPolicy = "strict"
	// RootPolicyFirst warns and evaluates from the first root in input order.
	RootPolicyFirst RootPolicy = "first"
)

// DefaultMaxDepth bounds the recursive walk.
const DefaultMaxDepth = 512

// ProbabilityTolerance is the accepted distance of sibling probability sums from 1.
const ProbabilityTolerance = 1e-3

// Option configures a Validate or Evaluate call.
type Option func(*config)

type config struct {
	rootPolicy RootPolicy
	maxDepth   int
	logger     *slog.Logger
	hooks      domain.EvaluationHooks
}

func newConfig(opts []Option) *config {
	cfg := &config{
		rootPolicy: RootPolicyStrict,
		maxDepth:   DefaultMaxDepth,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithRootPolicy selects the multiple-roots behaviour (default RootPolicyStrict).
func WithRootPolicy(p RootPolicy) Option {
	return func(c *config) {
		if p != "" {
			c.rootPolicy = p
		}
	}
}

// WithMaxDepth overrides the walk depth limit. Non-positive values are ignored.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithLogger sets a structured logger for engine diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.EvaluationHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

// ParseRootPolicy maps a configuration string to a RootPolicy.
func ParseRootPolicy(s string) (RootPolicy, bool) {
	switch RootPolicy(s) {
	case RootPolicyStrict, "":
		return RootPolicyStrict, true
	case RootPolicyFirst:
		return RootPolicyFirst, true
	}
	return "", false
}
