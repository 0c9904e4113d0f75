package canopy

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/analysis"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// Engine is the high-level entry point for the Canopy library.
// It binds the analysis package to a tree source and a fixed set of options.
type Engine struct {
	source     ports.TreeSource
	logger     *slog.Logger
	hooks      domain.EvaluationHooks
	rootPolicy analysis.RootPolicy
	maxDepth   int
	Name       string
}

var _ ports.Evaluator = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSource injects a custom TreeSource, bypassing the default file store.
func WithSource(src ports.TreeSource) Option {
	return func(e *Engine) {
		e.source = src
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.EvaluationHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithRootPolicy selects how trees with several roots are handled.
func WithRootPolicy(p analysis.RootPolicy) Option {
	return func(e *Engine) {
		e.rootPolicy = p
	}
}

// WithMaxDepth overrides analysis.DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// New initializes a new Canopy Engine.
// By default, trees are read from a file store at repoPath.
// If WithSource is provided, repoPath is only used as a label; with neither,
// the engine works on inline nodes only.
func New(repoPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{
		rootPolicy: analysis.RootPolicyStrict,
		maxDepth:   analysis.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if repoPath != "" {
		absPath, err := filepath.Abs(repoPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)
		if eng.source == nil {
			eng.source = file.New(absPath)
		}
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("trees", eng.Name)
	}

	return eng, nil
}

func (e *Engine) options() []analysis.Option {
	return []analysis.Option{
		analysis.WithRootPolicy(e.rootPolicy),
		analysis.WithMaxDepth(e.maxDepth),
		analysis.WithLogger(e.logger),
		analysis.WithHooks(e.hooks),
	}
}

// Validate reports structural and semantic problems without evaluating.
func (e *Engine) Validate(ctx context.Context, nodes []domain.Node) analysis.Report {
	return analysis.Validate(nodes, e.options()...)
}

// Evaluate computes the expected value of every node reachable from the root.
func (e *Engine) Evaluate(ctx context.Context, nodes []domain.Node) (*analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return analysis.Evaluate(nodes, e.options()...)
}

// OptimalPath evaluates nodes and renders the optimal path lines.
func (e *Engine) OptimalPath(ctx context.Context, nodes []domain.Node) ([]string, error) {
	res, err := e.Evaluate(ctx, nodes)
	if err != nil {
		return nil, err
	}
	return analysis.OptimalPath(res), nil
}

// Summary evaluates nodes and counts them by kind.
func (e *Engine) Summary(ctx context.Context, nodes []domain.Node) (analysis.Summary, error) {
	res, err := e.Evaluate(ctx, nodes)
	if err != nil {
		return analysis.Summary{}, err
	}
	return analysis.Summarize(res), nil
}

// Sensitivity sweeps one numeric field of one node and re-evaluates per point.
func (e *Engine) Sensitivity(ctx context.Context, nodes []domain.Node, sweep analysis.Sweep) ([]analysis.Point, error) {
	return analysis.Sensitivity(ctx, nodes, sweep, e.options()...)
}

// Source returns the underlying TreeSource, or nil.
func (e *Engine) Source() ports.TreeSource {
	return e.source
}

// Trees lists the IDs available from the source.
func (e *Engine) Trees(ctx context.Context) ([]string, error) {
	if e.source == nil {
		return nil, fmt.Errorf("no tree source configured")
	}
	return e.source.ListTrees(ctx)
}

// Tree loads a tree from the source.
func (e *Engine) Tree(ctx context.Context, id string) (*domain.Tree, error) {
	if e.source == nil {
		return nil, fmt.Errorf("no tree source configured")
	}
	return e.source.GetTree(ctx, id)
}

// EvaluateTree loads a tree by ID and evaluates it.
func (e *Engine) EvaluateTree(ctx context.Context, id string) (*analysis.Result, error) {
	tree, err := e.Tree(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, tree.Nodes)
}
