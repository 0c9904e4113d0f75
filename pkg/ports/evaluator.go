package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/analysis"
	"github.com/aretw0/canopy/pkg/domain"
)

// Evaluator is the engine surface used by the MCP adapter and the root Engine.
// Implementations apply their own root policy, depth limit and hooks.
type Evaluator interface {
	// Validate reports structural and semantic problems without evaluating.
	Validate(ctx context.Context, nodes []domain.Node) analysis.Report

	// Evaluate computes the expected value, or returns *analysis.RejectedError.
	Evaluate(ctx context.Context, nodes []domain.Node) (*analysis.Result, error)
}
