package observability

import (
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
)

// LoggingHooks logs every evaluation at info and each node at debug.
func LoggingHooks(logger *slog.Logger) domain.EvaluationHooks {
	return domain.EvaluationHooks{
		OnNodeEvaluated: func(e *domain.NodeEvaluatedEvent) {
			logger.Debug("node_evaluated",
				"node_id", e.NodeID,
				"role", e.Role,
				"ev", e.ExpectedValue,
			)
		},
		OnEvaluated: func(e *domain.EvaluationEvent) {
			if e.Rejected {
				logger.Warn("evaluation_rejected",
					"nodes", e.NodeCount,
					"errors", e.Errors,
					"warnings", e.Warnings,
				)
				return
			}
			logger.Info("evaluation",
				"root_id", e.RootID,
				"nodes", e.NodeCount,
				"warnings", e.Warnings,
				"ev", e.ExpectedValue,
				"duration", e.Duration,
			)
		},
	}
}

// Chain merges hook sets. Callbacks run in argument order; nil ones are skipped.
func Chain(sets ...domain.EvaluationHooks) domain.EvaluationHooks {
	var nodeFns []func(*domain.NodeEvaluatedEvent)
	var evalFns []func(*domain.EvaluationEvent)
	for _, s := range sets {
		if s.OnNodeEvaluated != nil {
			nodeFns = append(nodeFns, s.OnNodeEvaluated)
		}
		if s.OnEvaluated != nil {
			evalFns = append(evalFns, s.OnEvaluated)
		}
	}

	var out domain.EvaluationHooks
	if len(nodeFns) > 0 {
		out.OnNodeEvaluated = func(e *domain.NodeEvaluatedEvent) {
			for _, fn := range nodeFns {
				fn(e)
			}
		}
	}
	if len(evalFns) > 0 {
		out.OnEvaluated = func(e *domain.EvaluationEvent) {
			for _, fn := range evalFns {
				fn(e)
			}
		}
	}
	return out
}
