package observability_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/analysis"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/dsl"
	"github.com/aretw0/canopy/pkg/observability"
)

func sampleTree() []domain.Node {
	b := dsl.New()
	b.Add("root").Decision("Pick")
	b.Add("a").Chance("A").Under("root")
	b.Add("a1").Terminal("A1", 40).Under("a")
	b.Add("b").Terminal("B", 10).Under("root")
	return b.Build()
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	_, err := analysis.Evaluate(sampleTree(), analysis.WithHooks(m.Hooks()))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("false")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.ExpectedValue))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodesVisited.WithLabelValues(string(domain.RoleTerminal))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodesVisited.WithLabelValues(string(domain.RoleDecision))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Fallbacks))

	// A rejected tree counts but leaves the gauge alone.
	_, err = analysis.Evaluate([]domain.Node{}, analysis.WithHooks(m.Hooks()))
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("true")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.ExpectedValue))

	count, err := testutil.GatherAndCount(reg, "canopy_evaluation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilRegistry(t *testing.T) {
	m := observability.NewMetrics(nil)
	m.Hooks().OnNodeEvaluated(&domain.NodeEvaluatedEvent{Role: domain.RoleChoice, Fallback: true})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks))
}

func TestChain(t *testing.T) {
	var order []string
	first := domain.EvaluationHooks{
		OnEvaluated: func(*domain.EvaluationEvent) { order = append(order, "first") },
	}
	second := domain.EvaluationHooks{
		OnEvaluated:     func(*domain.EvaluationEvent) { order = append(order, "second") },
		OnNodeEvaluated: func(*domain.NodeEvaluatedEvent) { order = append(order, "node") },
	}

	hooks := observability.Chain(first, domain.EvaluationHooks{}, second)
	hooks.OnNodeEvaluated(&domain.NodeEvaluatedEvent{})
	hooks.OnEvaluated(&domain.EvaluationEvent{})
	assert.Equal(t, []string{"node", "first", "second"}, order)

	empty := observability.Chain()
	assert.Nil(t, empty.OnEvaluated)
	assert.Nil(t, empty.OnNodeEvaluated)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := analysis.Evaluate(sampleTree(), analysis.WithHooks(observability.LoggingHooks(logger)))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=node_evaluated")
	assert.Contains(t, out, "msg=evaluation")
	assert.Contains(t, out, "root_id=root")
}
