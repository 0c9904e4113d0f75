package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/canopy/pkg/domain"
)

// Metrics holds the Prometheus collectors fed by evaluation hooks.
type Metrics struct {
	Evaluations   *prometheus.CounterVec
	Duration      prometheus.Histogram
	NodesVisited  *prometheus.CounterVec
	Fallbacks     prometheus.Counter
	ExpectedValue prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_evaluations_total",
				Help: "Total number of evaluation requests",
			},
			[]string{"rejected"},
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "canopy_evaluation_duration_seconds",
				Help:    "Duration of evaluations, validation included",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		NodesVisited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canopy_nodes_evaluated_total",
				Help: "Total number of nodes evaluated, by role",
			},
			[]string{"role"},
		),
		Fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "canopy_unknown_kind_fallbacks_total",
				Help: "Nodes of unrecognised kind counted as zero utility",
			},
		),
		ExpectedValue: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "canopy_last_expected_value",
				Help: "Expected value of the most recent accepted evaluation",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Evaluations, m.Duration, m.NodesVisited, m.Fallbacks, m.ExpectedValue)
	}
	return m
}

// Hooks returns evaluation hooks that record into m.
func (m *Metrics) Hooks() domain.EvaluationHooks {
	return domain.EvaluationHooks{
		OnNodeEvaluated: func(e *domain.NodeEvaluatedEvent) {
			m.NodesVisited.WithLabelValues(string(e.Role)).Inc()
			if e.Fallback {
				m.Fallbacks.Inc()
			}
		},
		OnEvaluated: func(e *domain.EvaluationEvent) {
			m.Evaluations.WithLabelValues(strconv.FormatBool(e.Rejected)).Inc()
			m.Duration.Observe(e.Duration.Seconds())
			if !e.Rejected {
				m.ExpectedValue.Set(e.ExpectedValue)
			}
		},
	}
}
