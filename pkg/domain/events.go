package domain

import "time"

// NodeEvaluatedEvent is emitted after a node's expected value is computed.
type NodeEvaluatedEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	NodeID        string    `json:"node_id"`
	Kind          Kind      `json:"kind"`
	Role          Role      `json:"role"`
	ExpectedValue float64   `json:"expected_value"`
	Fallback      bool      `json:"fallback,omitempty"`
}

// EvaluationEvent summarises one evaluation call.
type EvaluationEvent struct {
	Timestamp     time.Time     `json:"timestamp"`
	RootID        string        `json:"root_id,omitempty"`
	NodeCount     int           `json:"node_count"`
	Errors        int           `json:"errors"`
	Warnings      int           `json:"warnings"`
	Rejected      bool          `json:"rejected"`
	ExpectedValue float64       `json:"expected_value"`
	Duration      time.Duration `json:"duration"`
}

// EvaluationHooks defines callbacks for engine observability.
// Nil hooks are skipped. The engine is synchronous, so hooks run inline.
type EvaluationHooks struct {
	OnNodeEvaluated func(*NodeEvaluatedEvent)
	OnEvaluated     func(*EvaluationEvent)
}
