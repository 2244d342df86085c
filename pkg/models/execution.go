package models

import (
	"time"
)

// ExecutionStatus represents the terminal state of a workflow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning             ExecutionStatus = "running"
	ExecutionStatusCompleted           ExecutionStatus = "completed"
	ExecutionStatusCompletedWithErrors ExecutionStatus = "completed_with_errors"
	ExecutionStatusFailed              ExecutionStatus = "failed"
	ExecutionStatusHalted              ExecutionStatus = "halted"
)

// ExecutionContext carries the identity of one run. The ExecutionID doubles
// as the correlation id: it is attached to every log line and event emitted
// for the run, and is threaded explicitly through node dispatch rather than
// held in any ambient state.
type ExecutionContext struct {
	ExecutionID string         `json:"execution_id"`
	WorkflowID  string         `json:"workflow_id"`
	Variables   map[string]any `json:"variables,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
}

// NodeOutcome records one executed block inside an ExecutionResult.
type NodeOutcome struct {
	NodeID   string         `json:"node_id"`
	Name     string         `json:"name"`
	Category Category       `json:"category"`
	Outputs  map[string]any `json:"outputs,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// NodeError records a node-local failure. Node errors never abort the run
// on their own; they are aggregated here.
type NodeError struct {
	NodeID  string `json:"node_id"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// ExecutionResult is created empty at run start, mutated only by the
// executor driving that run, and finalized exactly once.
type ExecutionResult struct {
	ExecutionID string          `json:"execution_id"`
	WorkflowID  string          `json:"workflow_id"`
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	Duration    time.Duration   `json:"duration"`
	Nodes       []NodeOutcome   `json:"nodes"`
	Errors      []NodeError     `json:"errors,omitempty"`
}

// NodeOutputs maps node id -> output port name -> produced value. Owned
// exclusively by one run, never shared across concurrent runs.
type NodeOutputs map[string]map[string]any

// unavailable is the explicit marker used when an input's producer failed
// or never ran. Downstream behaviors must treat it as an absent value, not
// fabricate a default.
type unavailable struct{}

func (unavailable) String() string { return "<unavailable>" }

// Unavailable marks an input whose producing node did not yield a value.
var Unavailable = unavailable{}

// IsUnavailable reports whether v is the missing-input marker.
func IsUnavailable(v any) bool {
	_, ok := v.(unavailable)

	return ok
}
