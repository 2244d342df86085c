// Package events defines the lifecycle events every workflow run publishes
// to the shared workflow_events topic.
package events

import (
	"time"

	"github.com/avollo/tradewind/pkg/models"
)

type EventType string

// Topic is the single logical topic all run lifecycle events go to.
const Topic = "workflow_events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution_started"
	ExecutionCompletedEvent EventType = "execution_completed"
	ExecutionHaltedEvent    EventType = "execution_halted"
	ExecutionFailedEvent    EventType = "execution_failed"

	NodeStartedEvent   EventType = "node_started"
	NodeCompletedEvent EventType = "node_completed"
	NodeFailedEvent    EventType = "node_failed"

	EmergencyStateChangedEvent EventType = "emergency_state_changed"
)

// BaseEvent carries the fields shared by every event: the run's
// correlation id rides in ExecutionID.
type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	WorkflowID  string         `json:"workflow_id"`
	ExecutionID string         `json:"run_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type ExecutionStarted struct {
	BaseEvent

	NodeCount int `json:"node_count"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

type ExecutionCompleted struct {
	BaseEvent

	Status     models.ExecutionStatus `json:"status"`
	Duration   time.Duration          `json:"duration"`
	ErrorCount int                    `json:"error_count"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionHalted struct {
	BaseEvent

	Reason string `json:"reason"`
}

func (e ExecutionHalted) GetType() EventType { return ExecutionHaltedEvent }

type ExecutionFailed struct {
	BaseEvent

	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }

type NodeStarted struct {
	BaseEvent

	NodeID   string          `json:"node_id"`
	NodeName string          `json:"node_name"`
	Category models.Category `json:"category"`
}

func (e NodeStarted) GetType() EventType { return NodeStartedEvent }

type NodeCompleted struct {
	BaseEvent

	NodeID   string          `json:"node_id"`
	NodeName string          `json:"node_name"`
	Category models.Category `json:"category"`
	Duration time.Duration   `json:"duration"`
}

func (e NodeCompleted) GetType() EventType { return NodeCompletedEvent }

type NodeFailed struct {
	BaseEvent

	NodeID    string          `json:"node_id"`
	NodeName  string          `json:"node_name"`
	Category  models.Category `json:"category"`
	Duration  time.Duration   `json:"duration"`
	ErrorKind string          `json:"error_kind,omitempty"`
	Error     string          `json:"error"`
}

func (e NodeFailed) GetType() EventType { return NodeFailedEvent }

type EmergencyStateChanged struct {
	BaseEvent

	ControllerID string `json:"controller_id"`
	Previous     string `json:"previous"`
	Current      string `json:"current"`
	Reason       string `json:"reason"`
}

func (e EmergencyStateChanged) GetType() EventType { return EmergencyStateChangedEvent }
