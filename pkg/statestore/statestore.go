// Package statestore defines the narrow key-value contract the core needs
// from its persisted-state collaborator, plus the key shapes it writes.
package statestore

import (
	"context"
	"fmt"
	"time"
)

// Store is the persisted-state contract. Implementations must make each
// individual call atomic; the core never needs cross-call transactions.
type Store interface {
	// Get returns the stored value for key and whether it existed.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// HealthCheck verifies the backing service is reachable.
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// ExecutionStatusKey is where a run's current status string lives.
func ExecutionStatusKey(workflowID, executionID string) string {
	return fmt.Sprintf("workflow:%s:execution:%s:status", workflowID, executionID)
}

// ExecutionResultKey is where a run's full serialized result lives.
func ExecutionResultKey(workflowID, executionID string) string {
	return fmt.Sprintf("workflow:%s:execution:%s:result", workflowID, executionID)
}

// LatestExecutionKey points at the most recent execution id per workflow.
func LatestExecutionKey(workflowID string) string {
	return fmt.Sprintf("workflow:%s:latest_execution", workflowID)
}

// ControllerKey is the controller-scoped key for persisted emergency
// state.
func ControllerKey(controllerID string) string {
	return fmt.Sprintf("emergency_controller:%s", controllerID)
}
