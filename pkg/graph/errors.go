package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError indicates a workflow definition that references missing
// blocks, out-of-range ports, or duplicates a block id. It is raised before
// the topological sort and before any block executes.
type ValidationError struct {
	WorkflowID string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("workflow %s failed validation: %s", e.WorkflowID, e.Reason)
}

// CyclicGraphError indicates the connection graph contains a cycle. No
// partial order is ever returned alongside it.
type CyclicGraphError struct {
	WorkflowID string
	Remaining  []string
}

func (e *CyclicGraphError) Error() string {
	return fmt.Sprintf("workflow %s contains a cycle involving blocks [%s]",
		e.WorkflowID, strings.Join(e.Remaining, ", "))
}

// IsValidationError reports whether err is a definition validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

// IsCyclicGraphError reports whether err is a cycle detection failure.
func IsCyclicGraphError(err error) bool {
	var ce *CyclicGraphError

	return errors.As(err, &ce)
}
