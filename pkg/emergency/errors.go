package emergency

import (
	"errors"
	"fmt"
)

// HaltedError is returned by the assert guards when the controller state
// forbids the requested activity. It is run-fatal: the supervised executor
// never converts it into a node-local failure.
type HaltedError struct {
	State  State
	Reason string
}

func (e *HaltedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("emergency controller is in %s state", e.State)
	}

	return fmt.Sprintf("emergency controller is in %s state: %s", e.State, e.Reason)
}

// LimitExceededError is returned by CheckLimit when a tracked risk limit
// is breached.
type LimitExceededError struct {
	Name    string
	Current float64
	Limit   float64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("risk limit %q exceeded: current %v, limit %v", e.Name, e.Current, e.Limit)
}

// TransitionError is returned for a state transition the machine does not
// allow, such as resuming out of shutdown.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid emergency transition from %s to %s", e.From, e.To)
}

// IsHalted reports whether err is a guard rejection.
func IsHalted(err error) bool {
	var he *HaltedError

	return errors.As(err, &he)
}

// IsLimitExceeded reports whether err is a risk limit breach.
func IsLimitExceeded(err error) bool {
	var le *LimitExceededError

	return errors.As(err, &le)
}
