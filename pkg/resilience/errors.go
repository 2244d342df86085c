// Package resilience provides the timeout, retry and circuit-breaker
// wrappers composed around source-category node calls.
package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error for retry decisions. Provider adapters wrap
// their transport errors with a kind so the retry policy can tell
// transient faults from permanent ones.
type Kind string

const (
	KindConnection  Kind = "connection"
	KindTimeout     Kind = "timeout"
	KindRateLimit   Kind = "rate_limit"
	KindUnavailable Kind = "unavailable"
)

// Kinder is implemented by errors that carry a resilience kind.
type Kinder interface {
	ResilienceKind() Kind
}

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string {
	return fmt.Sprintf("%s: %v", e.kind, e.err)
}

func (e *kindError) Unwrap() error { return e.err }

func (e *kindError) ResilienceKind() Kind { return e.kind }

// WithKind wraps err with a retry classification kind.
func WithKind(err error, kind Kind) error {
	if err == nil {
		return nil
	}

	return &kindError{kind: kind, err: err}
}

// KindOf extracts the classification kind from anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var kinder Kinder
	if errors.As(err, &kinder) {
		return kinder.ResilienceKind(), true
	}

	return "", false
}

// TimeoutError is returned when a wrapped call exceeds its per-attempt
// time budget.
type TimeoutError struct {
	Operation string
	Limit     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %q exceeded timeout of %s", e.Operation, e.Limit)
}

func (e *TimeoutError) ResilienceKind() Kind { return KindTimeout }

// RetryExhaustedError is returned after every permitted attempt failed
// with a retryable error.
type RetryExhaustedError struct {
	Operation string
	Attempts  int
	LastErr   error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("operation %q failed after %d attempts: %v", e.Operation, e.Attempts, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error { return e.LastErr }

// CircuitOpenError is returned without invoking the wrapped call while the
// named dependency's breaker is open.
type CircuitOpenError struct {
	Name     string
	Failures int
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open (%d recent failures)", e.Name, e.Failures)
}

// IsTimeout reports whether err is a timeout failure.
func IsTimeout(err error) bool {
	var te *TimeoutError

	return errors.As(err, &te)
}

// IsRetryExhausted reports whether err is a retry exhaustion failure.
func IsRetryExhausted(err error) bool {
	var re *RetryExhaustedError

	return errors.As(err, &re)
}

// IsCircuitOpen reports whether err is an open-breaker rejection.
func IsCircuitOpen(err error) bool {
	var ce *CircuitOpenError

	return errors.As(err, &ce)
}
