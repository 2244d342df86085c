package resilience

import (
	"context"
	"errors"
	"time"
)

// Call is the shape of a wrapped source invocation: it produces the node's
// named outputs or fails. Implementations must honor ctx cancellation so
// the timeout wrapper can abandon an in-flight call.
type Call func(ctx context.Context) (map[string]any, error)

// WithTimeout bounds a single attempt of call to limit. On expiry the
// attempt's context is cancelled and the wrapper fails with *TimeoutError;
// cancellation of the parent context propagates unchanged.
func WithTimeout(operation string, limit time.Duration, call Call) Call {
	return func(ctx context.Context) (map[string]any, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, limit)
		defer cancel()

		type outcome struct {
			outputs map[string]any
			err     error
		}

		done := make(chan outcome, 1)

		go func() {
			outputs, err := call(attemptCtx)
			done <- outcome{outputs: outputs, err: err}
		}()

		select {
		case result := <-done:
			return result.outputs, result.err
		case <-attemptCtx.Done():
			if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, &TimeoutError{Operation: operation, Limit: limit}
			}

			return nil, attemptCtx.Err()
		}
	}
}
