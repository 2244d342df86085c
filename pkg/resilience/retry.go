package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy configures retry behavior. It is stateless and may be shared
// freely between concurrent runs.
type Policy struct {
	MaxAttempts    int
	MinWait        time.Duration
	MaxWait        time.Duration
	Multiplier     float64
	RetryableKinds []Kind
}

// DefaultPolicy matches the defaults the supervised executor applies to
// source nodes without an explicit policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		MinWait:        time.Second,
		MaxWait:        30 * time.Second,
		Multiplier:     2,
		RetryableKinds: []Kind{KindConnection, KindTimeout, KindRateLimit, KindUnavailable},
	}
}

// Retryable reports whether err's classification is in the policy's
// retryable set. Unclassified errors are never retried.
func (p Policy) Retryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}

	for _, retryable := range p.RetryableKinds {
		if kind == retryable {
			return true
		}
	}

	return false
}

// backOff builds the wait schedule: attempt k (k >= 2) waits
// min(MaxWait, MinWait * Multiplier^(k-2)). Randomization is disabled so
// wait progressions are reproducible.
func (p Policy) backOff() backoff.BackOff {
	wait := backoff.NewExponentialBackOff()
	wait.InitialInterval = p.MinWait
	wait.MaxInterval = p.MaxWait
	wait.Multiplier = p.Multiplier
	wait.RandomizationFactor = 0
	wait.MaxElapsedTime = 0
	wait.Reset()

	return wait
}

// WithRetry invokes call up to policy.MaxAttempts times. Only errors whose
// kind is in the retryable set trigger another attempt; anything else
// propagates on first occurrence. Exhausting every attempt fails with
// *RetryExhaustedError wrapping the last error.
func WithRetry(operation string, policy Policy, call Call) Call {
	return func(ctx context.Context) (map[string]any, error) {
		wait := policy.backOff()

		var lastErr error

		for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
			outputs, err := call(ctx)
			if err == nil {
				return outputs, nil
			}

			if !policy.Retryable(err) {
				return nil, err
			}

			lastErr = err

			if attempt == policy.MaxAttempts {
				break
			}

			if err := sleep(ctx, wait.NextBackOff()); err != nil {
				return nil, err
			}
		}

		return nil, &RetryExhaustedError{
			Operation: operation,
			Attempts:  policy.MaxAttempts,
			LastErr:   lastErr,
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
