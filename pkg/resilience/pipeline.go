package resilience

import (
	"context"
	"log/slog"
	"time"
)

// Pipeline composes the three wrappers around a source-category call in a
// fixed order: timeout innermost (each attempt gets its own budget), retry
// around it, circuit breaker outermost so an open breaker fails fast
// without consuming retry attempts.
type Pipeline struct {
	breakers       *BreakerSet
	retry          Policy
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// PipelineConfig tunes a pipeline shared by every run in the process.
type PipelineConfig struct {
	Retry          Policy
	Breaker        BreakerConfig
	DefaultTimeout time.Duration
}

func NewPipeline(config PipelineConfig, logger *slog.Logger) *Pipeline {
	if config.Retry.MaxAttempts <= 0 {
		config.Retry = DefaultPolicy()
	}

	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}

	return &Pipeline{
		breakers:       NewBreakerSet(config.Breaker, logger),
		retry:          config.Retry,
		defaultTimeout: config.DefaultTimeout,
		logger:         logger.With("module", "resilience"),
	}
}

// Wrap protects a call against the named dependency. A non-positive
// timeout takes the pipeline default.
func (p *Pipeline) Wrap(dependency, operation string, timeout time.Duration, call Call) Call {
	if timeout <= 0 {
		timeout = p.defaultTimeout
	}

	wrapped := WithTimeout(operation, timeout, call)
	wrapped = WithRetry(operation, p.retry, wrapped)
	breaker := p.breakers.Get(dependency)

	return func(ctx context.Context) (map[string]any, error) {
		return breaker.Call(ctx, wrapped)
	}
}

// Breakers exposes the per-dependency breaker set for operator
// inspection.
func (p *Pipeline) Breakers() *BreakerSet {
	return p.breakers
}
