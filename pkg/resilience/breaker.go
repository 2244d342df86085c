package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BreakerState is the circuit breaker state machine position.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes one circuit breaker instance.
type BreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"`
	SuccessThreshold int           `json:"success_threshold"`
	OpenDuration     time.Duration `json:"open_duration"`
	WindowDuration   time.Duration `json:"window_duration"`
}

// DefaultBreakerConfig matches the pipeline defaults for unconfigured
// dependencies.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 3,
		OpenDuration:     30 * time.Second,
		WindowDuration:   60 * time.Second,
	}
}

// BreakerSnapshot is a consistent read of one breaker's state for
// operator inspection.
type BreakerSnapshot struct {
	Name           string       `json:"name"`
	State          BreakerState `json:"state"`
	RecentFailures int          `json:"recent_failures"`
	Successes      int          `json:"consecutive_successes"`
	OpenedAt       time.Time    `json:"opened_at,omitempty"`
}

// Breaker guards one external dependency. One instance is shared by every
// concurrent run calling that dependency; all state transitions happen
// under a single mutex so two callers can never both decide to flip the
// same transition.
type Breaker struct {
	name   string
	config BreakerConfig
	logger *slog.Logger

	mu        sync.Mutex
	state     BreakerState
	failures  []time.Time
	successes int
	openedAt  time.Time
}

func NewBreaker(name string, config BreakerConfig, logger *slog.Logger) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}

	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = DefaultBreakerConfig().SuccessThreshold
	}

	if config.OpenDuration <= 0 {
		config.OpenDuration = DefaultBreakerConfig().OpenDuration
	}

	if config.WindowDuration <= 0 {
		config.WindowDuration = DefaultBreakerConfig().WindowDuration
	}

	return &Breaker{
		name:   name,
		config: config,
		logger: logger.With("module", "circuit_breaker", "breaker", name),
		state:  StateClosed,
	}
}

// Call consults the breaker, runs the wrapped call when admitted, and
// records the result. While open it fails immediately with
// *CircuitOpenError without invoking call.
func (b *Breaker) Call(ctx context.Context, call Call) (map[string]any, error) {
	if err := b.admit(); err != nil {
		return nil, err
	}

	outputs, err := call(ctx)
	if err != nil {
		b.recordFailure()

		return nil, err
	}

	b.recordSuccess()

	return outputs, nil
}

// admit decides whether a call may proceed. The open -> half_open
// transition is evaluated lazily here, not by a background timer.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()

	if b.state == StateOpen && now.Sub(b.openedAt) >= b.config.OpenDuration {
		b.setState(StateHalfOpen)
		b.successes = 0
	}

	if b.state == StateOpen {
		b.pruneLocked(now)

		return &CircuitOpenError{Name: b.name, Failures: len(b.failures)}
	}

	return nil
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.pruneLocked(now)
	b.failures = append(b.failures, now)

	switch b.state {
	case StateHalfOpen:
		// Any failure while probing reopens immediately.
		b.successes = 0
		b.openedAt = now
		b.setState(StateOpen)
	case StateClosed:
		if len(b.failures) >= b.config.FailureThreshold {
			b.openedAt = now
			b.setState(StateOpen)
		}
	case StateOpen:
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.failures = nil
			b.successes = 0
			b.setState(StateClosed)
		}
	}
}

// pruneLocked drops failure timestamps older than the sliding window.
// Callers must hold b.mu.
func (b *Breaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-b.config.WindowDuration)
	kept := b.failures[:0]

	for _, ts := range b.failures {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	b.failures = kept
}

func (b *Breaker) setState(next BreakerState) {
	if b.state == next {
		return
	}

	b.logger.Info("Circuit breaker state changed",
		"from", b.state.String(),
		"to", next.String(),
		"recent_failures", len(b.failures))
	b.state = next
}

// State returns the current state, applying the lazy open -> half_open
// transition first so readers never observe a stale open breaker.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && time.Since(b.openedAt) >= b.config.OpenDuration {
		b.setState(StateHalfOpen)
		b.successes = 0
	}

	return b.state
}

// Snapshot returns a consistent copy of the breaker's counters.
func (b *Breaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked(time.Now())

	return BreakerSnapshot{
		Name:           b.name,
		State:          b.state,
		RecentFailures: len(b.failures),
		Successes:      b.successes,
		OpenedAt:       b.openedAt,
	}
}

// BreakerSet holds one breaker per named external dependency, creating
// them on first use with a shared default configuration.
type BreakerSet struct {
	config BreakerConfig
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker
}

func NewBreakerSet(config BreakerConfig, logger *slog.Logger) *BreakerSet {
	return &BreakerSet{
		config:   config,
		logger:   logger,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for the named dependency, creating it on first
// use.
func (s *BreakerSet) Get(name string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	breaker, ok := s.breakers[name]
	if !ok {
		breaker = NewBreaker(name, s.config, s.logger)
		s.breakers[name] = breaker
	}

	return breaker
}

// Snapshots returns the state of every breaker created so far.
func (s *BreakerSet) Snapshots() []BreakerSnapshot {
	s.mu.Lock()
	breakers := make([]*Breaker, 0, len(s.breakers))

	for _, b := range s.breakers {
		breakers = append(breakers, b)
	}
	s.mu.Unlock()

	snapshots := make([]BreakerSnapshot, 0, len(breakers))
	for _, b := range breakers {
		snapshots = append(snapshots, b.Snapshot())
	}

	return snapshots
}
