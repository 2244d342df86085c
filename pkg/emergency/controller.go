// Package emergency implements the trading halt state machine and risk
// limit tracker that gate workflow execution.
package emergency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avollo/tradewind/pkg/statestore"
)

// State is the controller's position in the NORMAL/ALERT/HALT/SHUTDOWN
// machine.
type State string

const (
	StateNormal   State = "normal"
	StateAlert    State = "alert"
	StateHalt     State = "halt"
	StateShutdown State = "shutdown"
)

// allowedTransitions encodes the operator-facing machine: shutdown is
// terminal, resume returns to normal from alert or halt only.
var allowedTransitions = map[State][]State{
	StateNormal: {StateAlert, StateHalt, StateShutdown},
	StateAlert:  {StateHalt, StateShutdown, StateNormal},
	StateHalt:   {StateShutdown, StateNormal},
}

// Event describes one state transition, delivered to every subscriber.
type Event struct {
	ControllerID string         `json:"controller_id"`
	Previous     State          `json:"previous"`
	Current      State          `json:"current"`
	Reason       string         `json:"reason"`
	Timestamp    time.Time      `json:"timestamp"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Subscriber receives transition events. A panicking subscriber never
// blocks delivery to the others.
type Subscriber func(Event)

// Controller is the per-scope emergency state machine. One instance is
// shared by every run under its scope; all mutation is serialized behind
// one mutex so guard reads are never torn.
type Controller struct {
	id     string
	logger *slog.Logger

	mu             sync.Mutex
	state          State
	haltReason     string
	transitionedAt time.Time
	metadata       map[string]any
	limits         map[string]TrackedLimit
	subscribers    []Subscriber
}

func NewController(id string, logger *slog.Logger) *Controller {
	return &Controller{
		id:             id,
		logger:         logger.With("module", "emergency_controller", "controller_id", id),
		state:          StateNormal,
		transitionedAt: time.Now(),
		limits:         make(map[string]TrackedLimit),
	}
}

// ID returns the controller scope identifier.
func (c *Controller) ID() string { return c.id }

// Subscribe registers a subscriber for future transitions.
func (c *Controller) Subscribe(sub Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subscribers = append(c.subscribers, sub)
}

// Alert raises the controller into alert without blocking trading.
func (c *Controller) Alert(reason string, metadata map[string]any) error {
	return c.transition(StateAlert, reason, metadata)
}

// Halt blocks all new trading until an explicit Resume.
func (c *Controller) Halt(reason string, metadata map[string]any) error {
	return c.transition(StateHalt, reason, metadata)
}

// Resume returns the controller to normal from alert or halt.
func (c *Controller) Resume(reason string, metadata map[string]any) error {
	return c.transition(StateNormal, reason, metadata)
}

// Shutdown terminally stops the controller; no transition leads out of it.
func (c *Controller) Shutdown(reason string, metadata map[string]any) error {
	return c.transition(StateShutdown, reason, metadata)
}

func (c *Controller) transition(to State, reason string, metadata map[string]any) error {
	c.mu.Lock()

	event, err := c.transitionLocked(to, reason, metadata)
	subscribers := append([]Subscriber(nil), c.subscribers...)
	c.mu.Unlock()

	if err != nil {
		return err
	}

	c.deliver(event, subscribers)

	return nil
}

// transitionLocked applies the transition and builds its event. Callers
// must hold c.mu and deliver the event after unlocking.
func (c *Controller) transitionLocked(to State, reason string, metadata map[string]any) (Event, error) {
	allowed := false

	for _, next := range allowedTransitions[c.state] {
		if next == to {
			allowed = true

			break
		}
	}

	if !allowed {
		return Event{}, &TransitionError{From: c.state, To: to}
	}

	event := Event{
		ControllerID: c.id,
		Previous:     c.state,
		Current:      to,
		Reason:       reason,
		Timestamp:    time.Now(),
		Metadata:     metadata,
	}

	c.state = to
	c.transitionedAt = event.Timestamp
	c.metadata = metadata

	switch to {
	case StateHalt, StateShutdown:
		c.haltReason = reason
	case StateNormal:
		c.haltReason = ""
	case StateAlert:
	}

	c.logger.Warn("Emergency state changed",
		"previous", event.Previous,
		"current", event.Current,
		"reason", reason)

	return event, nil
}

func (c *Controller) deliver(event Event, subscribers []Subscriber) {
	for _, sub := range subscribers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("Emergency subscriber panicked", "panic", r)
				}
			}()

			sub(event)
		}()
	}
}

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// HaltReason returns the reason recorded by the last halt or shutdown.
func (c *Controller) HaltReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.haltReason
}

// CanTrade reports whether new trading activity may start.
func (c *Controller) CanTrade() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state == StateNormal || c.state == StateAlert
}

// CanOperate reports whether the controller scope is still running at all.
func (c *Controller) CanOperate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state != StateShutdown
}

// AssertCanTrade fails with *HaltedError when trading is blocked. Callers
// must use the assert form, not a read-then-act on CanTrade, to avoid
// racing a concurrent transition.
func (c *Controller) AssertCanTrade() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateNormal || c.state == StateAlert {
		return nil
	}

	return &HaltedError{State: c.state, Reason: c.haltReason}
}

// AssertCanOperate fails with *HaltedError once the controller is shut
// down.
func (c *Controller) AssertCanOperate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateShutdown {
		return nil
	}

	return &HaltedError{State: c.state, Reason: c.haltReason}
}

// CheckLimit records (current, limit) under name and fails with
// *LimitExceededError when the kind's comparison direction says the limit
// is breached. With autoHalt set the controller transitions to halt first,
// then the error is returned.
func (c *Controller) CheckLimit(name string, kind LimitKind, current, limit float64, autoHalt bool) error {
	c.mu.Lock()

	tracked := TrackedLimit{
		Name:      name,
		Kind:      kind,
		Current:   current,
		Limit:     limit,
		UpdatedAt: time.Now(),
	}
	c.limits[name] = tracked

	if !tracked.Exceeded() {
		c.mu.Unlock()

		if tracked.Warning() {
			c.logger.Warn("Risk limit near threshold",
				"limit", name,
				"current", current,
				"max", limit,
				"utilization", tracked.Utilization())
		}

		return nil
	}

	var (
		event       Event
		halted      bool
		subscribers []Subscriber
	)

	if autoHalt && c.state != StateHalt && c.state != StateShutdown {
		reason := fmt.Sprintf("risk limit %q exceeded (current %v, limit %v)", name, current, limit)

		var err error

		event, err = c.transitionLocked(StateHalt, reason, map[string]any{"limit": name})
		if err == nil {
			halted = true
			subscribers = append([]Subscriber(nil), c.subscribers...)
		}
	}

	c.mu.Unlock()

	if halted {
		c.deliver(event, subscribers)
	}

	return &LimitExceededError{Name: name, Current: current, Limit: limit}
}

// Limits returns a snapshot of every tracked limit.
func (c *Controller) Limits() map[string]TrackedLimit {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make(map[string]TrackedLimit, len(c.limits))
	for name, limit := range c.limits {
		snapshot[name] = limit
	}

	return snapshot
}

// persistedState is the serialized controller snapshot stored under the
// controller-scoped key.
type persistedState struct {
	State          State                   `json:"state"`
	HaltReason     string                  `json:"halt_reason,omitempty"`
	TransitionedAt time.Time               `json:"transitioned_at"`
	Metadata       map[string]any          `json:"metadata,omitempty"`
	Limits         map[string]TrackedLimit `json:"limits,omitempty"`
}

// Persist writes the controller snapshot to the store. The owner calls
// this at shutdown; the controller has no background persistence.
func (c *Controller) Persist(ctx context.Context, store statestore.Store) error {
	c.mu.Lock()
	snapshot := persistedState{
		State:          c.state,
		HaltReason:     c.haltReason,
		TransitionedAt: c.transitionedAt,
		Metadata:       c.metadata,
		Limits:         make(map[string]TrackedLimit, len(c.limits)),
	}

	for name, limit := range c.limits {
		snapshot.Limits[name] = limit
	}
	c.mu.Unlock()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal emergency state: %w", err)
	}

	return store.Set(ctx, statestore.ControllerKey(c.id), payload, 0)
}

// Restore loads a previously persisted snapshot, returning whether any
// saved state existed.
func (c *Controller) Restore(ctx context.Context, store statestore.Store) (bool, error) {
	payload, found, err := store.Get(ctx, statestore.ControllerKey(c.id))
	if err != nil {
		return false, err
	}

	if !found {
		return false, nil
	}

	var snapshot persistedState
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return false, fmt.Errorf("unmarshal emergency state: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = snapshot.State
	c.haltReason = snapshot.HaltReason
	c.transitionedAt = snapshot.TransitionedAt
	c.metadata = snapshot.Metadata
	c.limits = snapshot.Limits

	if c.limits == nil {
		c.limits = make(map[string]TrackedLimit)
	}

	return true, nil
}
