package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avollo/tradewind/pkg/eventbus"
	"github.com/avollo/tradewind/pkg/eventbus/gochannel"
	"github.com/avollo/tradewind/pkg/events"
	"github.com/avollo/tradewind/pkg/models"
)

func testBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case received := <-ch:
		return received
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")

		panic("unreachable")
	}
}

func TestEventBusRoundTripsTypedEvents(t *testing.T) {
	bus := testBus(t)

	started := make(chan *events.ExecutionStarted, 1)
	completed := make(chan *events.NodeCompleted, 1)

	require.NoError(t, bus.Handle(events.ExecutionStartedEvent, func(_ context.Context, event any) error {
		started <- event.(*events.ExecutionStarted)

		return nil
	}))
	require.NoError(t, bus.Handle(events.NodeCompletedEvent, func(_ context.Context, event any) error {
		completed <- event.(*events.NodeCompleted)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "run-abc123", events.ExecutionStarted{
		BaseEvent: events.BaseEvent{
			ID:          bus.GenerateID(),
			Type:        events.ExecutionStartedEvent,
			Timestamp:   time.Now(),
			WorkflowID:  "momentum-btc",
			ExecutionID: "run-abc123",
		},
		NodeCount: 3,
	}))

	require.NoError(t, bus.Publish(ctx, "run-abc123", events.NodeCompleted{
		BaseEvent: events.BaseEvent{
			ID:          bus.GenerateID(),
			Type:        events.NodeCompletedEvent,
			Timestamp:   time.Now(),
			WorkflowID:  "momentum-btc",
			ExecutionID: "run-abc123",
		},
		NodeID:   "quotes",
		NodeName: "Price feed",
		Category: models.CategorySource,
		Duration: 12 * time.Millisecond,
	}))

	first := waitFor(t, started)
	assert.Equal(t, "momentum-btc", first.WorkflowID)
	assert.Equal(t, "run-abc123", first.ExecutionID)
	assert.Equal(t, 3, first.NodeCount)

	second := waitFor(t, completed)
	assert.Equal(t, "quotes", second.NodeID)
	assert.Equal(t, models.CategorySource, second.Category)
	assert.Equal(t, 12*time.Millisecond, second.Duration)
}

func TestEventBusSkipsEventTypesWithoutHandler(t *testing.T) {
	bus := testBus(t)

	halted := make(chan *events.ExecutionHalted, 1)
	require.NoError(t, bus.Handle(events.ExecutionHaltedEvent, func(_ context.Context, event any) error {
		halted <- event.(*events.ExecutionHalted)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for node_started; it is acked and dropped
	// without blocking delivery of later events.
	require.NoError(t, bus.Publish(ctx, "run-abc123", events.NodeStarted{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.NodeStartedEvent},
		NodeID:    "quotes",
	}))

	require.NoError(t, bus.Publish(ctx, "run-abc123", events.ExecutionHalted{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.ExecutionHaltedEvent, ExecutionID: "run-abc123"},
		Reason:    "risk limit \"daily_loss\" exceeded",
	}))

	received := waitFor(t, halted)
	assert.Equal(t, "run-abc123", received.ExecutionID)
	assert.Contains(t, received.Reason, "daily_loss")
}

func TestEventBusDeliversSupervisedRunLifecycle(t *testing.T) {
	bus := testBus(t)

	types := make(chan events.EventType, 16)

	for _, eventType := range []events.EventType{
		events.ExecutionStartedEvent,
		events.NodeStartedEvent,
		events.NodeCompletedEvent,
		events.ExecutionCompletedEvent,
	} {
		require.NoError(t, bus.Handle(eventType, func(_ context.Context, event any) error {
			types <- event.(interface{ GetType() events.EventType }).GetType()

			return nil
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	base := func(eventType events.EventType) events.BaseEvent {
		return events.BaseEvent{
			ID:          bus.GenerateID(),
			Type:        eventType,
			Timestamp:   time.Now(),
			WorkflowID:  "momentum-btc",
			ExecutionID: "run-abc123",
		}
	}

	require.NoError(t, bus.Publish(ctx, "run-abc123", events.ExecutionStarted{BaseEvent: base(events.ExecutionStartedEvent), NodeCount: 1}))
	require.NoError(t, bus.Publish(ctx, "run-abc123", events.NodeStarted{BaseEvent: base(events.NodeStartedEvent), NodeID: "quotes"}))
	require.NoError(t, bus.Publish(ctx, "run-abc123", events.NodeCompleted{BaseEvent: base(events.NodeCompletedEvent), NodeID: "quotes"}))
	require.NoError(t, bus.Publish(ctx, "run-abc123", events.ExecutionCompleted{BaseEvent: base(events.ExecutionCompletedEvent), Status: models.ExecutionStatusCompleted}))

	var received []events.EventType
	for range 4 {
		received = append(received, waitFor(t, types))
	}

	assert.Equal(t, []events.EventType{
		events.ExecutionStartedEvent,
		events.NodeStartedEvent,
		events.NodeCompletedEvent,
		events.ExecutionCompletedEvent,
	}, received)
}
