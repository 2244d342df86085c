package emergency

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avollo/tradewind/pkg/statestore/memory"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()

	return NewController("risk-desk", slog.Default())
}

func TestControllerStartsNormal(t *testing.T) {
	controller := newTestController(t)

	assert.Equal(t, StateNormal, controller.State())
	assert.True(t, controller.CanTrade())
	assert.True(t, controller.CanOperate())
	require.NoError(t, controller.AssertCanTrade())
	require.NoError(t, controller.AssertCanOperate())
}

func TestControllerGuardsPerState(t *testing.T) {
	tests := []struct {
		name       string
		enter      func(c *Controller) error
		state      State
		canTrade   bool
		canOperate bool
	}{
		{
			name:       "alert keeps trading open",
			enter:      func(c *Controller) error { return c.Alert("latency spike", nil) },
			state:      StateAlert,
			canTrade:   true,
			canOperate: true,
		},
		{
			name:       "halt blocks trading only",
			enter:      func(c *Controller) error { return c.Halt("manual stop", nil) },
			state:      StateHalt,
			canTrade:   false,
			canOperate: true,
		},
		{
			name:       "shutdown blocks everything",
			enter:      func(c *Controller) error { return c.Shutdown("end of day", nil) },
			state:      StateShutdown,
			canTrade:   false,
			canOperate: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller := newTestController(t)
			require.NoError(t, tt.enter(controller))

			assert.Equal(t, tt.state, controller.State())
			assert.Equal(t, tt.canTrade, controller.CanTrade())
			assert.Equal(t, tt.canOperate, controller.CanOperate())

			err := controller.AssertCanTrade()
			if tt.canTrade {
				assert.NoError(t, err)
			} else {
				require.True(t, IsHalted(err))

				var halted *HaltedError
				require.ErrorAs(t, err, &halted)
				assert.Equal(t, tt.state, halted.State)
			}
		})
	}
}

func TestControllerResumeClearsHalt(t *testing.T) {
	controller := newTestController(t)

	require.NoError(t, controller.Halt("manual stop", nil))
	assert.Equal(t, "manual stop", controller.HaltReason())

	require.NoError(t, controller.Resume("risk reviewed", nil))
	assert.Equal(t, StateNormal, controller.State())
	assert.Empty(t, controller.HaltReason())
	assert.True(t, controller.CanTrade())
}

func TestControllerShutdownIsTerminal(t *testing.T) {
	controller := newTestController(t)
	require.NoError(t, controller.Shutdown("end of day", nil))

	for name, attempt := range map[string]func() error{
		"resume": func() error { return controller.Resume("retry", nil) },
		"alert":  func() error { return controller.Alert("retry", nil) },
		"halt":   func() error { return controller.Halt("retry", nil) },
	} {
		err := attempt()
		require.Error(t, err, name)

		var transition *TransitionError
		require.ErrorAs(t, err, &transition)
		assert.Equal(t, StateShutdown, transition.From)
	}

	assert.Equal(t, StateShutdown, controller.State())
}

func TestControllerRejectsAlertFromHalt(t *testing.T) {
	controller := newTestController(t)
	require.NoError(t, controller.Halt("manual stop", nil))

	err := controller.Alert("noise", nil)

	var transition *TransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, StateHalt, transition.From)
	assert.Equal(t, StateAlert, transition.To)
}

func TestControllerNotifiesSubscribers(t *testing.T) {
	controller := newTestController(t)

	var events []Event

	controller.Subscribe(func(event Event) {
		events = append(events, event)
	})

	require.NoError(t, controller.Halt("manual stop", map[string]any{"desk": "fx"}))
	require.NoError(t, controller.Resume("risk reviewed", nil))

	require.Len(t, events, 2)
	assert.Equal(t, StateNormal, events[0].Previous)
	assert.Equal(t, StateHalt, events[0].Current)
	assert.Equal(t, "manual stop", events[0].Reason)
	assert.Equal(t, "fx", events[0].Metadata["desk"])
	assert.Equal(t, StateHalt, events[1].Previous)
	assert.Equal(t, StateNormal, events[1].Current)
}

func TestControllerIsolatesPanickingSubscribers(t *testing.T) {
	controller := newTestController(t)

	delivered := false

	controller.Subscribe(func(Event) { panic("bad subscriber") })
	controller.Subscribe(func(Event) { delivered = true })

	require.NoError(t, controller.Halt("manual stop", nil))
	assert.True(t, delivered)
	assert.Equal(t, StateHalt, controller.State())
}

func TestCheckLimitDrawdownBreachHalts(t *testing.T) {
	controller := newTestController(t)

	// Loss of 600 against a floor of -500.
	err := controller.CheckLimit("daily_loss", LimitKindDrawdown, -600, -500, true)
	require.True(t, IsLimitExceeded(err))

	var exceeded *LimitExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, "daily_loss", exceeded.Name)
	assert.Equal(t, -600.0, exceeded.Current)
	assert.Equal(t, -500.0, exceeded.Limit)

	assert.Equal(t, StateHalt, controller.State())
	assert.Contains(t, controller.HaltReason(), "daily_loss")
}

func TestCheckLimitWithoutAutoHaltLeavesStateAlone(t *testing.T) {
	controller := newTestController(t)

	err := controller.CheckLimit("open_positions", LimitKindCeiling, 12, 10, false)
	require.True(t, IsLimitExceeded(err))
	assert.Equal(t, StateNormal, controller.State())
	assert.True(t, controller.CanTrade())
}

func TestCheckLimitWithinBoundsTracks(t *testing.T) {
	controller := newTestController(t)

	require.NoError(t, controller.CheckLimit("daily_loss", LimitKindDrawdown, -200, -500, true))
	require.NoError(t, controller.CheckLimit("open_positions", LimitKindCeiling, 4, 10, false))

	limits := controller.Limits()
	require.Len(t, limits, 2)
	assert.Equal(t, -200.0, limits["daily_loss"].Current)
	assert.False(t, limits["daily_loss"].Exceeded())
	assert.Equal(t, 10.0, limits["open_positions"].Limit)
}

func TestCheckLimitAtExactLimitDoesNotBreach(t *testing.T) {
	controller := newTestController(t)

	require.NoError(t, controller.CheckLimit("daily_loss", LimitKindDrawdown, -500, -500, true))
	require.NoError(t, controller.CheckLimit("open_positions", LimitKindCeiling, 10, 10, true))
	assert.Equal(t, StateNormal, controller.State())
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	controller := newTestController(t)
	require.NoError(t, controller.Halt("manual stop", map[string]any{"desk": "fx"}))

	err := controller.CheckLimit("daily_loss", LimitKindDrawdown, -200, -500, false)
	require.NoError(t, err)
	require.NoError(t, controller.Persist(ctx, store))

	restored := NewController("risk-desk", slog.Default())
	found, err := restored.Restore(ctx, store)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, StateHalt, restored.State())
	assert.Equal(t, "manual stop", restored.HaltReason())
	assert.False(t, restored.CanTrade())

	limits := restored.Limits()
	require.Contains(t, limits, "daily_loss")
	assert.Equal(t, LimitKindDrawdown, limits["daily_loss"].Kind)
	assert.Equal(t, -200.0, limits["daily_loss"].Current)
}

func TestRestoreWithoutSavedState(t *testing.T) {
	controller := newTestController(t)

	found, err := controller.Restore(context.Background(), memory.NewStore())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, StateNormal, controller.State())
}
