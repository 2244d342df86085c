package risk

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avollo/tradewind/pkg/emergency"
	"github.com/avollo/tradewind/pkg/models"
)

func TestLimitNodeWithinBounds(t *testing.T) {
	controller := emergency.NewController("risk-desk", slog.Default())

	node, err := newLimitNode(controller, map[string]any{
		"limit_name": "daily_loss",
		"limit":      -500,
	})
	require.NoError(t, err)

	outputs, err := node.Execute(context.Background(), models.ExecutionContext{}, nil, map[string]any{InputValue: -200})
	require.NoError(t, err)

	assert.Equal(t, false, outputs[OutputBreached])
	assert.Equal(t, emergency.StateNormal, controller.State())
	assert.Contains(t, controller.Limits(), "daily_loss")
}

func TestLimitNodeBreachReportsWithoutFailing(t *testing.T) {
	controller := emergency.NewController("risk-desk", slog.Default())

	node, err := newLimitNode(controller, map[string]any{
		"limit_name": "daily_loss",
		"limit":      -500,
		"auto_halt":  true,
	})
	require.NoError(t, err)

	outputs, err := node.Execute(context.Background(), models.ExecutionContext{}, nil, map[string]any{InputValue: -600})
	require.NoError(t, err)

	// The breach is data for downstream blocks; stopping the run is the
	// supervised executor's job via the halted controller.
	assert.Equal(t, true, outputs[OutputBreached])
	assert.Equal(t, emergency.StateHalt, controller.State())
}

func TestLimitNodeBreachWithoutAutoHalt(t *testing.T) {
	controller := emergency.NewController("risk-desk", slog.Default())

	node, err := newLimitNode(controller, map[string]any{
		"limit_name": "open_positions",
		"limit":      10,
		"kind":       "ceiling",
	})
	require.NoError(t, err)

	outputs, err := node.Execute(context.Background(), models.ExecutionContext{}, nil, map[string]any{InputValue: 12})
	require.NoError(t, err)

	assert.Equal(t, true, outputs[OutputBreached])
	assert.Equal(t, emergency.StateNormal, controller.State())
}

func TestLimitNodeKindDefaultsFromName(t *testing.T) {
	controller := emergency.NewController("risk-desk", slog.Default())

	node, err := newLimitNode(controller, map[string]any{
		"limit_name": "weekly_loss",
		"limit":      -1000,
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), models.ExecutionContext{}, nil, map[string]any{InputValue: -100})
	require.NoError(t, err)

	assert.Equal(t, emergency.LimitKindDrawdown, controller.Limits()["weekly_loss"].Kind)
}

func TestLimitNodeConfigValidation(t *testing.T) {
	controller := emergency.NewController("risk-desk", slog.Default())

	_, err := newLimitNode(controller, map[string]any{"limit": -500})
	require.Error(t, err)

	_, err = newLimitNode(controller, map[string]any{"limit_name": "daily_loss"})
	require.Error(t, err)

	_, err = newLimitNode(controller, map[string]any{
		"limit_name": "daily_loss",
		"limit":      -500,
		"kind":       "sideways",
	})
	require.Error(t, err)
}

func TestLimitNodeRequiresValueInput(t *testing.T) {
	controller := emergency.NewController("risk-desk", slog.Default())

	node, err := newLimitNode(controller, map[string]any{
		"limit_name": "daily_loss",
		"limit":      -500,
	})
	require.NoError(t, err)

	_, err = node.Execute(context.Background(), models.ExecutionContext{}, nil, map[string]any{})
	require.Error(t, err)

	_, err = node.Execute(context.Background(), models.ExecutionContext{}, nil, map[string]any{InputValue: models.Unavailable})
	require.Error(t, err)
}
