// Package risk provides the limit-check behavior binding workflow graphs
// to the emergency controller's risk tracker.
package risk

import (
	"context"
	"errors"
	"fmt"

	"github.com/avollo/tradewind/pkg/catalog"
	"github.com/avollo/tradewind/pkg/emergency"
	"github.com/avollo/tradewind/pkg/models"
)

const (
	InputValue = "value"

	OutputBreached = "breached"
)

// limitNode feeds its numeric input into the controller's limit tracker
// and emits whether the limit was breached. With auto_halt set, a breach
// halts the controller; the supervised executor then stops the run at its
// next checkpoint, so the node itself never aborts execution.
type limitNode struct {
	controller *emergency.Controller
	name       string
	kind       emergency.LimitKind
	limit      float64
	autoHalt   bool
}

func newLimitNode(controller *emergency.Controller, config map[string]any) (catalog.Behavior, error) {
	name, _ := config["limit_name"].(string)
	if name == "" {
		return nil, errors.New("risk limit node requires 'limit_name'")
	}

	limit, err := models.Number(config["limit"])
	if err != nil {
		return nil, fmt.Errorf("risk limit value: %w", err)
	}

	kind := emergency.LimitKindFromName(name)
	if raw, ok := config["kind"].(string); ok && raw != "" {
		switch emergency.LimitKind(raw) {
		case emergency.LimitKindDrawdown, emergency.LimitKindCeiling:
			kind = emergency.LimitKind(raw)
		default:
			return nil, fmt.Errorf("risk limit kind %q is not drawdown or ceiling", raw)
		}
	}

	autoHalt, _ := config["auto_halt"].(bool)

	return &limitNode{
		controller: controller,
		name:       name,
		kind:       kind,
		limit:      limit,
		autoHalt:   autoHalt,
	}, nil
}

func (n *limitNode) Execute(_ context.Context, _ models.ExecutionContext, _ map[string]any, inputs map[string]any) (map[string]any, error) {
	raw, ok := inputs[InputValue]
	if !ok || models.IsUnavailable(raw) {
		return nil, errors.New("risk limit node received no value input")
	}

	current, err := models.Number(raw)
	if err != nil {
		return nil, fmt.Errorf("risk limit input: %w", err)
	}

	err = n.controller.CheckLimit(n.name, n.kind, current, n.limit, n.autoHalt)
	if err != nil {
		if emergency.IsLimitExceeded(err) {
			return map[string]any{OutputBreached: true, "current": current, "limit": n.limit}, nil
		}

		return nil, err
	}

	return map[string]any{OutputBreached: false, "current": current, "limit": n.limit}, nil
}

// Register adds the built-in risk behaviors, bound to the controller.
func Register(c *catalog.Catalog, controller *emergency.Controller) {
	c.Register(catalog.NewFactory(models.CategoryRisk, "limit", limitSchema(), func(config map[string]any) (catalog.Behavior, error) {
		return newLimitNode(controller, config)
	}))
}

func limitSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"limit_name": map[string]any{"type": "string", "minLength": 1},
			"limit":      map[string]any{"type": "number"},
			"kind":       map[string]any{"type": "string", "enum": []any{"drawdown", "ceiling"}},
			"auto_halt":  map[string]any{"type": "boolean"},
		},
		"required": []any{"limit_name", "limit"},
	}
}
