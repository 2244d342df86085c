package action

import (
	"github.com/avollo/tradewind/pkg/catalog"
	"github.com/avollo/tradewind/pkg/models"
)

// Register adds the built-in action behaviors, bound to the given broker
// and notifier.
func Register(c *catalog.Catalog, broker Broker, notifier Notifier) {
	c.Register(catalog.NewFactory(models.CategoryAction, "buy", orderSchema(), func(config map[string]any) (catalog.Behavior, error) {
		return newOrderNode(broker, SideBuy, config)
	}))

	c.Register(catalog.NewFactory(models.CategoryAction, "sell", orderSchema(), func(config map[string]any) (catalog.Behavior, error) {
		return newOrderNode(broker, SideSell, config)
	}))

	c.Register(catalog.NewFactory(models.CategoryAction, "cancel", cancelSchema(), func(config map[string]any) (catalog.Behavior, error) {
		return newCancelNode(broker, config)
	}))

	c.Register(catalog.NewFactory(models.CategoryAction, "notify", notifySchema(), func(config map[string]any) (catalog.Behavior, error) {
		return newNotifyNode(notifier, config)
	}))
}

func orderSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symbol":   map[string]any{"type": "string", "minLength": 1},
			"quantity": map[string]any{"type": "number", "exclusiveMinimum": 0},
			"price":    map[string]any{"type": "number"},
		},
		"required": []any{"symbol", "quantity"},
	}
}

func cancelSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"order_id": map[string]any{"type": "string"},
		},
	}
}

func notifySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject": map[string]any{"type": "string", "minLength": 1},
			"message": map[string]any{"type": "string"},
		},
		"required": []any{"subject"},
	}
}
