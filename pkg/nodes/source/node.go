// Package source provides the static source behavior, so workflows are
// runnable and testable without an exchange adapter. Real market data
// providers implement catalog.Behavior externally and are the ones the
// resilience pipeline exists for.
package source

import (
	"context"
	"errors"

	"github.com/avollo/tradewind/pkg/catalog"
	"github.com/avollo/tradewind/pkg/models"
)

// staticNode emits its configured port values verbatim.
type staticNode struct {
	values map[string]any
}

func NewStaticNode(config map[string]any) (catalog.Behavior, error) {
	values, ok := config["values"].(map[string]any)
	if !ok || len(values) == 0 {
		return nil, errors.New("static source requires a non-empty 'values' map of port name to value")
	}

	return &staticNode{values: values}, nil
}

func (n *staticNode) Execute(_ context.Context, _ models.ExecutionContext, _ map[string]any, _ map[string]any) (map[string]any, error) {
	outputs := make(map[string]any, len(n.values))
	for port, value := range n.values {
		outputs[port] = value
	}

	return outputs, nil
}

// Register adds the built-in source behaviors to the catalog.
func Register(c *catalog.Catalog) {
	c.Register(catalog.NewFactory(models.CategorySource, "static", staticSchema(), NewStaticNode))
}

func staticSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"values": map[string]any{
				"type":          "object",
				"minProperties": 1,
			},
		},
		"required": []any{"values"},
	}
}
