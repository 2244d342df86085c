package condition

import (
	"github.com/avollo/tradewind/pkg/catalog"
	"github.com/avollo/tradewind/pkg/models"
)

// Register adds every built-in condition behavior to the catalog.
func Register(c *catalog.Catalog) {
	c.Register(catalog.NewFactory(models.CategoryCondition, "threshold", thresholdSchema(), NewThresholdNode))
	c.Register(catalog.NewFactory(models.CategoryCondition, "compare", compareSchema(), NewCompareNode))
	c.Register(catalog.NewFactory(models.CategoryCondition, "and", nil, NewAndNode))
	c.Register(catalog.NewFactory(models.CategoryCondition, "or", nil, NewOrNode))
	c.Register(catalog.NewFactory(models.CategoryCondition, "if", nil, NewIfNode))
}

func thresholdSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"min": map[string]any{"type": "number"},
			"max": map[string]any{"type": "number"},
		},
		"anyOf": []any{
			map[string]any{"required": []any{"min"}},
			map[string]any{"required": []any{"max"}},
		},
	}
}

func compareSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operator": map[string]any{
				"type": "string",
				"enum": []any{"gt", "gte", "lt", "lte", "eq", "ne"},
			},
			"right": map[string]any{"type": "number"},
		},
		"required": []any{"operator"},
	}
}
