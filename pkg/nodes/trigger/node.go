// Package trigger provides the manual trigger behavior: a boolean signal
// producer with no inputs.
package trigger

import (
	"context"

	"github.com/avollo/tradewind/pkg/catalog"
	"github.com/avollo/tradewind/pkg/models"
)

const OutputSignal = "signal"

type manualNode struct {
	signal bool
}

// NewManualNode produces the configured signal, defaulting to true so a
// bare trigger block fires its downstream path.
func NewManualNode(config map[string]any) (catalog.Behavior, error) {
	signal := true

	if raw, ok := config["signal"]; ok {
		signal = models.Truthy(raw)
	}

	return &manualNode{signal: signal}, nil
}

func (n *manualNode) Execute(_ context.Context, _ models.ExecutionContext, _ map[string]any, _ map[string]any) (map[string]any, error) {
	return map[string]any{OutputSignal: n.signal}, nil
}

// Register adds the built-in trigger behaviors to the catalog.
func Register(c *catalog.Catalog) {
	c.Register(catalog.NewFactory(models.CategoryTrigger, "manual", nil, NewManualNode))
}
