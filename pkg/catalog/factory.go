package catalog

import (
	"context"

	"github.com/avollo/tradewind/pkg/models"
)

// funcFactory adapts a schema and a constructor function into a Factory,
// the registration shape all built-in node packages use.
type funcFactory struct {
	category models.Category
	nodeType string
	schema   map[string]any
	create   func(config map[string]any) (Behavior, error)
}

// NewFactory builds a Factory from a constructor function.
func NewFactory(category models.Category, nodeType string, schema map[string]any, create func(config map[string]any) (Behavior, error)) Factory {
	return &funcFactory{
		category: category,
		nodeType: nodeType,
		schema:   schema,
		create:   create,
	}
}

func (f *funcFactory) Create(config map[string]any) (Behavior, error) {
	return f.create(config)
}

func (f *funcFactory) Category() models.Category { return f.category }

func (f *funcFactory) Type() string { return f.nodeType }

func (f *funcFactory) Schema() map[string]any { return f.schema }

// BehaviorFunc adapts a plain function to the Behavior interface, mainly
// for externally supplied source behaviors.
type BehaviorFunc func(ctx context.Context, run models.ExecutionContext, config map[string]any, inputs map[string]any) (map[string]any, error)

func (f BehaviorFunc) Execute(ctx context.Context, run models.ExecutionContext, config map[string]any, inputs map[string]any) (map[string]any, error) {
	return f(ctx, run, config, inputs)
}
