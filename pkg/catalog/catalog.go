// Package catalog provides the registry mapping (category, type) pairs to
// pluggable node behaviors. Built-in condition, action, trigger and risk
// behaviors register here at process startup; source behaviors performing
// real I/O are always supplied externally.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/avollo/tradewind/pkg/models"
)

// Behavior executes one block: a function of (config, inputs) producing
// named outputs. Condition, risk and trigger behaviors must be pure;
// source and action behaviors may perform side effects.
type Behavior interface {
	Execute(ctx context.Context, run models.ExecutionContext, config map[string]any, inputs map[string]any) (map[string]any, error)
}

// Factory creates behavior instances and describes the node type.
type Factory interface {
	// Create builds a behavior for one block. Config has already been
	// validated against Schema when a schema is declared.
	Create(config map[string]any) (Behavior, error)

	// Category returns the block category this factory serves.
	Category() models.Category

	// Type returns the type tag within the category.
	Type() string

	// Schema returns the JSON schema for the block config, or nil when the
	// type accepts any config.
	Schema() map[string]any
}

// Key identifies a node behavior in the catalog.
type Key struct {
	Category models.Category
	Type     string
}

func (k Key) String() string {
	return string(k.Category) + ":" + k.Type
}

// Catalog is the single behavior registry. Registration happens during
// startup; lookups afterwards are read-only, so no locking is needed.
type Catalog struct {
	logger    *slog.Logger
	factories map[Key]Factory
}

func New(logger *slog.Logger) *Catalog {
	return &Catalog{
		logger:    logger.With("module", "catalog"),
		factories: make(map[Key]Factory),
	}
}

// Register adds a factory for its (category, type) pair, replacing any
// previous registration for the same key.
func (c *Catalog) Register(factory Factory) {
	key := Key{Category: factory.Category(), Type: factory.Type()}
	c.factories[key] = factory
	c.logger.Debug("Registered node behavior", "key", key.String())
}

// Registered reports whether a behavior exists for the key.
func (c *Catalog) Registered(category models.Category, nodeType string) bool {
	_, ok := c.factories[Key{Category: category, Type: nodeType}]

	return ok
}

// Create validates config against the factory's schema and builds a
// behavior instance for the block.
func (c *Catalog) Create(category models.Category, nodeType string, config map[string]any) (Behavior, error) {
	key := Key{Category: category, Type: nodeType}

	factory, ok := c.factories[key]
	if !ok {
		return nil, fmt.Errorf("node behavior %q not registered", key.String())
	}

	if schema := factory.Schema(); schema != nil {
		if err := validateConfig(key, schema, config); err != nil {
			return nil, err
		}
	}

	return factory.Create(config)
}

func validateConfig(key Key, schema, config map[string]any) error {
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("schema validation for %q: %w", key.String(), err)
	}

	if !result.Valid() {
		first := result.Errors()[0]

		return fmt.Errorf("invalid config for %q: %s", key.String(), first.String())
	}

	return nil
}
