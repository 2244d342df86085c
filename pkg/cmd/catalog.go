// Package cmd provides common initialization for the command-line
// binaries.
package cmd

import (
	"log/slog"

	"github.com/avollo/tradewind/pkg/catalog"
	"github.com/avollo/tradewind/pkg/emergency"
	"github.com/avollo/tradewind/pkg/nodes/action"
	"github.com/avollo/tradewind/pkg/nodes/condition"
	"github.com/avollo/tradewind/pkg/nodes/risk"
	"github.com/avollo/tradewind/pkg/nodes/source"
	"github.com/avollo/tradewind/pkg/nodes/trigger"
)

// NewCatalog builds a catalog with every built-in behavior registered.
// Real source providers are registered by the caller on top of this.
func NewCatalog(logger *slog.Logger, controller *emergency.Controller, broker action.Broker, notifier action.Notifier) *catalog.Catalog {
	cat := catalog.New(logger)

	condition.Register(cat)
	trigger.Register(cat)
	source.Register(cat)
	risk.Register(cat, controller)
	action.Register(cat, broker, notifier)

	return cat
}
