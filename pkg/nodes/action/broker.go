// Package action provides the built-in trading action behaviors: buy,
// sell, cancel and notify. Side effects go through the Broker and
// Notifier collaborators so exchange adapters stay swappable.
package action

import (
	"context"
	"time"
)

// OrderSide distinguishes buys from sells on the broker contract.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderRequest is what an action node asks its broker to do.
type OrderRequest struct {
	Symbol   string    `json:"symbol"`
	Side     OrderSide `json:"side"`
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price,omitempty"` // zero means market order
}

// Order is the broker's descriptor for a placed order.
type Order struct {
	ID       string    `json:"id"`
	Symbol   string    `json:"symbol"`
	Side     OrderSide `json:"side"`
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price,omitempty"`
	PlacedAt time.Time `json:"placed_at"`
}

// Broker is the external order-placement collaborator.
type Broker interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (*Order, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// Notifier is the external notification collaborator.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}
