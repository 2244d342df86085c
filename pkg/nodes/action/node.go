package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/avollo/tradewind/pkg/catalog"
	"github.com/avollo/tradewind/pkg/models"
)

const (
	InputSignal  = "signal"
	InputOrderID = "order_id"
	InputMessage = "message"

	OutputOrder     = "order"
	OutputCancelled = "cancelled"
	OutputSent      = "sent"
)

// orderNode places a buy or sell order when its signal input is truthy.
// A falsy signal produces an empty result without touching the broker.
type orderNode struct {
	broker   Broker
	side     OrderSide
	symbol   string
	quantity float64
	price    float64
}

func newOrderNode(broker Broker, side OrderSide, config map[string]any) (catalog.Behavior, error) {
	symbol, _ := config["symbol"].(string)
	if symbol == "" {
		return nil, errors.New("order action requires 'symbol'")
	}

	quantity, err := models.Number(config["quantity"])
	if err != nil || quantity <= 0 {
		return nil, errors.New("order action requires a positive 'quantity'")
	}

	node := &orderNode{
		broker:   broker,
		side:     side,
		symbol:   symbol,
		quantity: quantity,
	}

	if raw, ok := config["price"]; ok {
		price, err := models.Number(raw)
		if err != nil {
			return nil, fmt.Errorf("order price: %w", err)
		}

		node.price = price
	}

	return node, nil
}

func (n *orderNode) Execute(ctx context.Context, _ models.ExecutionContext, _ map[string]any, inputs map[string]any) (map[string]any, error) {
	if !models.Truthy(inputs[InputSignal]) {
		return map[string]any{OutputOrder: nil}, nil
	}

	order, err := n.broker.PlaceOrder(ctx, OrderRequest{
		Symbol:   n.symbol,
		Side:     n.side,
		Quantity: n.quantity,
		Price:    n.price,
	})
	if err != nil {
		return nil, fmt.Errorf("place %s order for %s: %w", n.side, n.symbol, err)
	}

	return map[string]any{
		OutputOrder: map[string]any{
			"id":       order.ID,
			"symbol":   order.Symbol,
			"side":     string(order.Side),
			"quantity": order.Quantity,
			"price":    order.Price,
		},
	}, nil
}

// cancelNode cancels the order named by its order_id input (or config)
// when signalled.
type cancelNode struct {
	broker  Broker
	orderID string
}

func newCancelNode(broker Broker, config map[string]any) (catalog.Behavior, error) {
	orderID, _ := config["order_id"].(string)

	return &cancelNode{broker: broker, orderID: orderID}, nil
}

func (n *cancelNode) Execute(ctx context.Context, _ models.ExecutionContext, _ map[string]any, inputs map[string]any) (map[string]any, error) {
	if !models.Truthy(inputs[InputSignal]) {
		return map[string]any{OutputCancelled: false}, nil
	}

	orderID := n.orderID

	if raw, ok := inputs[InputOrderID]; ok && !models.IsUnavailable(raw) {
		if fromInput, ok := raw.(string); ok && fromInput != "" {
			orderID = fromInput
		}
	}

	if orderID == "" {
		return nil, errors.New("cancel action has no order id from config or input")
	}

	if err := n.broker.CancelOrder(ctx, orderID); err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", orderID, err)
	}

	return map[string]any{OutputCancelled: true, "order_id": orderID}, nil
}

// notifyNode sends a message through the notifier when signalled.
type notifyNode struct {
	notifier Notifier
	subject  string
	body     string
}

func newNotifyNode(notifier Notifier, config map[string]any) (catalog.Behavior, error) {
	subject, _ := config["subject"].(string)
	if subject == "" {
		return nil, errors.New("notify action requires 'subject'")
	}

	body, _ := config["message"].(string)

	return &notifyNode{notifier: notifier, subject: subject, body: body}, nil
}

func (n *notifyNode) Execute(ctx context.Context, _ models.ExecutionContext, _ map[string]any, inputs map[string]any) (map[string]any, error) {
	if !models.Truthy(inputs[InputSignal]) {
		return map[string]any{OutputSent: false}, nil
	}

	body := n.body

	if raw, ok := inputs[InputMessage]; ok && !models.IsUnavailable(raw) {
		if fromInput, ok := raw.(string); ok && fromInput != "" {
			body = fromInput
		}
	}

	if err := n.notifier.Send(ctx, n.subject, body); err != nil {
		return nil, fmt.Errorf("send notification %q: %w", n.subject, err)
	}

	return map[string]any{OutputSent: true}, nil
}
