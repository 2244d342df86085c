package action

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PaperBroker is a dry-run broker: it records orders in memory and
// performs no real trading. The runner binary defaults to it so workflows
// can be exercised without exchange credentials.
type PaperBroker struct {
	logger *slog.Logger

	mu     sync.Mutex
	orders map[string]Order
}

func NewPaperBroker(logger *slog.Logger) *PaperBroker {
	return &PaperBroker{
		logger: logger.With("module", "paper_broker"),
		orders: make(map[string]Order),
	}
}

func (b *PaperBroker) PlaceOrder(_ context.Context, req OrderRequest) (*Order, error) {
	order := Order{
		ID:       "order-" + uuid.New().String()[:8],
		Symbol:   req.Symbol,
		Side:     req.Side,
		Quantity: req.Quantity,
		Price:    req.Price,
		PlacedAt: time.Now(),
	}

	b.mu.Lock()
	b.orders[order.ID] = order
	b.mu.Unlock()

	b.logger.Info("Paper order placed",
		"order_id", order.ID,
		"symbol", order.Symbol,
		"side", order.Side,
		"quantity", order.Quantity)

	return &order, nil
}

func (b *PaperBroker) CancelOrder(_ context.Context, orderID string) error {
	b.mu.Lock()
	delete(b.orders, orderID)
	b.mu.Unlock()

	b.logger.Info("Paper order cancelled", "order_id", orderID)

	return nil
}

// Orders returns a snapshot of the open paper orders.
func (b *PaperBroker) Orders() []Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	orders := make([]Order, 0, len(b.orders))
	for _, order := range b.orders {
		orders = append(orders, order)
	}

	return orders
}

// LogNotifier writes notifications to the process log instead of an
// external channel.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "log_notifier")}
}

func (n *LogNotifier) Send(_ context.Context, subject, body string) error {
	n.logger.Info("Notification", "subject", subject, "body", body)

	return nil
}
