package events

import (
	"context"

	"github.com/healthstock/healthstock-backend/internal/orders/repository"
	"github.com/healthstock/healthstock-backend/pkg/logger"
	"github.com/healthstock/healthstock-backend/pkg/messaging"
)

// OrderEventPublisher publishes order lifecycle events. Publishes are
// fire-and-forget and a nil publisher is a no-op.
type OrderEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewOrderEventPublisher creates a new order event publisher
func NewOrderEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*OrderEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeOrderEvents, "healthstock", log)
	if err != nil {
		return nil, err
	}

	return &OrderEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishOrderCreated publishes an order created event
func (p *OrderEventPublisher) PublishOrderCreated(ctx context.Context, order *repository.PurchaseOrder) {
	if p == nil {
		return
	}

	createdBy := ""
	if order.CreatedBy != nil {
		createdBy = *order.CreatedBy
	}

	data := messaging.OrderCreatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		SupplierID:  order.SupplierID,
		TotalAmount: order.TotalAmount.StringFixed(2),
		CreatedBy:   createdBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventOrderCreated, data); err != nil {
		p.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to publish order created event")
	}
}

// PublishOrderStatusChanged publishes an order status changed event
func (p *OrderEventPublisher) PublishOrderStatusChanged(ctx context.Context, order *repository.PurchaseOrder, changedBy string) {
	if p == nil {
		return
	}

	data := messaging.OrderStatusChangedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		ChangedBy:   changedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventOrderStatusChanged, data); err != nil {
		p.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to publish order status changed event")
	}
}
