package events

import (
	"context"

	"github.com/healthstock/healthstock-backend/internal/inventory/repository"
	"github.com/healthstock/healthstock-backend/pkg/logger"
	"github.com/healthstock/healthstock-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory-related events. All publishes
// are fire-and-forget: failures are logged and never fail the operation.
// A nil publisher is a no-op, so the broker is optional.
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "healthstock", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishStockAdjusted publishes a stock adjusted event
func (p *InventoryEventPublisher) PublishStockAdjusted(ctx context.Context, txn *repository.StockTransaction) {
	if p == nil {
		return
	}

	performedBy := ""
	if txn.PerformedBy != nil {
		performedBy = *txn.PerformedBy
	}

	data := messaging.StockAdjustedEvent{
		ItemID:           txn.InventoryItemID,
		TransactionID:    txn.ID,
		TransactionType:  txn.TransactionType,
		QuantityChange:   txn.QuantityChange,
		PreviousQuantity: txn.PreviousQuantity,
		NewQuantity:      txn.NewQuantity,
		PerformedBy:      performedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockAdjusted, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", txn.InventoryItemID).Msg("failed to publish stock adjusted event")
	}
}

// PublishItemChanged publishes an item changed notification for live listeners
func (p *InventoryEventPublisher) PublishItemChanged(ctx context.Context, item *repository.InventoryItem, change string) {
	if p == nil {
		return
	}

	data := messaging.ItemChangedEvent{
		ItemID:   item.ID,
		SKU:      item.SKU,
		Quantity: item.Quantity,
		Change:   change,
	}

	if err := p.publisher.Publish(ctx, messaging.EventItemChanged, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish item changed event")
	}
}

// PublishAlertGenerated publishes an alert generated event
func (p *InventoryEventPublisher) PublishAlertGenerated(ctx context.Context, alertID, alertType, severity, message, itemID string) {
	if p == nil {
		return
	}

	data := messaging.AlertGeneratedEvent{
		AlertID:  alertID,
		Type:     alertType,
		Severity: severity,
		Message:  message,
		ItemID:   itemID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAlertGenerated, data); err != nil {
		p.logger.Error().Err(err).Str("alert_id", alertID).Msg("failed to publish alert generated event")
	}
}
