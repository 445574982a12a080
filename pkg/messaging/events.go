package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Inventory events
	EventItemChanged    = "inventory.item.changed"
	EventStockAdjusted  = "inventory.stock.adjusted"
	EventAlertGenerated = "inventory.alert.generated"

	// Order events
	EventOrderCreated       = "orders.order.created"
	EventOrderStatusChanged = "orders.order.status_changed"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
	ExchangeOrderEvents     = "orders.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// StockAdjustedEvent is emitted after a stock adjustment commits
type StockAdjustedEvent struct {
	ItemID           string `json:"item_id"`
	TransactionID    string `json:"transaction_id"`
	TransactionType  string `json:"transaction_type"`
	QuantityChange   int    `json:"quantity_change"`
	PreviousQuantity int    `json:"previous_quantity"`
	NewQuantity      int    `json:"new_quantity"`
	PerformedBy      string `json:"performed_by,omitempty"`
}

// ItemChangedEvent is a fire-and-forget notification for live listeners.
// No delivery guarantee.
type ItemChangedEvent struct {
	ItemID   string `json:"item_id"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Change   string `json:"change"`
}

// AlertGeneratedEvent is emitted when a stock alert is stored
type AlertGeneratedEvent struct {
	AlertID  string `json:"alert_id"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	ItemID   string `json:"item_id,omitempty"`
}

// OrderCreatedEvent is emitted after a purchase order commits
type OrderCreatedEvent struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	SupplierID  string `json:"supplier_id"`
	TotalAmount string `json:"total_amount"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// OrderStatusChangedEvent is emitted when an order moves to a new status
type OrderStatusChangedEvent struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	ChangedBy   string `json:"changed_by,omitempty"`
}
