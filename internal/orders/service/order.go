package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/healthstock/healthstock-backend/internal/orders/events"
	"github.com/healthstock/healthstock-backend/internal/orders/repository"
	"github.com/healthstock/healthstock-backend/pkg/actor"
	"github.com/healthstock/healthstock-backend/pkg/database"
	"github.com/healthstock/healthstock-backend/pkg/errors"
	"github.com/healthstock/healthstock-backend/pkg/logger"
)

// OrderService handles purchase order business logic
type OrderService struct {
	db        *database.DB
	orderRepo *repository.OrderRepository
	publisher *events.OrderEventPublisher
	logger    *logger.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	db *database.DB,
	orderRepo *repository.OrderRepository,
	publisher *events.OrderEventPublisher,
	log *logger.Logger,
) *OrderService {
	return &OrderService{
		db:        db,
		orderRepo: orderRepo,
		publisher: publisher,
		logger:    log,
	}
}

// OrderLineRequest is one requested line of a new purchase order
type OrderLineRequest struct {
	InventoryItemID string          `json:"inventory_item" validate:"required,uuid"`
	Quantity        int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest carries a new purchase order with its lines
type CreateOrderRequest struct {
	OrderNumber      string             `json:"order_number" validate:"required"`
	SupplierID       string             `json:"supplier" validate:"required,uuid"`
	OrderDate        *time.Time         `json:"order_date"`
	ExpectedDelivery *time.Time         `json:"expected_delivery"`
	Notes            *string            `json:"notes"`
	Items            []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder creates a purchase order with all its lines in one database
// transaction. A failure on any line (unknown item, bad quantity) rolls back
// the whole order, so no header without lines is ever visible.
//
// Each line total is quantity × unit_price at 2 decimal places; the order
// total is the sum of line totals. Status always starts at pending and
// created_by is the authenticated actor, never a client-supplied value.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest, by *actor.Actor) (*repository.PurchaseOrder, error) {
	for _, line := range req.Items {
		if line.UnitPrice.IsNegative() {
			return nil, errors.BadRequest("unit_price must not be negative")
		}
	}

	orderDate := time.Now().UTC()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	order := &repository.PurchaseOrder{
		OrderNumber:      req.OrderNumber,
		SupplierID:       req.SupplierID,
		OrderDate:        orderDate,
		ExpectedDelivery: req.ExpectedDelivery,
		Status:           repository.StatusPending,
		TotalAmount:      decimal.Zero,
		Notes:            req.Notes,
	}
	if by != nil {
		order.CreatedBy = &by.ID
	}

	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.Insert(ctx, order); err != nil {
			return err
		}

		total := decimal.Zero
		for _, line := range req.Items {
			item := &repository.OrderItem{
				OrderID:         order.ID,
				InventoryItemID: line.InventoryItemID,
				Quantity:        line.Quantity,
				UnitPrice:       line.UnitPrice.Round(2),
			}
			item.TotalPrice = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)

			if err := s.orderRepo.InsertItem(ctx, item); err != nil {
				return err
			}
			total = total.Add(item.TotalPrice)
		}

		order.TotalAmount = total
		return s.orderRepo.SetTotalAmount(ctx, order.ID, total)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishOrderCreated(ctx, created)

	s.logger.Info().
		Str("order_id", created.ID).
		Str("order_number", created.OrderNumber).
		Str("total_amount", created.TotalAmount.StringFixed(2)).
		Int("lines", len(created.Items)).
		Str("actor", by.String()).
		Msg("purchase order created")

	return created, nil
}

// GetOrder gets an order with its lines
func (s *OrderService) GetOrder(ctx context.Context, id string) (*repository.PurchaseOrder, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// ListOrders lists orders newest first
func (s *OrderService) ListOrders(ctx context.Context, page, perPage int, status string) ([]*repository.PurchaseOrder, int64, error) {
	return s.orderRepo.List(ctx, page, perPage, status)
}

var validStatuses = map[string]bool{
	repository.StatusPending:   true,
	repository.StatusApproved:  true,
	repository.StatusOrdered:   true,
	repository.StatusDelivered: true,
	repository.StatusCancelled: true,
}

// UpdateStatus moves an order to a new status. Moving to approved records the
// acting user as approver. Delivery does not touch stock levels; received
// goods are booked through a separate stock adjustment.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string, by *actor.Actor) (*repository.PurchaseOrder, error) {
	if !validStatuses[status] {
		return nil, errors.BadRequest("invalid order status")
	}

	var approvedBy *string
	if status == repository.StatusApproved && by != nil {
		approvedBy = &by.ID
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status, approvedBy); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changedBy := ""
	if by != nil {
		changedBy = by.ID
	}
	s.publisher.PublishOrderStatusChanged(ctx, order, changedBy)

	s.logger.Info().
		Str("order_id", id).
		Str("status", status).
		Str("actor", by.String()).
		Msg("order status updated")

	return order, nil
}

// DeleteOrder deletes an order and its lines
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	return s.orderRepo.Delete(ctx, id)
}
