package service

import (
	"context"
	"fmt"

	alertsrepo "github.com/healthstock/healthstock-backend/internal/alerts/repository"
	"github.com/healthstock/healthstock-backend/internal/inventory/events"
	"github.com/healthstock/healthstock-backend/internal/inventory/repository"
	"github.com/healthstock/healthstock-backend/pkg/actor"
	"github.com/healthstock/healthstock-backend/pkg/database"
	"github.com/healthstock/healthstock-backend/pkg/errors"
	"github.com/healthstock/healthstock-backend/pkg/logger"
)

// InventoryService handles inventory business logic
type InventoryService struct {
	db        *database.DB
	itemRepo  *repository.ItemRepository
	txnRepo   *repository.TransactionRepository
	alertRepo *alertsrepo.AlertRepository
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	db *database.DB,
	itemRepo *repository.ItemRepository,
	txnRepo *repository.TransactionRepository,
	alertRepo *alertsrepo.AlertRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *InventoryService {
	return &InventoryService{
		db:        db,
		itemRepo:  itemRepo,
		txnRepo:   txnRepo,
		alertRepo: alertRepo,
		publisher: publisher,
		logger:    log,
	}
}

// AdjustStockRequest carries a stock adjustment. QuantityChange is a pointer
// so an absent field is distinguishable from an explicit zero.
type AdjustStockRequest struct {
	QuantityChange  *int    `json:"quantity_change"`
	TransactionType string  `json:"transaction_type"`
	Notes           *string `json:"notes"`
}

// AdjustStock applies a signed quantity delta to an item and appends a
// matching transaction record.
//
// The previous-quantity read, the quantity write, and the transaction insert
// run in one database transaction with the item row locked (SELECT FOR
// UPDATE), so concurrent adjustments on the same item serialize and no
// update is lost. Resulting quantities are unbounded: going negative is
// allowed and flagged through alerts, not blocked.
func (s *InventoryService) AdjustStock(ctx context.Context, itemID string, req AdjustStockRequest, by *actor.Actor) (*repository.InventoryItem, *repository.StockTransaction, error) {
	if req.QuantityChange == nil {
		return nil, nil, errors.BadRequest("quantity_change is required")
	}

	transactionType := req.TransactionType
	if transactionType == "" {
		transactionType = repository.TransactionAdjust
	}

	txn := &repository.StockTransaction{
		InventoryItemID: itemID,
		TransactionType: transactionType,
		QuantityChange:  *req.QuantityChange,
		Notes:           req.Notes,
	}
	if by != nil {
		txn.PerformedBy = &by.ID
	}

	var item *repository.InventoryItem
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		previous, err := s.itemRepo.QuantityForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		txn.PreviousQuantity = previous
		txn.NewQuantity = previous + txn.QuantityChange

		if err := s.itemRepo.SetQuantity(ctx, itemID, txn.NewQuantity); err != nil {
			return err
		}

		if err := s.txnRepo.Append(ctx, txn); err != nil {
			return err
		}

		// Read the full row while it is still locked. A re-read after
		// commit could miss the item if a concurrent request deletes it.
		item, err = s.itemRepo.GetByID(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.publisher.PublishStockAdjusted(ctx, txn)
	s.publisher.PublishItemChanged(ctx, item, transactionType)

	s.checkLowStock(ctx, item)

	s.logger.Info().
		Str("item_id", itemID).
		Str("transaction_type", transactionType).
		Int("quantity_change", txn.QuantityChange).
		Int("new_quantity", txn.NewQuantity).
		Str("actor", by.String()).
		Msg("stock adjusted")

	return item, txn, nil
}

// checkLowStock stores a low-stock alert after an adjustment leaves the item
// under its minimum. Alert creation is best-effort and never fails the
// adjustment.
func (s *InventoryService) checkLowStock(ctx context.Context, item *repository.InventoryItem) {
	if s.alertRepo == nil || item.Quantity >= item.MinimumStock {
		return
	}

	severity := alertsrepo.SeverityHigh
	if item.Quantity <= 0 {
		severity = alertsrepo.SeverityCritical
	}

	alert := &alertsrepo.Alert{
		Type:          alertsrepo.TypeLowStock,
		Severity:      severity,
		Message:       fmt.Sprintf("%s (%s) is below minimum stock: %d/%d", item.Name, item.SKU, item.Quantity, item.MinimumStock),
		RelatedItemID: &item.ID,
	}

	if err := s.alertRepo.Create(ctx, alert); err != nil {
		s.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to create low stock alert")
		return
	}

	s.publisher.PublishAlertGenerated(ctx, alert.ID, alert.Type, alert.Severity, alert.Message, item.ID)
}

// Item CRUD passthroughs

// CreateItem creates a new inventory item
func (s *InventoryService) CreateItem(ctx context.Context, item *repository.InventoryItem) error {
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return err
	}
	s.publisher.PublishItemChanged(ctx, item, "created")
	return nil
}

// GetItem gets an item by ID
func (s *InventoryService) GetItem(ctx context.Context, id string) (*repository.InventoryItem, error) {
	return s.itemRepo.GetByID(ctx, id)
}

// ListItems lists items with pagination
func (s *InventoryService) ListItems(ctx context.Context, page, perPage int, category string) ([]*repository.InventoryItem, int64, error) {
	return s.itemRepo.List(ctx, page, perPage, category)
}

// ListLowStock returns items under their minimum stock threshold
func (s *InventoryService) ListLowStock(ctx context.Context) ([]*repository.InventoryItem, error) {
	return s.itemRepo.ListLowStock(ctx)
}

// UpdateItem updates an inventory item
func (s *InventoryService) UpdateItem(ctx context.Context, item *repository.InventoryItem) error {
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return err
	}
	s.publisher.PublishItemChanged(ctx, item, "updated")
	return nil
}

// DeleteItem deletes an inventory item and its transaction history
func (s *InventoryService) DeleteItem(ctx context.Context, id string) error {
	return s.itemRepo.Delete(ctx, id)
}

// ListTransactions lists stock transactions newest first
func (s *InventoryService) ListTransactions(ctx context.Context, itemID string, page, perPage int) ([]*repository.StockTransaction, int64, error) {
	return s.txnRepo.List(ctx, itemID, page, perPage)
}
