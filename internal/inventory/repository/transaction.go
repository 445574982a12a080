package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/healthstock/healthstock-backend/pkg/database"
)

// Transaction types
const (
	TransactionRestock  = "restock"
	TransactionConsume  = "consume"
	TransactionAdjust   = "adjust"
	TransactionTransfer = "transfer"
	TransactionExpired  = "expired"
)

// StockTransaction is an immutable audit record of one quantity change.
// new_quantity always equals previous_quantity + quantity_change, and
// previous_quantity is the item's quantity read under the same row lock
// as the write, so consecutive records chain without gaps.
type StockTransaction struct {
	ID               string    `db:"id" json:"id"`
	InventoryItemID  string    `db:"inventory_item_id" json:"inventory_item"`
	ItemName         *string   `db:"item_name" json:"item_name,omitempty"`
	TransactionType  string    `db:"transaction_type" json:"transaction_type"`
	QuantityChange   int       `db:"quantity_change" json:"quantity_change"`
	PreviousQuantity int       `db:"previous_quantity" json:"previous_quantity"`
	NewQuantity      int       `db:"new_quantity" json:"new_quantity"`
	Notes            *string   `db:"notes" json:"notes,omitempty"`
	PerformedBy      *string   `db:"performed_by" json:"performed_by,omitempty"`
	PerformedByName  *string   `db:"performed_by_name" json:"performed_by_name,omitempty"`
	PerformedAt      time.Time `db:"performed_at" json:"performed_at"`
}

// TransactionRepository handles the append-only stock transaction log
type TransactionRepository struct {
	db *database.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Append records a stock transaction. Records are never updated or deleted
// by the application; they only disappear when their item is deleted.
func (r *TransactionRepository) Append(ctx context.Context, txn *StockTransaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}

	query := `
		INSERT INTO stock_transactions (
			id, inventory_item_id, transaction_type, quantity_change,
			previous_quantity, new_quantity, notes, performed_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING performed_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		txn.ID, txn.InventoryItemID, txn.TransactionType, txn.QuantityChange,
		txn.PreviousQuantity, txn.NewQuantity, txn.Notes, txn.PerformedBy,
	).Scan(&txn.PerformedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// List returns transactions newest first, optionally filtered by item
func (r *TransactionRepository) List(ctx context.Context, itemID string, page, perPage int) ([]*StockTransaction, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM stock_transactions`
	args := []interface{}{}

	if itemID != "" {
		countQuery += ` WHERE inventory_item_id = $1`
		args = append(args, itemID)
	}

	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT t.id, t.inventory_item_id, i.name AS item_name, t.transaction_type,
		       t.quantity_change, t.previous_quantity, t.new_quantity, t.notes,
		       t.performed_by, u.username AS performed_by_name, t.performed_at
		FROM stock_transactions t
		JOIN inventory_items i ON i.id = t.inventory_item_id
		LEFT JOIN users u ON u.id = t.performed_by
	`
	if itemID != "" {
		query += ` WHERE t.inventory_item_id = $1 ORDER BY t.performed_at DESC LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY t.performed_at DESC LIMIT $1 OFFSET $2`
	}
	args = append(args, perPage, (page-1)*perPage)

	var txns []*StockTransaction
	if err := r.db.SelectContext(ctx, &txns, query, args...); err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

// ListByItem returns all transactions for one item, oldest first, for
// audit-chain verification.
func (r *TransactionRepository) ListByItem(ctx context.Context, itemID string) ([]*StockTransaction, error) {
	query := `
		SELECT id, inventory_item_id, transaction_type, quantity_change,
		       previous_quantity, new_quantity, notes, performed_by, performed_at
		FROM stock_transactions
		WHERE inventory_item_id = $1
		ORDER BY performed_at
	`

	var txns []*StockTransaction
	if err := r.db.SelectContext(ctx, &txns, query, itemID); err != nil {
		return nil, err
	}
	return txns, nil
}
