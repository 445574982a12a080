package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/healthstock/healthstock-backend/pkg/database"
	"github.com/healthstock/healthstock-backend/pkg/errors"
)

// Order statuses. The source system enforces no transition rules, so any
// status can be written at any time; cancelled is terminal by convention only.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusOrdered   = "ordered"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// PurchaseOrder is an order placed with a supplier. total_amount is derived
// from the line totals at creation time and never re-computed afterwards.
type PurchaseOrder struct {
	ID               string          `db:"id" json:"id"`
	OrderNumber      string          `db:"order_number" json:"order_number"`
	SupplierID       string          `db:"supplier_id" json:"supplier"`
	SupplierName     *string         `db:"supplier_name" json:"supplier_name,omitempty"`
	OrderDate        time.Time       `db:"order_date" json:"order_date"`
	ExpectedDelivery *time.Time      `db:"expected_delivery" json:"expected_delivery,omitempty"`
	Status           string          `db:"status" json:"status"`
	TotalAmount      decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedBy        *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedByName    *string         `db:"created_by_name" json:"created_by_name,omitempty"`
	ApprovedBy       *string         `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedByName   *string         `db:"approved_by_name" json:"approved_by_name,omitempty"`
	Notes            *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`

	Items []*OrderItem `db:"-" json:"items"`
}

// OrderItem is one line of a purchase order. total_price is computed once at
// write time (quantity x unit_price) and never re-derived, so later changes
// to the item's unit price do not touch existing orders.
type OrderItem struct {
	ID                string          `db:"id" json:"id"`
	OrderID           string          `db:"order_id" json:"-"`
	InventoryItemID   string          `db:"inventory_item_id" json:"inventory_item"`
	InventoryItemName *string         `db:"inventory_item_name" json:"inventory_item_name,omitempty"`
	InventoryItemSKU  *string         `db:"inventory_item_sku" json:"inventory_item_sku,omitempty"`
	Quantity          int             `db:"quantity" json:"quantity"`
	UnitPrice         decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice        decimal.Decimal `db:"total_price" json:"total_price"`
}

// OrderRepository handles purchase order persistence
type OrderRepository struct {
	db *database.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Insert writes the order header. Intended to run inside the creation
// transaction so a later line failure rolls it back.
func (r *OrderRepository) Insert(ctx context.Context, order *PurchaseOrder) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = StatusPending
	}

	query := `
		INSERT INTO purchase_orders (
			id, order_number, supplier_id, order_date, expected_delivery,
			status, total_amount, created_by, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		order.ID, order.OrderNumber, order.SupplierID, order.OrderDate,
		order.ExpectedDelivery, order.Status, order.TotalAmount,
		order.CreatedBy, order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// InsertItem writes one order line with its precomputed total
func (r *OrderRepository) InsertItem(ctx context.Context, item *OrderItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO order_items (id, order_id, inventory_item_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.OrderID, item.InventoryItemID, item.Quantity,
		item.UnitPrice, item.TotalPrice,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// SetTotalAmount writes the derived order total after all lines are in
func (r *OrderRepository) SetTotalAmount(ctx context.Context, orderID string, total decimal.Decimal) error {
	query := `UPDATE purchase_orders SET total_amount = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, orderID, total)
	return err
}

const orderColumns = `
	o.id, o.order_number, o.supplier_id, s.name AS supplier_name, o.order_date,
	o.expected_delivery, o.status, o.total_amount, o.created_by,
	cu.username AS created_by_name, o.approved_by, au.username AS approved_by_name,
	o.notes, o.created_at, o.updated_at`

const orderJoins = `
	FROM purchase_orders o
	JOIN suppliers s ON s.id = o.supplier_id
	LEFT JOIN users cu ON cu.id = o.created_by
	LEFT JOIN users au ON au.id = o.approved_by`

// GetByID gets an order with its lines
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*PurchaseOrder, error) {
	var order PurchaseOrder
	query := `SELECT ` + orderColumns + orderJoins + ` WHERE o.id = $1`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("purchase order")
		}
		return nil, err
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *OrderRepository) listItems(ctx context.Context, orderID string) ([]*OrderItem, error) {
	var items []*OrderItem
	query := `
		SELECT oi.id, oi.order_id, oi.inventory_item_id, i.name AS inventory_item_name,
		       i.sku AS inventory_item_sku, oi.quantity, oi.unit_price, oi.total_price
		FROM order_items oi
		JOIN inventory_items i ON i.id = oi.inventory_item_id
		WHERE oi.order_id = $1
		ORDER BY i.name
	`
	if err := r.db.SelectContext(ctx, &items, query, orderID); err != nil {
		return nil, err
	}
	return items, nil
}

// List lists orders newest first with pagination
func (r *OrderRepository) List(ctx context.Context, page, perPage int, status string) ([]*PurchaseOrder, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM purchase_orders o`
	args := []interface{}{}

	if status != "" {
		countQuery += ` WHERE o.status = $1`
		args = append(args, status)
	}

	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + orderJoins
	if status != "" {
		query += ` WHERE o.status = $1 ORDER BY o.created_at DESC LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY o.created_at DESC LIMIT $1 OFFSET $2`
	}
	args = append(args, perPage, (page-1)*perPage)

	var orders []*PurchaseOrder
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, err
	}

	for _, order := range orders {
		items, err := r.listItems(ctx, order.ID)
		if err != nil {
			return nil, 0, err
		}
		order.Items = items
	}

	return orders, total, nil
}

// UpdateStatus updates an order's status, recording the approver when the
// order moves to approved.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string, approvedBy *string) error {
	query := `
		UPDATE purchase_orders
		SET status = $2,
		    approved_by = COALESCE($3, approved_by),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, status, approvedBy)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("purchase order")
	}
	return nil
}

// Delete removes an order and its lines (cascade)
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("purchase order")
	}
	return nil
}
