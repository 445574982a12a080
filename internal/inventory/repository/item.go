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

// Item categories
const (
	CategoryMedicine   = "medicine"
	CategoryEquipment  = "equipment"
	CategoryConsumable = "consumable"
)

// Expiry statuses derived from the expiry date
const (
	ExpiryValid        = "valid"
	ExpiryExpiringSoon = "expiring_soon"
	ExpiryExpired      = "expired"
)

// InventoryItem is a ledger item tracked by SKU. Quantity is mutated only
// through the stock adjustment service or a direct edit; negative quantities
// are allowed and surface through alerts rather than being blocked.
type InventoryItem struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Description   *string         `db:"description" json:"description,omitempty"`
	SKU           string          `db:"sku" json:"sku"`
	Category      string          `db:"category" json:"category"`
	Quantity      int             `db:"quantity" json:"quantity"`
	Unit          string          `db:"unit" json:"unit"`
	MinimumStock  int             `db:"minimum_stock" json:"minimum_stock"`
	MaximumStock  *int            `db:"maximum_stock" json:"maximum_stock,omitempty"`
	ExpiryDate    *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	BatchNumber   *string         `db:"batch_number" json:"batch_number,omitempty"`
	SupplierID    *string         `db:"supplier_id" json:"supplier,omitempty"`
	SupplierName  *string         `db:"supplier_name" json:"supplier_name,omitempty"`
	Location      *string         `db:"location" json:"location,omitempty"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	LastRestocked *time.Time      `db:"last_restocked" json:"last_restocked,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`

	// Derived, not stored
	ExpiryStatus string `db:"-" json:"expiry_status"`
}

// ComputeExpiryStatus derives the expiry status relative to now
func (i *InventoryItem) ComputeExpiryStatus(now time.Time) {
	if i.ExpiryDate == nil {
		i.ExpiryStatus = ExpiryValid
		return
	}
	today := now.Truncate(24 * time.Hour)
	switch {
	case i.ExpiryDate.Before(today):
		i.ExpiryStatus = ExpiryExpired
	case i.ExpiryDate.Before(today.Add(30 * 24 * time.Hour)):
		i.ExpiryStatus = ExpiryExpiringSoon
	default:
		i.ExpiryStatus = ExpiryValid
	}
}

const itemColumns = `
	i.id, i.name, i.description, i.sku, i.category, i.quantity, i.unit,
	i.minimum_stock, i.maximum_stock, i.expiry_date, i.batch_number,
	i.supplier_id, s.name AS supplier_name, i.location, i.unit_price,
	i.last_restocked, i.created_at, i.updated_at`

// ItemRepository handles inventory item persistence
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create creates a new inventory item
func (r *ItemRepository) Create(ctx context.Context, item *InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.MinimumStock == 0 {
		item.MinimumStock = 10
	}

	query := `
		INSERT INTO inventory_items (
			id, name, description, sku, category, quantity, unit, minimum_stock,
			maximum_stock, expiry_date, batch_number, supplier_id, location, unit_price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING last_restocked, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.Name, item.Description, item.SKU, item.Category,
		item.Quantity, item.Unit, item.MinimumStock, item.MaximumStock,
		item.ExpiryDate, item.BatchNumber, item.SupplierID, item.Location,
		item.UnitPrice,
	).Scan(&item.LastRestocked, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	item.ComputeExpiryStatus(time.Now())
	return nil
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*InventoryItem, error) {
	var item InventoryItem
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items i
		LEFT JOIN suppliers s ON s.id = i.supplier_id
		WHERE i.id = $1
	`
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("inventory item")
		}
		return nil, err
	}

	item.ComputeExpiryStatus(time.Now())
	return &item, nil
}

// QuantityForUpdate reads the item's current quantity under a row lock.
// Must be called inside a transaction; the lock is held until commit so
// concurrent adjustments on the same item serialize.
func (r *ItemRepository) QuantityForUpdate(ctx context.Context, id string) (int, error) {
	var quantity int
	query := `SELECT quantity FROM inventory_items WHERE id = $1 FOR UPDATE`
	if err := r.db.GetContext(ctx, &quantity, query, id); err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.NotFound("inventory item")
		}
		return 0, err
	}
	return quantity, nil
}

// SetQuantity writes a new quantity and bumps last_restocked/updated_at
func (r *ItemRepository) SetQuantity(ctx context.Context, id string, quantity int) error {
	query := `
		UPDATE inventory_items
		SET quantity = $2, last_restocked = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("inventory item")
	}
	return nil
}

// List lists inventory items with pagination and optional category filter
func (r *ItemRepository) List(ctx context.Context, page, perPage int, category string) ([]*InventoryItem, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM inventory_items`
	args := []interface{}{}

	if category != "" {
		countQuery += ` WHERE category = $1`
		args = append(args, category)
	}

	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items i
		LEFT JOIN suppliers s ON s.id = i.supplier_id
	`
	if category != "" {
		query += ` WHERE i.category = $1 ORDER BY i.name LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY i.name LIMIT $1 OFFSET $2`
	}
	args = append(args, perPage, (page-1)*perPage)

	var items []*InventoryItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}

	now := time.Now()
	for _, item := range items {
		item.ComputeExpiryStatus(now)
	}

	return items, total, nil
}

// ListLowStock returns items where quantity is below minimum_stock
func (r *ItemRepository) ListLowStock(ctx context.Context) ([]*InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory_items i
		LEFT JOIN suppliers s ON s.id = i.supplier_id
		WHERE i.quantity < i.minimum_stock
		ORDER BY i.name
	`

	var items []*InventoryItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}

	now := time.Now()
	for _, item := range items {
		item.ComputeExpiryStatus(now)
	}

	return items, nil
}

// Update updates an inventory item
func (r *ItemRepository) Update(ctx context.Context, item *InventoryItem) error {
	query := `
		UPDATE inventory_items SET
			name = $2, description = $3, sku = $4, category = $5, quantity = $6,
			unit = $7, minimum_stock = $8, maximum_stock = $9, expiry_date = $10,
			batch_number = $11, supplier_id = $12, location = $13, unit_price = $14,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Description, item.SKU, item.Category,
		item.Quantity, item.Unit, item.MinimumStock, item.MaximumStock,
		item.ExpiryDate, item.BatchNumber, item.SupplierID, item.Location,
		item.UnitPrice,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("inventory item")
	}

	item.ComputeExpiryStatus(time.Now())
	return nil
}

// Delete removes an item. Stock transactions cascade; order lines cascade.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("inventory item")
	}
	return nil
}
