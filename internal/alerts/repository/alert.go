package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/healthstock/healthstock-backend/pkg/database"
	"github.com/healthstock/healthstock-backend/pkg/errors"
)

// Alert types
const (
	TypeLowStock = "low_stock"
	TypeExpiry   = "expiry"
	TypeOrder    = "order"
	TypeSystem   = "system"
)

// Alert severities
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert is a stored notification, optionally tied to an inventory item.
// Resolution is first-write-wins: resolving an already-resolved alert keeps
// the original resolver and timestamp.
type Alert struct {
	ID             string     `db:"id" json:"id"`
	Type           string     `db:"type" json:"type"`
	Severity       string     `db:"severity" json:"severity"`
	Message        string     `db:"message" json:"message"`
	RelatedItemID  *string    `db:"related_item_id" json:"related_item,omitempty"`
	IsRead         bool       `db:"is_read" json:"is_read"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy     *string    `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedByName *string    `db:"resolved_by_name" json:"resolved_by_name,omitempty"`
}

// AlertRepository handles alert persistence
type AlertRepository struct {
	db *database.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *database.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create creates a new alert
func (r *AlertRepository) Create(ctx context.Context, alert *Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Severity == "" {
		alert.Severity = SeverityMedium
	}

	query := `
		INSERT INTO alerts (id, type, severity, message, related_item_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		alert.ID, alert.Type, alert.Severity, alert.Message, alert.RelatedItemID,
	).Scan(&alert.CreatedAt)
}

// GetByID gets an alert by ID
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	query := `
		SELECT a.id, a.type, a.severity, a.message, a.related_item_id, a.is_read,
		       a.created_at, a.resolved_at, a.resolved_by, u.username AS resolved_by_name
		FROM alerts a
		LEFT JOIN users u ON u.id = a.resolved_by
		WHERE a.id = $1
	`
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("alert")
		}
		return nil, err
	}
	return &alert, nil
}

// List lists alerts newest first, optionally filtered by type and read state
func (r *AlertRepository) List(ctx context.Context, alertType string, unreadOnly bool, page, perPage int) ([]*Alert, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0

	if alertType != "" {
		n++
		where += ` AND a.type = $` + strconv.Itoa(n)
		args = append(args, alertType)
	}
	if unreadOnly {
		where += ` AND a.is_read = false`
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM alerts a`+where, args...); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT a.id, a.type, a.severity, a.message, a.related_item_id, a.is_read,
		       a.created_at, a.resolved_at, a.resolved_by, u.username AS resolved_by_name
		FROM alerts a
		LEFT JOIN users u ON u.id = a.resolved_by
	` + where + `
		ORDER BY a.created_at DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, perPage, (page-1)*perPage)

	var alerts []*Alert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

// MarkRead flags an alert as read
func (r *AlertRepository) MarkRead(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE alerts SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("alert")
	}
	return nil
}

// Resolve marks an alert resolved by the given user. Idempotent: the WHERE
// clause leaves already-resolved rows untouched, so the first resolution wins.
func (r *AlertRepository) Resolve(ctx context.Context, id, resolverID string) (*Alert, error) {
	query := `
		UPDATE alerts
		SET resolved_at = NOW(), resolved_by = $2, is_read = true
		WHERE id = $1 AND resolved_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, id, resolverID); err != nil {
		return nil, err
	}

	// Zero rows affected means either unknown ID or already resolved;
	// the read distinguishes the two.
	return r.GetByID(ctx, id)
}

// Delete removes an alert
func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("alert")
	}
	return nil
}
