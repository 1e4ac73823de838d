package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stocktrack/stocktrack-backend/pkg/database"
	"github.com/stocktrack/stocktrack-backend/pkg/errors"
)

// Alert kinds
const (
	AlertLowStock   = "LOW_STOCK"
	AlertNearExpiry = "NEAR_EXPIRY"
	AlertNoMovement = "NO_MOVEMENT"
)

// Alert severities
const (
	SeverityLow    = "LOW"
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
)

// Alert represents a condition flagged on a product
type Alert struct {
	ID         string     `db:"id" json:"id"`
	ProductID  string     `db:"product_id" json:"product_id"`
	Kind       string     `db:"kind" json:"kind"`
	Severity   string     `db:"severity" json:"severity"`
	Message    string     `db:"message" json:"message"`
	Resolved   bool       `db:"resolved" json:"resolved"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

const alertColumns = `id, product_id, kind, severity, message, resolved, created_at, resolved_at`

// AlertRepository handles alert persistence
type AlertRepository struct {
	db *database.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *database.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// CreateIfAbsent inserts an alert unless an open one of the same kind
// already exists for the product. The partial unique index makes this a
// single atomic statement, so concurrent reconciles cannot race a
// duplicate in. Returns true when a row was inserted.
func (r *AlertRepository) CreateIfAbsent(ctx context.Context, alert *Alert) (bool, error) {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}

	query := `
		INSERT INTO alerts (id, product_id, kind, severity, message)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id, kind) WHERE NOT resolved DO NOTHING
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		alert.ID, alert.ProductID, alert.Kind, alert.Severity, alert.Message,
	).Scan(&alert.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// An open alert of this kind already exists; silent no-op
			return false, nil
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return false, appErr
		}
		return false, err
	}

	return true, nil
}

// GetByID gets an alert by ID
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("alert")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}
	return &alert, nil
}

// List lists alerts with optional filters, newest first
func (r *AlertRepository) List(ctx context.Context, resolved *bool, kind string, page, perPage int) ([]*Alert, int64, error) {
	where := " WHERE 1=1"
	var args []interface{}

	if resolved != nil {
		args = append(args, *resolved)
		where += fmt.Sprintf(" AND resolved = $%d", len(args))
	}
	if kind != "" {
		args = append(args, kind)
		where += fmt.Sprintf(" AND kind = $%d", len(args))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM alerts`+where, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := fmt.Sprintf(`
		SELECT `+alertColumns+`
		FROM alerts%s
		ORDER BY CASE severity WHEN 'HIGH' THEN 0 WHEN 'MEDIUM' THEN 1 ELSE 2 END, created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	var alerts []*Alert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

// Resolve marks an alert resolved. Resolving an already-resolved alert is
// a no-op that returns the current record; a missing alert is NotFound.
func (r *AlertRepository) Resolve(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	query := `
		UPDATE alerts
		SET resolved = TRUE, resolved_at = NOW()
		WHERE id = $1 AND NOT resolved
		RETURNING ` + alertColumns + `
	`

	err := r.db.GetContext(ctx, &alert, query, id)
	if err == nil {
		return &alert, nil
	}
	if err != sql.ErrNoRows {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	// Either already resolved or absent
	return r.GetByID(ctx, id)
}
