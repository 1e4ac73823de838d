package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stocktrack/stocktrack-backend/pkg/database"
)

// Movement directions
const (
	DirectionEntry = "ENTRY"
	DirectionExit  = "EXIT"
)

// Movement reasons
const (
	ReasonPurchase   = "PURCHASE"
	ReasonSale       = "SALE"
	ReasonAdjustment = "ADJUSTMENT"
	ReasonLoss       = "LOSS"
	ReasonReturn     = "RETURN"
	ReasonOther      = "OTHER"
)

// ValidDirection reports whether the direction is a known value
func ValidDirection(direction string) bool {
	return direction == DirectionEntry || direction == DirectionExit
}

// ValidReason reports whether the reason is a known value
func ValidReason(reason string) bool {
	switch reason {
	case ReasonPurchase, ReasonSale, ReasonAdjustment, ReasonLoss, ReasonReturn, ReasonOther:
		return true
	}
	return false
}

// Movement represents one immutable ledger entry
type Movement struct {
	ID             string    `db:"id" json:"id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	Direction      string    `db:"direction" json:"direction"`
	Reason         string    `db:"reason" json:"reason"`
	Quantity       int       `db:"quantity" json:"quantity"`
	UnitPriceCents *int      `db:"unit_price_cents" json:"unit_price_cents,omitempty"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	PerformedBy    *string   `db:"performed_by" json:"performed_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

const movementColumns = `id, product_id, direction, reason, quantity,
	unit_price_cents, notes, performed_by, created_at`

// MovementRepository handles movement persistence
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// InsertTx inserts a movement within a transaction.
// Movements are append-only; there is no update or per-row delete.
func (r *MovementRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, movement *Movement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}

	query := `
		INSERT INTO movements (
			id, product_id, direction, reason, quantity, unit_price_cents, notes, performed_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		movement.ID, movement.ProductID, movement.Direction, movement.Reason,
		movement.Quantity, movement.UnitPriceCents, movement.Notes, movement.PerformedBy,
	).Scan(&movement.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// ListByProduct lists a product's movements, newest first
func (r *MovementRepository) ListByProduct(ctx context.Context, productID string, page, perPage int) ([]*Movement, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM movements WHERE product_id = $1`, productID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var movements []*Movement
	if err := r.db.SelectContext(ctx, &movements, query, productID, perPage, offset); err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

// List lists movements across all products, newest first, optionally
// filtered by direction
func (r *MovementRepository) List(ctx context.Context, direction string, page, perPage int) ([]*Movement, int64, error) {
	where := ""
	var args []interface{}
	if direction != "" {
		where = " WHERE direction = $1"
		args = append(args, direction)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM movements`+where, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := fmt.Sprintf(`SELECT `+movementColumns+` FROM movements%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	var movements []*Movement
	if err := r.db.SelectContext(ctx, &movements, query, args...); err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

// NewestCreatedAt returns the timestamp of a product's most recent movement,
// or nil when the product has no movements at all.
func (r *MovementRepository) NewestCreatedAt(ctx context.Context, productID string) (*time.Time, error) {
	var newest time.Time
	query := `SELECT created_at FROM movements WHERE product_id = $1 ORDER BY created_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &newest, query, productID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &newest, nil
}
