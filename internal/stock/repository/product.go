package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stocktrack/stocktrack-backend/internal/stock/status"
	"github.com/stocktrack/stocktrack-backend/pkg/database"
	"github.com/stocktrack/stocktrack-backend/pkg/errors"
)

// Product represents a tracked stock item
type Product struct {
	ID             string     `db:"id" json:"id"`
	Category       string     `db:"category" json:"category"`
	Brand          string     `db:"brand" json:"brand"`
	Quantity       int        `db:"quantity" json:"quantity"`
	UnitWeightKg   *float64   `db:"unit_weight_kg" json:"unit_weight_kg,omitempty"`
	Supplier       string     `db:"supplier" json:"supplier"`
	UnitPriceCents *int       `db:"unit_price_cents" json:"unit_price_cents,omitempty"`
	PurchaseDate   time.Time  `db:"purchase_date" json:"purchase_date"`
	ExpirationDate *time.Time `db:"expiration_date" json:"expiration_date,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	CreatedBy      *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	// Derived fields, populated via Derive
	TotalValueCents int64       `db:"-" json:"total_value_cents"`
	DaysToExpiry    *int        `db:"-" json:"days_to_expiry,omitempty"`
	ValidityTier    status.Tier `db:"-" json:"validity_tier"`
}

// Derive fills the computed fields for the given reference date
func (p *Product) Derive(today time.Time) {
	eval := status.Evaluate(p.ExpirationDate, today)
	p.DaysToExpiry = eval.DaysToExpiry
	p.ValidityTier = eval.Tier
	p.TotalValueCents = status.TotalValueCents(p.UnitPriceCents, p.Quantity)
}

const productColumns = `id, category, brand, quantity, unit_weight_kg, supplier,
	unit_price_cents, purchase_date, expiration_date, notes, created_by, created_at, updated_at`

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, product *Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	query := `
		INSERT INTO products (
			id, category, brand, quantity, unit_weight_kg, supplier,
			unit_price_cents, purchase_date, expiration_date, notes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		product.ID, product.Category, product.Brand, product.Quantity,
		product.UnitWeightKg, product.Supplier, product.UnitPriceCents,
		product.PurchaseDate, product.ExpirationDate, product.Notes, product.CreatedBy,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	var product Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}
	return &product, nil
}

// GetByIDForUpdate locks the product row for the duration of the transaction.
// Serializes concurrent movements against the same product.
func (r *ProductRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*Product, error) {
	var product Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &product, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}
	return &product, nil
}

// UpdateQuantityTx sets the product quantity within a transaction
func (r *ProductRepository) UpdateQuantityTx(ctx context.Context, tx *sqlx.Tx, id string, quantity int) error {
	query := `UPDATE products SET quantity = $2, updated_at = NOW() WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, id, quantity)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}
	return nil
}

// Update replaces the mutable fields of a product
func (r *ProductRepository) Update(ctx context.Context, product *Product) error {
	query := `
		UPDATE products
		SET category = $2, brand = $3, quantity = $4, unit_weight_kg = $5,
		    supplier = $6, unit_price_cents = $7, purchase_date = $8,
		    expiration_date = $9, notes = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		product.ID, product.Category, product.Brand, product.Quantity,
		product.UnitWeightKg, product.Supplier, product.UnitPriceCents,
		product.PurchaseDate, product.ExpirationDate, product.Notes,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("product")
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// DeleteCascade removes a product together with its movements and alerts.
// All three deletes run in one transaction; there is no partial outcome.
func (r *ProductRepository) DeleteCascade(ctx context.Context, id string) (movementsDeleted, alertsDeleted int64, err error) {
	err = r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM movements WHERE product_id = $1`, id)
		if err != nil {
			return err
		}
		movementsDeleted, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM alerts WHERE product_id = $1`, id)
		if err != nil {
			return err
		}
		alertsDeleted, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return errors.NotFound("product")
		}
		return nil
	})
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return 0, 0, appErr
		}
		return 0, 0, err
	}
	return movementsDeleted, alertsDeleted, nil
}

// List lists products matching the filter, newest first
func (r *ProductRepository) List(ctx context.Context, filter *ProductFilter, today time.Time, page, perPage int) ([]*Product, int64, error) {
	where := ""
	var args []interface{}
	if filter != nil {
		clauses, filterArgs := filter.Clauses(today, 1)
		if len(clauses) > 0 {
			where = " WHERE " + strings.Join(clauses, " AND ")
			args = filterArgs
		}
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM products` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := fmt.Sprintf(`SELECT `+productColumns+` FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	var products []*Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListAll lists every product matching the filter without pagination,
// newest first. Used by the export path.
func (r *ProductRepository) ListAll(ctx context.Context, filter *ProductFilter, today time.Time) ([]*Product, error) {
	where := ""
	var args []interface{}
	if filter != nil {
		clauses, filterArgs := filter.Clauses(today, 1)
		if len(clauses) > 0 {
			where = " WHERE " + strings.Join(clauses, " AND ")
			args = filterArgs
		}
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY created_at DESC`

	var products []*Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}
	return products, nil
}

// ListExpiring lists products expiring within the given number of days
// from today (inclusive, already-expired products excluded), soonest first.
func (r *ProductRepository) ListExpiring(ctx context.Context, today time.Time, days int) ([]*Product, error) {
	day := today.Truncate(24 * time.Hour)
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE expiration_date >= $1 AND expiration_date <= $2
		ORDER BY expiration_date ASC
	`

	var products []*Product
	if err := r.db.SelectContext(ctx, &products, query, day, day.AddDate(0, 0, days)); err != nil {
		return nil, err
	}
	return products, nil
}

// ListExpired lists products whose expiration date has passed, oldest expiry first
func (r *ProductRepository) ListExpired(ctx context.Context, today time.Time) ([]*Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE expiration_date < $1
		ORDER BY expiration_date ASC
	`

	var products []*Product
	if err := r.db.SelectContext(ctx, &products, query, today.Truncate(24*time.Hour)); err != nil {
		return nil, err
	}
	return products, nil
}

// ListLowStock lists products at or below the quantity threshold, lowest first
func (r *ProductRepository) ListLowStock(ctx context.Context, threshold int) ([]*Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE quantity <= $1
		ORDER BY quantity ASC, created_at DESC
	`

	var products []*Product
	if err := r.db.SelectContext(ctx, &products, query, threshold); err != nil {
		return nil, err
	}
	return products, nil
}

// ListIDs returns the IDs of all products
func (r *ProductRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM products ORDER BY created_at`); err != nil {
		return nil, err
	}
	return ids, nil
}

// Facets holds the distinct filter values available for export UIs
type Facets struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
	Suppliers  []string `json:"suppliers"`
}

// GetFacets returns the distinct categories, brands and suppliers
func (r *ProductRepository) GetFacets(ctx context.Context) (*Facets, error) {
	facets := &Facets{
		Categories: []string{},
		Brands:     []string{},
		Suppliers:  []string{},
	}

	if err := r.db.SelectContext(ctx, &facets.Categories,
		`SELECT DISTINCT category FROM products ORDER BY category`); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &facets.Brands,
		`SELECT DISTINCT brand FROM products ORDER BY brand`); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &facets.Suppliers,
		`SELECT DISTINCT supplier FROM products ORDER BY supplier`); err != nil {
		return nil, err
	}

	return facets, nil
}
