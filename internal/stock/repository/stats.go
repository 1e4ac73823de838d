package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stocktrack/stocktrack-backend/pkg/database"
)

// NameCount is one row of a top-N aggregation
type NameCount struct {
	Name  string `db:"name" json:"name"`
	Count int64  `db:"count" json:"count"`
}

// DashboardStats is the aggregated inventory overview
type DashboardStats struct {
	TotalProducts            int64        `json:"total_products"`
	TotalUnits               int64        `json:"total_units"`
	TotalInventoryValueCents int64        `json:"total_inventory_value_cents"`
	ExpiredCount             int64        `json:"expired_count"`
	NearExpiryCount          int64        `json:"near_expiry_count"`
	TopBrands                []NameCount  `json:"top_brands"`
	TopCategories            []NameCount  `json:"top_categories"`
	TopSuppliers             []NameCount  `json:"top_suppliers"`
	RecentProducts           []*Product   `json:"recent_products"`
	OpenAlerts               []*Alert     `json:"open_alerts"`
	GeneratedAt              time.Time    `json:"generated_at"`
}

// StatsRepository collects dashboard aggregates
type StatsRepository struct {
	db *database.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

const topN = 5

// Collect gathers all dashboard aggregates inside one repeatable-read
// snapshot, so the numbers are consistent with each other even while
// movements land concurrently.
func (r *StatsRepository) Collect(ctx context.Context, today time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{
		TopBrands:      []NameCount{},
		TopCategories:  []NameCount{},
		TopSuppliers:   []NameCount{},
		RecentProducts: []*Product{},
		OpenAlerts:     []*Alert{},
		GeneratedAt:    time.Now().UTC(),
	}
	day := today.Truncate(24 * time.Hour)

	err := r.db.ReadTransaction(ctx, func(tx *sqlx.Tx) error {
		totalsQuery := `
			SELECT COUNT(*) AS total_products,
			       COALESCE(SUM(quantity), 0) AS total_units,
			       COALESCE(SUM(COALESCE(unit_price_cents, 0)::BIGINT * quantity), 0) AS total_value
			FROM products
		`
		row := tx.QueryRowxContext(ctx, totalsQuery)
		if err := row.Scan(&stats.TotalProducts, &stats.TotalUnits, &stats.TotalInventoryValueCents); err != nil {
			return err
		}

		if err := tx.GetContext(ctx, &stats.ExpiredCount,
			`SELECT COUNT(*) FROM products WHERE expiration_date < $1`, day); err != nil {
			return err
		}

		if err := tx.GetContext(ctx, &stats.NearExpiryCount,
			`SELECT COUNT(*) FROM products WHERE expiration_date >= $1 AND expiration_date <= $2`,
			day, day.AddDate(0, 0, 30)); err != nil {
			return err
		}

		// Ties break on name so the top-5 order is stable
		if err := tx.SelectContext(ctx, &stats.TopBrands,
			`SELECT brand AS name, COUNT(*) AS count FROM products
			 GROUP BY brand ORDER BY count DESC, name ASC LIMIT $1`, topN); err != nil {
			return err
		}
		if err := tx.SelectContext(ctx, &stats.TopCategories,
			`SELECT category AS name, COUNT(*) AS count FROM products
			 GROUP BY category ORDER BY count DESC, name ASC LIMIT $1`, topN); err != nil {
			return err
		}
		if err := tx.SelectContext(ctx, &stats.TopSuppliers,
			`SELECT supplier AS name, COUNT(*) AS count FROM products
			 GROUP BY supplier ORDER BY count DESC, name ASC LIMIT $1`, topN); err != nil {
			return err
		}

		if err := tx.SelectContext(ctx, &stats.RecentProducts,
			`SELECT `+productColumns+` FROM products ORDER BY created_at DESC LIMIT $1`, topN); err != nil {
			return err
		}

		if err := tx.SelectContext(ctx, &stats.OpenAlerts,
			`SELECT `+alertColumns+` FROM alerts WHERE NOT resolved
			 ORDER BY created_at ASC LIMIT $1`, topN); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range stats.RecentProducts {
		p.Derive(today)
	}

	return stats, nil
}
