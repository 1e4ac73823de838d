package testutil

// StockMigrations returns the stock service schema for tests.
// This mirrors the production schema: products, movements, alerts.
func StockMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			category VARCHAR(255) NOT NULL,
			brand VARCHAR(255) NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			unit_weight_kg DOUBLE PRECISION,
			supplier VARCHAR(255) NOT NULL,
			unit_price_cents INTEGER,
			purchase_date DATE NOT NULL,
			expiration_date DATE,
			notes TEXT,
			created_by VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT products_quantity_non_negative CHECK (quantity >= 0),
			CONSTRAINT products_unit_weight_positive CHECK (unit_weight_kg IS NULL OR unit_weight_kg > 0),
			CONSTRAINT products_unit_price_positive CHECK (unit_price_cents IS NULL OR unit_price_cents > 0)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
		`CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand)`,
		`CREATE INDEX IF NOT EXISTS idx_products_expiration ON products(expiration_date)`,

		`CREATE TABLE IF NOT EXISTS movements (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			product_id UUID NOT NULL REFERENCES products(id),
			direction VARCHAR(10) NOT NULL,
			reason VARCHAR(20) NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price_cents INTEGER,
			notes TEXT,
			performed_by VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT movements_direction_valid CHECK (direction IN ('ENTRY', 'EXIT')),
			CONSTRAINT movements_reason_valid CHECK (reason IN ('PURCHASE', 'SALE', 'ADJUSTMENT', 'LOSS', 'RETURN', 'OTHER')),
			CONSTRAINT movements_quantity_positive CHECK (quantity > 0),
			CONSTRAINT movements_unit_price_positive CHECK (unit_price_cents IS NULL OR unit_price_cents > 0)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_movements_product_created ON movements(product_id, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			product_id UUID NOT NULL REFERENCES products(id),
			kind VARCHAR(20) NOT NULL,
			severity VARCHAR(10) NOT NULL,
			message TEXT NOT NULL,
			resolved BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at TIMESTAMPTZ,
			CONSTRAINT alerts_kind_valid CHECK (kind IN ('LOW_STOCK', 'NEAR_EXPIRY', 'NO_MOVEMENT')),
			CONSTRAINT alerts_severity_valid CHECK (severity IN ('LOW', 'MEDIUM', 'HIGH'))
		)`,

		// One open alert per product and kind; resolved alerts accumulate as history
		`CREATE UNIQUE INDEX IF NOT EXISTS alerts_open_product_kind
			ON alerts(product_id, kind) WHERE NOT resolved`,

		`CREATE INDEX IF NOT EXISTS idx_alerts_unresolved ON alerts(created_at) WHERE NOT resolved`,
	}
}
