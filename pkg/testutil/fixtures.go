package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProductFixture represents test product data
type ProductFixture struct {
	ID             string
	Category       string
	Brand          string
	Quantity       int
	UnitWeightKg   *float64
	Supplier       string
	UnitPriceCents *int
	PurchaseDate   time.Time
	ExpirationDate *time.Time
	Notes          *string
	CreatedBy      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MovementFixture represents test movement data
type MovementFixture struct {
	ID             string
	ProductID      string
	Direction      string
	Reason         string
	Quantity       int
	UnitPriceCents *int
	Notes          *string
	PerformedBy    *string
	CreatedAt      time.Time
}

// AlertFixture represents test alert data
type AlertFixture struct {
	ID         string
	ProductID  string
	Kind       string
	Severity   string
	Message    string
	Resolved   bool
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Product creates a product fixture with defaults
func (f *FixtureFactory) Product(opts ...func(*ProductFixture)) ProductFixture {
	seq := f.nextSeq()
	price := 1250

	product := ProductFixture{
		ID:             uuid.New().String(),
		Category:       fmt.Sprintf("Category %d", seq),
		Brand:          fmt.Sprintf("Brand %d", seq),
		Quantity:       50,
		Supplier:       fmt.Sprintf("Supplier %d", seq),
		UnitPriceCents: &price,
		PurchaseDate:   time.Now().AddDate(0, -1, 0),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	for _, opt := range opts {
		opt(&product)
	}

	return product
}

// WithCategory sets the product category
func WithCategory(category string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Category = category
	}
}

// WithBrand sets the product brand
func WithBrand(brand string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Brand = brand
	}
}

// WithQuantity sets the product quantity
func WithQuantity(quantity int) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Quantity = quantity
	}
}

// WithSupplier sets the product supplier
func WithSupplier(supplier string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Supplier = supplier
	}
}

// WithUnitPriceCents sets the product unit price
func WithUnitPriceCents(cents int) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.UnitPriceCents = &cents
	}
}

// WithoutPrice clears the product unit price
func WithoutPrice() func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.UnitPriceCents = nil
	}
}

// WithExpiration sets the product expiration date
func WithExpiration(date time.Time) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.ExpirationDate = &date
	}
}

// WithExpirationIn sets the expiration date relative to now
func WithExpirationIn(days int) func(*ProductFixture) {
	return func(p *ProductFixture) {
		date := time.Now().AddDate(0, 0, days)
		p.ExpirationDate = &date
	}
}

// Movement creates a movement fixture with defaults
func (f *FixtureFactory) Movement(productID string, opts ...func(*MovementFixture)) MovementFixture {
	f.nextSeq()

	movement := MovementFixture{
		ID:        uuid.New().String(),
		ProductID: productID,
		Direction: "ENTRY",
		Reason:    "PURCHASE",
		Quantity:  10,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&movement)
	}

	return movement
}

// WithDirection sets the movement direction
func WithDirection(direction string) func(*MovementFixture) {
	return func(m *MovementFixture) {
		m.Direction = direction
	}
}

// WithReason sets the movement reason
func WithReason(reason string) func(*MovementFixture) {
	return func(m *MovementFixture) {
		m.Reason = reason
	}
}

// WithMovementQuantity sets the movement quantity
func WithMovementQuantity(quantity int) func(*MovementFixture) {
	return func(m *MovementFixture) {
		m.Quantity = quantity
	}
}

// WithPerformedBy sets the movement actor
func WithPerformedBy(actor string) func(*MovementFixture) {
	return func(m *MovementFixture) {
		m.PerformedBy = &actor
	}
}

// Alert creates an alert fixture with defaults
func (f *FixtureFactory) Alert(productID string, opts ...func(*AlertFixture)) AlertFixture {
	f.nextSeq()

	alert := AlertFixture{
		ID:        uuid.New().String(),
		ProductID: productID,
		Kind:      "LOW_STOCK",
		Severity:  "MEDIUM",
		Message:   "stock is low",
		Resolved:  false,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&alert)
	}

	return alert
}

// WithKind sets the alert kind
func WithKind(kind string) func(*AlertFixture) {
	return func(a *AlertFixture) {
		a.Kind = kind
	}
}

// WithSeverity sets the alert severity
func WithSeverity(severity string) func(*AlertFixture) {
	return func(a *AlertFixture) {
		a.Severity = severity
	}
}

// Resolved marks the alert fixture as resolved
func Resolved() func(*AlertFixture) {
	return func(a *AlertFixture) {
		a.Resolved = true
		now := time.Now()
		a.ResolvedAt = &now
	}
}
