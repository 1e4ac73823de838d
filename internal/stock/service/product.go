package service

import (
	"context"
	"time"

	"github.com/stocktrack/stocktrack-backend/internal/stock/events"
	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/internal/stock/status"
	"github.com/stocktrack/stocktrack-backend/pkg/errors"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
	"github.com/stocktrack/stocktrack-backend/pkg/messaging"
)

// ProductService implements product lifecycle operations
type ProductService struct {
	productRepo  *repository.ProductRepository
	alertService *AlertService
	publisher    *events.StockEventPublisher
	logger       *logger.Logger
}

// NewProductService creates a new product service
func NewProductService(
	productRepo *repository.ProductRepository,
	alertService *AlertService,
	publisher *events.StockEventPublisher,
	log *logger.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		alertService: alertService,
		publisher:    publisher,
		logger:       log,
	}
}

// CreateProductInput is the payload for registering a product
type CreateProductInput struct {
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
}

func validateProductFields(quantity int, weight *float64, price *int, purchase time.Time, expiry *time.Time) error {
	details := map[string]string{}
	if quantity < 0 {
		details["quantity"] = "must not be negative"
	}
	if weight != nil && *weight <= 0 {
		details["unit_weight_kg"] = "must be greater than 0"
	}
	if price != nil && *price <= 0 {
		details["unit_price_cents"] = "must be greater than 0"
	}
	if expiry != nil && status.DaysBetween(purchase, *expiry) <= 0 {
		details["expiration_date"] = "must be after the purchase date"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

// Create registers a new product and reconciles its alerts, since the
// initial quantity or expiration date may already warrant one.
func (s *ProductService) Create(ctx context.Context, input *CreateProductInput) (*repository.Product, error) {
	if err := validateProductFields(input.Quantity, input.UnitWeightKg, input.UnitPriceCents,
		input.PurchaseDate, input.ExpirationDate); err != nil {
		return nil, err
	}

	product := &repository.Product{
		Category:       input.Category,
		Brand:          input.Brand,
		Quantity:       input.Quantity,
		UnitWeightKg:   input.UnitWeightKg,
		Supplier:       input.Supplier,
		UnitPriceCents: input.UnitPriceCents,
		PurchaseDate:   input.PurchaseDate,
		ExpirationDate: input.ExpirationDate,
		Notes:          input.Notes,
		CreatedBy:      input.CreatedBy,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product.Derive(now)

	s.logger.Info().
		Str("product_id", product.ID).
		Str("category", product.Category).
		Str("brand", product.Brand).
		Int("quantity", product.Quantity).
		Msg("Product created")

	event := &messaging.ProductCreatedEvent{
		ProductID: product.ID,
		Category:  product.Category,
		Brand:     product.Brand,
		Quantity:  product.Quantity,
	}
	if product.CreatedBy != nil {
		event.CreatedBy = *product.CreatedBy
	}
	s.publisher.ProductCreated(ctx, event)

	if err := s.alertService.Reconcile(ctx, product, now); err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to reconcile alerts after create")
	}

	return product, nil
}

// Get gets a product by ID with derived fields populated
func (s *ProductService) Get(ctx context.Context, id string) (*repository.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Derive(time.Now().UTC())
	return product, nil
}

// List lists products matching the filter with derived fields populated
func (s *ProductService) List(ctx context.Context, filter *repository.ProductFilter, page, perPage int) ([]*repository.Product, int64, error) {
	now := time.Now().UTC()
	products, total, err := s.productRepo.List(ctx, filter, now, page, perPage)
	if err != nil {
		return nil, 0, err
	}
	for _, p := range products {
		p.Derive(now)
	}
	return products, total, nil
}

// UpdateProductInput is the payload for a partial product update.
// Nil fields are left unchanged; ClearExpiration drops the expiration date.
type UpdateProductInput struct {
	Category        *string
	Brand           *string
	Quantity        *int
	UnitWeightKg    *float64
	Supplier        *string
	UnitPriceCents  *int
	PurchaseDate    *time.Time
	ExpirationDate  *time.Time
	ClearExpiration bool
	Notes           *string
}

// Update applies a partial update to a product. Quantity changes through
// this path are administrative corrections and do not create ledger
// entries; use movements for actual stock flow.
func (s *ProductService) Update(ctx context.Context, id string, input *UpdateProductInput) (*repository.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := map[string]any{}
	if input.Category != nil && *input.Category != product.Category {
		product.Category = *input.Category
		changed["category"] = *input.Category
	}
	if input.Brand != nil && *input.Brand != product.Brand {
		product.Brand = *input.Brand
		changed["brand"] = *input.Brand
	}
	if input.Quantity != nil && *input.Quantity != product.Quantity {
		product.Quantity = *input.Quantity
		changed["quantity"] = *input.Quantity
	}
	if input.UnitWeightKg != nil {
		product.UnitWeightKg = input.UnitWeightKg
		changed["unit_weight_kg"] = *input.UnitWeightKg
	}
	if input.Supplier != nil && *input.Supplier != product.Supplier {
		product.Supplier = *input.Supplier
		changed["supplier"] = *input.Supplier
	}
	if input.UnitPriceCents != nil {
		product.UnitPriceCents = input.UnitPriceCents
		changed["unit_price_cents"] = *input.UnitPriceCents
	}
	if input.PurchaseDate != nil {
		product.PurchaseDate = *input.PurchaseDate
		changed["purchase_date"] = input.PurchaseDate.Format("2006-01-02")
	}
	if input.ClearExpiration {
		product.ExpirationDate = nil
		changed["expiration_date"] = nil
	} else if input.ExpirationDate != nil {
		product.ExpirationDate = input.ExpirationDate
		changed["expiration_date"] = input.ExpirationDate.Format("2006-01-02")
	}
	if input.Notes != nil {
		product.Notes = input.Notes
		changed["notes"] = *input.Notes
	}

	now := time.Now().UTC()
	if len(changed) == 0 {
		product.Derive(now)
		return product, nil
	}

	if err := validateProductFields(product.Quantity, product.UnitWeightKg, product.UnitPriceCents,
		product.PurchaseDate, product.ExpirationDate); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	product.Derive(now)

	s.logger.Info().Str("product_id", product.ID).Msg("Product updated")

	s.publisher.ProductUpdated(ctx, &messaging.ProductUpdatedEvent{
		ProductID: product.ID,
		Fields:    changed,
	})

	if err := s.alertService.Reconcile(ctx, product, now); err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to reconcile alerts after update")
	}

	return product, nil
}

// DeleteResult reports what a cascade delete removed
type DeleteResult struct {
	ProductID        string `json:"product_id"`
	MovementsDeleted int64  `json:"movements_deleted"`
	AlertsDeleted    int64  `json:"alerts_deleted"`
}

// Delete removes a product together with its full movement history and
// alerts. The ledger rows go with the product, they are meaningless
// without it.
func (s *ProductService) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	movements, alerts, err := s.productRepo.DeleteCascade(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", id).
		Int64("movements_deleted", movements).
		Int64("alerts_deleted", alerts).
		Msg("Product deleted")

	s.publisher.ProductDeleted(ctx, &messaging.ProductDeletedEvent{
		ProductID:        id,
		MovementsDeleted: int(movements),
		AlertsDeleted:    int(alerts),
	})

	return &DeleteResult{
		ProductID:        id,
		MovementsDeleted: movements,
		AlertsDeleted:    alerts,
	}, nil
}

// ListExpiring lists products expiring within the given number of days
func (s *ProductService) ListExpiring(ctx context.Context, days int) ([]*repository.Product, error) {
	if days <= 0 {
		return nil, errors.BadRequest("days must be greater than 0")
	}
	now := time.Now().UTC()
	products, err := s.productRepo.ListExpiring(ctx, now, days)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		p.Derive(now)
	}
	return products, nil
}

// ListExpired lists products whose expiration date has passed
func (s *ProductService) ListExpired(ctx context.Context) ([]*repository.Product, error) {
	now := time.Now().UTC()
	products, err := s.productRepo.ListExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		p.Derive(now)
	}
	return products, nil
}

// ListLowStock lists products at or below the quantity threshold
func (s *ProductService) ListLowStock(ctx context.Context, threshold int) ([]*repository.Product, error) {
	if threshold < 0 {
		return nil, errors.BadRequest("threshold must not be negative")
	}
	now := time.Now().UTC()
	products, err := s.productRepo.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		p.Derive(now)
	}
	return products, nil
}

// GetFacets returns the distinct filter values across all products
func (s *ProductService) GetFacets(ctx context.Context) (*repository.Facets, error) {
	return s.productRepo.GetFacets(ctx)
}

// Export renders the products matching the filter as rows of strings,
// projected onto the requested fields. The first row is the header.
func (s *ProductService) Export(ctx context.Context, filter *repository.ProductFilter, fields []string) ([][]string, error) {
	fields, err := repository.ValidateExportFields(fields)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	products, err := s.productRepo.ListAll(ctx, filter, now)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(products)+1)
	rows = append(rows, fields)
	for _, p := range products {
		p.Derive(now)
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = repository.ExportValue(p, f)
		}
		rows = append(rows, row)
	}

	return rows, nil
}
