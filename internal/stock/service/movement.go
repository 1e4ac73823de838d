package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stocktrack/stocktrack-backend/internal/stock/events"
	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/pkg/database"
	"github.com/stocktrack/stocktrack-backend/pkg/errors"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
	"github.com/stocktrack/stocktrack-backend/pkg/messaging"
)

// MovementService records stock movements and keeps product quantities
// in sync with the ledger
type MovementService struct {
	db           *database.DB
	movementRepo *repository.MovementRepository
	productRepo  *repository.ProductRepository
	alertService *AlertService
	publisher    *events.StockEventPublisher
	logger       *logger.Logger
}

// NewMovementService creates a new movement service
func NewMovementService(
	db *database.DB,
	movementRepo *repository.MovementRepository,
	productRepo *repository.ProductRepository,
	alertService *AlertService,
	publisher *events.StockEventPublisher,
	log *logger.Logger,
) *MovementService {
	return &MovementService{
		db:           db,
		movementRepo: movementRepo,
		productRepo:  productRepo,
		alertService: alertService,
		publisher:    publisher,
		logger:       log,
	}
}

// RecordMovementInput is the payload for recording a movement
type RecordMovementInput struct {
	ProductID      string
	Direction      string
	Reason         string
	Quantity       int
	UnitPriceCents *int
	Notes          *string
	PerformedBy    *string
}

// RecordMovement appends a ledger entry and applies it to the product
// quantity. The product row is locked for the duration of the transaction,
// so concurrent movements against the same product serialize and each one
// sees the quantity left by the previous.
//
// An exit larger than the current quantity is not an error: the quantity
// clamps at zero and the full requested amount is still recorded.
func (s *MovementService) RecordMovement(ctx context.Context, input *RecordMovementInput) (*repository.Movement, *repository.Product, error) {
	if !repository.ValidDirection(input.Direction) {
		return nil, nil, errors.Validation(map[string]string{
			"direction": "must be one of: ENTRY, EXIT",
		})
	}
	if !repository.ValidReason(input.Reason) {
		return nil, nil, errors.Validation(map[string]string{
			"reason": "must be one of: PURCHASE, SALE, ADJUSTMENT, LOSS, RETURN, OTHER",
		})
	}
	if input.Quantity <= 0 {
		return nil, nil, errors.Validation(map[string]string{
			"quantity": "must be greater than 0",
		})
	}
	if input.UnitPriceCents != nil && *input.UnitPriceCents <= 0 {
		return nil, nil, errors.Validation(map[string]string{
			"unit_price_cents": "must be greater than 0",
		})
	}

	movement := &repository.Movement{
		ProductID:      input.ProductID,
		Direction:      input.Direction,
		Reason:         input.Reason,
		Quantity:       input.Quantity,
		UnitPriceCents: input.UnitPriceCents,
		Notes:          input.Notes,
		PerformedBy:    input.PerformedBy,
	}

	var product *repository.Product
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.productRepo.GetByIDForUpdate(ctx, tx, input.ProductID)
		if err != nil {
			return err
		}

		newQuantity := locked.Quantity
		if input.Direction == repository.DirectionEntry {
			newQuantity += input.Quantity
		} else {
			newQuantity -= input.Quantity
			if newQuantity < 0 {
				newQuantity = 0
			}
		}

		if err := s.productRepo.UpdateQuantityTx(ctx, tx, locked.ID, newQuantity); err != nil {
			return err
		}
		if err := s.movementRepo.InsertTx(ctx, tx, movement); err != nil {
			return err
		}

		locked.Quantity = newQuantity
		product = locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	product.Derive(now)

	s.logger.Info().
		Str("movement_id", movement.ID).
		Str("product_id", product.ID).
		Str("direction", movement.Direction).
		Str("reason", movement.Reason).
		Int("quantity", movement.Quantity).
		Int("new_quantity", product.Quantity).
		Msg("Movement recorded")

	event := &messaging.MovementRecordedEvent{
		MovementID:  movement.ID,
		ProductID:   product.ID,
		Direction:   movement.Direction,
		Reason:      movement.Reason,
		Quantity:    movement.Quantity,
		NewQuantity: product.Quantity,
	}
	if movement.PerformedBy != nil {
		event.PerformedBy = *movement.PerformedBy
	}
	s.publisher.MovementRecorded(ctx, event)

	// The movement may have pushed the product below the low-stock
	// threshold; reconcile right away rather than waiting for the sweep.
	if err := s.alertService.Reconcile(ctx, product, now); err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to reconcile alerts after movement")
	}

	return movement, product, nil
}

// ListByProduct lists a product's movements, newest first.
// Returns NotFound when the product does not exist.
func (s *MovementService) ListByProduct(ctx context.Context, productID string, page, perPage int) ([]*repository.Movement, int64, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, 0, err
	}
	return s.movementRepo.ListByProduct(ctx, productID, page, perPage)
}

// List lists movements across all products, optionally filtered by direction
func (s *MovementService) List(ctx context.Context, direction string, page, perPage int) ([]*repository.Movement, int64, error) {
	if direction != "" && !repository.ValidDirection(direction) {
		return nil, 0, errors.BadRequest("direction must be one of: ENTRY, EXIT")
	}
	return s.movementRepo.List(ctx, direction, page, perPage)
}
