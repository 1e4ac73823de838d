// Package service implements the stock business logic.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/stocktrack/stocktrack-backend/internal/stock/events"
	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/internal/stock/status"
	"github.com/stocktrack/stocktrack-backend/pkg/config"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
	"github.com/stocktrack/stocktrack-backend/pkg/messaging"
)

// AlertService evaluates alert rules and manages alert lifecycle
type AlertService struct {
	alertRepo    *repository.AlertRepository
	productRepo  *repository.ProductRepository
	movementRepo *repository.MovementRepository
	publisher    *events.StockEventPublisher
	logger       *logger.Logger
	cfg          config.AlertsConfig
}

// NewAlertService creates a new alert service
func NewAlertService(
	alertRepo *repository.AlertRepository,
	productRepo *repository.ProductRepository,
	movementRepo *repository.MovementRepository,
	publisher *events.StockEventPublisher,
	log *logger.Logger,
	cfg config.AlertsConfig,
) *AlertService {
	return &AlertService{
		alertRepo:    alertRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		publisher:    publisher,
		logger:       log,
		cfg:          cfg,
	}
}

// Reconcile evaluates all alert rules against one product and opens any
// alerts that are due. Rules that already have an open alert of the same
// kind are a no-op; existing alerts are never auto-resolved here, closing
// them is an explicit user action.
func (s *AlertService) Reconcile(ctx context.Context, product *repository.Product, today time.Time) error {
	if err := s.checkLowStock(ctx, product); err != nil {
		return err
	}
	if err := s.checkNearExpiry(ctx, product, today); err != nil {
		return err
	}
	return s.checkNoMovement(ctx, product, today)
}

// ReconcileByID loads the product and reconciles it
func (s *AlertService) ReconcileByID(ctx context.Context, productID string, today time.Time) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	return s.Reconcile(ctx, product, today)
}

func (s *AlertService) checkLowStock(ctx context.Context, product *repository.Product) error {
	if product.Quantity > s.cfg.LowStockThreshold {
		return nil
	}

	severity := repository.SeverityMedium
	if product.Quantity <= 2 {
		severity = repository.SeverityHigh
	}

	var message string
	if product.Quantity == 0 {
		message = fmt.Sprintf("%s %s is out of stock", product.Brand, product.Category)
	} else {
		message = fmt.Sprintf("%s %s is down to %d units", product.Brand, product.Category, product.Quantity)
	}

	return s.open(ctx, &repository.Alert{
		ProductID: product.ID,
		Kind:      repository.AlertLowStock,
		Severity:  severity,
		Message:   message,
	})
}

func (s *AlertService) checkNearExpiry(ctx context.Context, product *repository.Product, today time.Time) error {
	eval := status.Evaluate(product.ExpirationDate, today)
	if eval.DaysToExpiry == nil {
		return nil
	}

	days := *eval.DaysToExpiry
	if days < 0 || days > s.cfg.NearExpiryDays {
		return nil
	}

	severity := repository.SeverityMedium
	if eval.Tier == status.TierNearExpiry {
		severity = repository.SeverityHigh
	}

	var message string
	switch days {
	case 0:
		message = fmt.Sprintf("%s %s expires today", product.Brand, product.Category)
	case 1:
		message = fmt.Sprintf("%s %s expires tomorrow", product.Brand, product.Category)
	default:
		message = fmt.Sprintf("%s %s expires in %d days", product.Brand, product.Category, days)
	}

	return s.open(ctx, &repository.Alert{
		ProductID: product.ID,
		Kind:      repository.AlertNearExpiry,
		Severity:  severity,
		Message:   message,
	})
}

func (s *AlertService) checkNoMovement(ctx context.Context, product *repository.Product, today time.Time) error {
	newest, err := s.movementRepo.NewestCreatedAt(ctx, product.ID)
	if err != nil {
		return err
	}

	// Products without any movements fall back to their creation time,
	// otherwise freshly registered stock would alert immediately.
	last := product.CreatedAt
	if newest != nil {
		last = *newest
	}

	if today.Sub(last) < s.cfg.NoMovementLookback {
		return nil
	}

	days := int(s.cfg.NoMovementLookback.Hours() / 24)
	message := fmt.Sprintf("%s %s has had no movements for over %d days",
		product.Brand, product.Category, days)

	return s.open(ctx, &repository.Alert{
		ProductID: product.ID,
		Kind:      repository.AlertNoMovement,
		Severity:  repository.SeverityLow,
		Message:   message,
	})
}

func (s *AlertService) open(ctx context.Context, alert *repository.Alert) error {
	inserted, err := s.alertRepo.CreateIfAbsent(ctx, alert)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	s.logger.Info().
		Str("alert_id", alert.ID).
		Str("product_id", alert.ProductID).
		Str("kind", alert.Kind).
		Str("severity", alert.Severity).
		Msg("Alert opened")

	s.publisher.AlertGenerated(ctx, &messaging.AlertGeneratedEvent{
		AlertID:   alert.ID,
		ProductID: alert.ProductID,
		Kind:      alert.Kind,
		Severity:  alert.Severity,
		Message:   alert.Message,
	})

	return nil
}

// List lists alerts, optionally filtered by resolution state and kind
func (s *AlertService) List(ctx context.Context, resolved *bool, kind string, page, perPage int) ([]*repository.Alert, int64, error) {
	return s.alertRepo.List(ctx, resolved, kind, page, perPage)
}

// Get gets an alert by ID
func (s *AlertService) Get(ctx context.Context, id string) (*repository.Alert, error) {
	return s.alertRepo.GetByID(ctx, id)
}

// Resolve marks an alert resolved. Resolving twice is idempotent.
func (s *AlertService) Resolve(ctx context.Context, id string) (*repository.Alert, error) {
	alert, err := s.alertRepo.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if alert.Resolved {
		s.publisher.AlertResolved(ctx, &messaging.AlertResolvedEvent{
			AlertID:   alert.ID,
			ProductID: alert.ProductID,
			Kind:      alert.Kind,
		})
	}

	return alert, nil
}
