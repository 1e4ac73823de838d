package service

import (
	"context"
	"time"

	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
)

// AlertSweeper reconciles alerts for every product on a fixed interval.
// Movement and product writes already reconcile inline; the sweep catches
// the conditions that arrive purely with the passage of time, expiry
// windows and movement inactivity.
type AlertSweeper struct {
	alertService *AlertService
	productRepo  *repository.ProductRepository
	interval     time.Duration
	logger       *logger.Logger
	cancel       context.CancelFunc
}

// NewAlertSweeper creates a new alert sweeper
func NewAlertSweeper(
	alertService *AlertService,
	productRepo *repository.ProductRepository,
	interval time.Duration,
	log *logger.Logger,
) *AlertSweeper {
	return &AlertSweeper{
		alertService: alertService,
		productRepo:  productRepo,
		interval:     interval,
		logger:       log,
	}
}

// Start starts the sweeper in a background goroutine
func (s *AlertSweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("alert sweeper started")

		// Run an initial sweep immediately
		s.runSweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("alert sweeper stopped")
				return
			case <-ticker.C:
				s.runSweep(ctx)
			}
		}
	}()
}

// Stop stops the sweeper goroutine
func (s *AlertSweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// runSweep reconciles every product, logging failures and moving on so
// one bad product cannot stall the rest of the sweep
func (s *AlertSweeper) runSweep(ctx context.Context) {
	start := time.Now()

	ids, err := s.productRepo.ListIDs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products for sweep")
		return
	}

	today := time.Now().UTC()
	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := s.alertService.ReconcileByID(ctx, id, today); err != nil {
			failed++
			s.logger.Error().Err(err).Str("product_id", id).Msg("alert reconcile failed")
		}
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("product_count", len(ids)).
		Int("failed", failed).
		Msg("alert sweep completed")
}
