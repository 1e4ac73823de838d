package service

import (
	"context"
	"time"

	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
)

// DashboardService aggregates the inventory overview
type DashboardService struct {
	statsRepo *repository.StatsRepository
	logger    *logger.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(statsRepo *repository.StatsRepository, log *logger.Logger) *DashboardService {
	return &DashboardService{
		statsRepo: statsRepo,
		logger:    log,
	}
}

// GetStats collects the dashboard aggregates as one consistent snapshot
func (s *DashboardService) GetStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.statsRepo.Collect(ctx, time.Now().UTC())
}
