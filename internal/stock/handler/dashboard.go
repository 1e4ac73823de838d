package handler

import (
	"net/http"

	"github.com/stocktrack/stocktrack-backend/internal/stock/service"
	"github.com/stocktrack/stocktrack-backend/pkg/httputil"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
)

// DashboardHandler handles the dashboard endpoint
type DashboardHandler struct {
	service *service.DashboardService
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  log,
	}
}

// Stats serves the aggregated inventory overview
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}
