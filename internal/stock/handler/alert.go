package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/internal/stock/service"
	"github.com/stocktrack/stocktrack-backend/pkg/errors"
	"github.com/stocktrack/stocktrack-backend/pkg/httputil"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
)

// AlertHandler handles alert endpoints
type AlertHandler struct {
	service *service.AlertService
	logger  *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(svc *service.AlertService, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		service: svc,
		logger:  log,
	}
}

// List lists alerts. ?resolved=true|false filters by resolution state,
// ?kind filters by alert kind.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	var resolved *bool
	switch r.URL.Query().Get("resolved") {
	case "":
	case "true":
		v := true
		resolved = &v
	case "false":
		v := false
		resolved = &v
	default:
		httputil.Error(w, errors.BadRequest("invalid resolved: expected true or false"))
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind != "" {
		switch kind {
		case repository.AlertLowStock, repository.AlertNearExpiry, repository.AlertNoMovement:
		default:
			httputil.Error(w, errors.BadRequest("invalid kind: expected LOW_STOCK, NEAR_EXPIRY or NO_MOVEMENT"))
			return
		}
	}

	page, perPage := pagination(r)
	alerts, total, err := h.service.List(r.Context(), resolved, kind, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, alerts, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages(total, perPage),
	})
}

// Get gets an alert by ID
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	alert, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alert)
}

// Resolve marks an alert resolved
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	alert, err := h.service.Resolve(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alert)
}
