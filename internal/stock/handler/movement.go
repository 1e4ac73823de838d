package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/internal/stock/service"
	"github.com/stocktrack/stocktrack-backend/pkg/httputil"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
)

// MovementHandler handles movement endpoints
type MovementHandler struct {
	service *service.MovementService
	logger  *logger.Logger
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(svc *service.MovementService, log *logger.Logger) *MovementHandler {
	return &MovementHandler{
		service: svc,
		logger:  log,
	}
}

type recordMovementRequest struct {
	Direction      string  `json:"direction" validate:"required,oneof=ENTRY EXIT"`
	Reason         string  `json:"reason" validate:"required,oneof=PURCHASE SALE ADJUSTMENT LOSS RETURN OTHER"`
	Quantity       int     `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents *int    `json:"unit_price_cents" validate:"omitempty,gt=0"`
	Notes          *string `json:"notes" validate:"omitempty,max=2000"`
}

type recordMovementResponse struct {
	Movement *repository.Movement `json:"movement"`
	Product  *repository.Product  `json:"product"`
}

// Record appends a movement to a product's ledger
func (h *MovementHandler) Record(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	var req recordMovementRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	input := &service.RecordMovementInput{
		ProductID:      productID,
		Direction:      req.Direction,
		Reason:         req.Reason,
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
		Notes:          req.Notes,
	}
	if userID := httputil.GetUserID(r.Context()); userID != "" {
		input.PerformedBy = &userID
	}

	movement, product, err := h.service.RecordMovement(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, &recordMovementResponse{
		Movement: movement,
		Product:  product,
	})
}

// ListByProduct lists a product's movements, newest first
func (h *MovementHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	page, perPage := pagination(r)

	movements, total, err := h.service.ListByProduct(r.Context(), productID, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, movements, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages(total, perPage),
	})
}

// List lists movements across all products
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	direction := r.URL.Query().Get("direction")
	page, perPage := pagination(r)

	movements, total, err := h.service.List(r.Context(), direction, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, movements, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages(total, perPage),
	})
}
