// Package handler exposes the stock HTTP API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/internal/stock/service"
	"github.com/stocktrack/stocktrack-backend/pkg/errors"
	"github.com/stocktrack/stocktrack-backend/pkg/httputil"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

// ProductHandler handles product endpoints
type ProductHandler struct {
	service                  *service.ProductService
	defaultLowStockThreshold int
	logger                   *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(svc *service.ProductService, defaultLowStockThreshold int, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service:                  svc,
		defaultLowStockThreshold: defaultLowStockThreshold,
		logger:                   log,
	}
}

func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func totalPages(total int64, perPage int) int {
	pages := int(total) / perPage
	if int(total)%perPage > 0 {
		pages++
	}
	return pages
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errors.BadRequest("invalid " + field + ": expected YYYY-MM-DD")
	}
	return t, nil
}

type createProductRequest struct {
	Category       string   `json:"category" validate:"required,min=1,max=100"`
	Brand          string   `json:"brand" validate:"required,min=1,max=100"`
	Quantity       int      `json:"quantity" validate:"gte=0"`
	UnitWeightKg   *float64 `json:"unit_weight_kg" validate:"omitempty,gt=0"`
	Supplier       string   `json:"supplier" validate:"required,min=1,max=150"`
	UnitPriceCents *int     `json:"unit_price_cents" validate:"omitempty,gt=0"`
	PurchaseDate   string   `json:"purchase_date" validate:"required"`
	ExpirationDate *string  `json:"expiration_date"`
	Notes          *string  `json:"notes" validate:"omitempty,max=2000"`
}

// Create registers a new product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	purchaseDate, err := parseDate("purchase_date", req.PurchaseDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	input := &service.CreateProductInput{
		Category:       req.Category,
		Brand:          req.Brand,
		Quantity:       req.Quantity,
		UnitWeightKg:   req.UnitWeightKg,
		Supplier:       req.Supplier,
		UnitPriceCents: req.UnitPriceCents,
		PurchaseDate:   purchaseDate,
		Notes:          req.Notes,
	}
	if req.ExpirationDate != nil && *req.ExpirationDate != "" {
		expiry, err := parseDate("expiration_date", *req.ExpirationDate)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		input.ExpirationDate = &expiry
	}
	if userID := httputil.GetUserID(r.Context()); userID != "" {
		input.CreatedBy = &userID
	}

	product, err := h.service.Create(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, product)
}

// Get gets a product by ID
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// List lists products matching the query filters
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := repository.ParseProductFilter(r.URL.Query())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	page, perPage := pagination(r)
	products, total, err := h.service.List(r.Context(), filter, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, products, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages(total, perPage),
	})
}

type updateProductRequest struct {
	Category       *string  `json:"category" validate:"omitempty,min=1,max=100"`
	Brand          *string  `json:"brand" validate:"omitempty,min=1,max=100"`
	Quantity       *int     `json:"quantity" validate:"omitempty,gte=0"`
	UnitWeightKg   *float64 `json:"unit_weight_kg" validate:"omitempty,gt=0"`
	Supplier       *string  `json:"supplier" validate:"omitempty,min=1,max=150"`
	UnitPriceCents *int     `json:"unit_price_cents" validate:"omitempty,gt=0"`
	PurchaseDate   *string  `json:"purchase_date"`
	ExpirationDate *string  `json:"expiration_date"`
	Notes          *string  `json:"notes" validate:"omitempty,max=2000"`
}

// Update applies a partial update to a product. Sending an empty string
// for expiration_date clears it.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	input := &service.UpdateProductInput{
		Category:       req.Category,
		Brand:          req.Brand,
		Quantity:       req.Quantity,
		UnitWeightKg:   req.UnitWeightKg,
		Supplier:       req.Supplier,
		UnitPriceCents: req.UnitPriceCents,
		Notes:          req.Notes,
	}
	if req.PurchaseDate != nil {
		purchase, err := parseDate("purchase_date", *req.PurchaseDate)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		input.PurchaseDate = &purchase
	}
	if req.ExpirationDate != nil {
		if *req.ExpirationDate == "" {
			input.ClearExpiration = true
		} else {
			expiry, err := parseDate("expiration_date", *req.ExpirationDate)
			if err != nil {
				httputil.Error(w, err)
				return
			}
			input.ExpirationDate = &expiry
		}
	}

	product, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Delete removes a product with its movement history and alerts
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.service.Delete(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// ListExpiring lists products expiring within ?days (default 30)
func (h *ProductHandler) ListExpiring(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid days: expected an integer"))
			return
		}
		days = parsed
	}

	products, err := h.service.ListExpiring(r.Context(), days)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, products)
}

// ListExpired lists products past their expiration date
func (h *ProductHandler) ListExpired(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListExpired(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, products)
}

// ListLowStock lists products at or below ?threshold
func (h *ProductHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := h.defaultLowStockThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid threshold: expected an integer"))
			return
		}
		threshold = parsed
	}

	products, err := h.service.ListLowStock(r.Context(), threshold)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, products)
}
