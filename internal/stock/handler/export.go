package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/internal/stock/service"
	"github.com/stocktrack/stocktrack-backend/pkg/httputil"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
)

// ExportHandler handles CSV export endpoints
type ExportHandler struct {
	service *service.ProductService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *service.ProductService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		service: svc,
		logger:  log,
	}
}

// ExportProductsCSV serves the filtered product list as a CSV download.
// The same query filters as the product list apply; ?fields selects a
// comma-separated projection of columns.
func (h *ExportHandler) ExportProductsCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := repository.ParseProductFilter(r.URL.Query())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var fields []string
	if raw := r.URL.Query().Get("fields"); raw != "" {
		fields = strings.Split(raw, ",")
	}

	rows, err := h.service.Export(r.Context(), filter, fields)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	filename := fmt.Sprintf("products-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			h.logger.Error().Err(err).Msg("failed to write CSV row")
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error().Err(err).Msg("failed to flush CSV export")
	}
}

// Facets serves the distinct filter values for building export and
// filter UIs
func (h *ExportHandler) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.GetFacets(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, facets)
}
