package handler_test

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stocktrack/stocktrack-backend/internal/stock/events"
	"github.com/stocktrack/stocktrack-backend/internal/stock/handler"
	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/internal/stock/service"
	"github.com/stocktrack/stocktrack-backend/pkg/config"
	"github.com/stocktrack/stocktrack-backend/pkg/httputil"
	"github.com/stocktrack/stocktrack-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	// testing.Short panics unless flags are parsed first
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}

	code := m.Run()
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

func newTestRouter() chi.Router {
	publisher := events.NewStockEventPublisher(testutil.NewMockPublisher(), suite.Logger)

	productRepo := repository.NewProductRepository(suite.DB)
	movementRepo := repository.NewMovementRepository(suite.DB)
	alertRepo := repository.NewAlertRepository(suite.DB)

	cfg := config.AlertsConfig{
		LowStockThreshold:  5,
		NearExpiryDays:     30,
		NoMovementLookback: 30 * 24 * time.Hour,
	}

	alertService := service.NewAlertService(alertRepo, productRepo, movementRepo, publisher, suite.Logger, cfg)
	productService := service.NewProductService(productRepo, alertService, publisher, suite.Logger)
	movementService := service.NewMovementService(suite.DB, movementRepo, productRepo, alertService, publisher, suite.Logger)

	productHandler := handler.NewProductHandler(productService, cfg.LowStockThreshold, suite.Logger)
	movementHandler := handler.NewMovementHandler(movementService, suite.Logger)
	alertHandler := handler.NewAlertHandler(alertService, suite.Logger)
	exportHandler := handler.NewExportHandler(productService, suite.Logger)

	r := chi.NewRouter()
	r.Route("/products", func(r chi.Router) {
		r.Get("/", productHandler.List)
		r.Post("/", productHandler.Create)
		r.Get("/{id}", productHandler.Get)
		r.Put("/{id}", productHandler.Update)
		r.Delete("/{id}", productHandler.Delete)
		r.Post("/{id}/movements", movementHandler.Record)
	})
	r.Get("/alerts", alertHandler.List)
	r.Put("/alerts/{id}/resolve", alertHandler.Resolve)
	r.Get("/export/products.csv", exportHandler.ExportProductsCSV)
	return r
}

func TestProductHandler_Create(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.TruncateAll(t, context.Background())
	router := newTestRouter()

	req := testutil.NewHTTPRequest(http.MethodPost, "/products", map[string]interface{}{
		"category":         "Rice",
		"brand":            "Tio Joao",
		"quantity":         10,
		"supplier":         "Atacadao",
		"unit_price_cents": 1299,
		"purchase_date":    "2026-08-15",
		"expiration_date":  "2027-08-15",
	})
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusCreated)

	var resp httputil.Response
	testutil.ParseJSONBody(t, rr, &resp)
	assert.True(t, resp.Success)

	var product repository.Product
	data, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(data, &product))
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "Rice", product.Category)
	assert.Equal(t, int64(12990), product.TotalValueCents)
	assert.Equal(t, "VALID", string(product.ValidityTier))
}

func TestProductHandler_Create_MissingRequiredFields(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.TruncateAll(t, context.Background())
	router := newTestRouter()

	req := testutil.NewHTTPRequest(http.MethodPost, "/products", map[string]interface{}{
		"brand": "No Category",
	})
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rr, "Category")
}

func TestProductHandler_Create_MalformedDate(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.TruncateAll(t, context.Background())
	router := newTestRouter()

	req := testutil.NewHTTPRequest(http.MethodPost, "/products", map[string]interface{}{
		"category":      "Rice",
		"brand":         "Tio Joao",
		"quantity":      10,
		"supplier":      "Atacadao",
		"purchase_date": "15/08/2026",
	})
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rr, "purchase_date")
}

func TestProductHandler_Get_NotFound(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.TruncateAll(t, context.Background())
	router := newTestRouter()

	req := testutil.NewHTTPRequest(http.MethodGet, "/products/00000000-0000-0000-0000-000000000000", nil)
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestProductHandler_Get_MalformedID(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.TruncateAll(t, context.Background())
	router := newTestRouter()

	// Not a UUID; postgres rejects the cast and it must surface as a 400
	req := testutil.NewHTTPRequest(http.MethodGet, "/products/not-a-uuid", nil)
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	req = testutil.NewHTTPRequest(http.MethodDelete, "/products/not-a-uuid", nil)
	rr = testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestProductHandler_List_InvalidFilterRejected(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.TruncateAll(t, context.Background())
	router := newTestRouter()

	req := testutil.NewHTTPRequest(http.MethodGet, "/products?min_price_cents=cheap", nil)
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rr, "min_price_cents")
}

func TestMovementHandler_RecordAndAlertFlow(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.TruncateAll(t, context.Background())
	router := newTestRouter()

	// Create a product
	req := testutil.NewHTTPRequest(http.MethodPost, "/products", map[string]interface{}{
		"category":      "Beans",
		"brand":         "Kicaldo",
		"quantity":      10,
		"supplier":      "Assai",
		"purchase_date": "2026-08-01",
	})
	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var createResp httputil.Response
	testutil.ParseJSONBody(t, rr, &createResp)
	var product repository.Product
	data, _ := json.Marshal(createResp.Data)
	require.NoError(t, json.Unmarshal(data, &product))

	// Exit below the low-stock threshold
	req = testutil.NewHTTPRequest(http.MethodPost, "/products/"+product.ID+"/movements", map[string]interface{}{
		"direction": "EXIT",
		"reason":    "SALE",
		"quantity":  9,
	})
	rr = testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	testutil.AssertBodyContains(t, rr, `"quantity":1`)

	// The low-stock alert is visible and resolvable
	req = testutil.NewHTTPRequest(http.MethodGet, "/alerts?resolved=false&kind=LOW_STOCK", nil)
	rr = testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var listResp httputil.Response
	testutil.ParseJSONBody(t, rr, &listResp)
	var alerts []repository.Alert
	data, _ = json.Marshal(listResp.Data)
	require.NoError(t, json.Unmarshal(data, &alerts))
	require.Len(t, alerts, 1)

	req = testutil.NewHTTPRequest(http.MethodPut, "/alerts/"+alerts[0].ID+"/resolve", nil)
	rr = testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, `"resolved":true`)
}

func TestMovementHandler_Record_InvalidDirection(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.TruncateAll(t, context.Background())
	router := newTestRouter()

	req := testutil.NewHTTPRequest(http.MethodPost, "/products/some-id/movements", map[string]interface{}{
		"direction": "SIDEWAYS",
		"reason":    "SALE",
		"quantity":  1,
	})
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestExportHandler_ProductsCSV(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.TruncateAll(t, context.Background())
	router := newTestRouter()

	req := testutil.NewHTTPRequest(http.MethodPost, "/products", map[string]interface{}{
		"category":      "Rice",
		"brand":         "Camil",
		"quantity":      7,
		"supplier":      "Atacadao",
		"purchase_date": "2026-08-01",
	})
	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	req = testutil.NewHTTPRequest(http.MethodGet, "/export/products.csv?fields=category,brand,quantity", nil)
	rr = testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "products-")

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "category,brand,quantity", lines[0])
	assert.Equal(t, "Rice,Camil,7", lines[1])
}

func TestExportHandler_ProductsCSV_UnknownField(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.TruncateAll(t, context.Background())
	router := newTestRouter()

	req := testutil.NewHTTPRequest(http.MethodGet, "/export/products.csv?fields=password", nil)
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
