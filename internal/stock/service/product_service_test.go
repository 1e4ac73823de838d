package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/internal/stock/service"
	"github.com/stocktrack/stocktrack-backend/internal/stock/status"
	"github.com/stocktrack/stocktrack-backend/pkg/errors"
	"github.com/stocktrack/stocktrack-backend/pkg/messaging"
	"github.com/stocktrack/stocktrack-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService_Create(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	expiry := time.Now().UTC().AddDate(0, 0, 90)
	product, err := svc.products.Create(ctx, &service.CreateProductInput{
		Category:       "Rice",
		Brand:          "Tio Joao",
		Quantity:       20,
		Supplier:       "Atacadao",
		UnitPriceCents: testutil.PtrInt(1299),
		PurchaseDate:   time.Now().UTC().AddDate(0, 0, -2),
		ExpirationDate: &expiry,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, product.ID)
	assert.Equal(t, int64(25980), product.TotalValueCents)
	assert.Equal(t, status.TierValid, product.ValidityTier)
	svc.publisher.AssertEventPublished(t, messaging.EventProductCreated)
}

func TestProductService_Create_ExpiryBeforePurchase(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	purchase := time.Now().UTC()
	expiry := purchase.AddDate(0, 0, -10)
	_, err := svc.products.Create(ctx, &service.CreateProductInput{
		Category:     "Milk",
		Brand:        "Italac",
		Quantity:     5,
		Supplier:     "Assai",
		PurchaseDate: purchase,
		ExpirationDate: &expiry,
	})

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Details, "expiration_date")
}

func TestProductService_Create_ExpiryEqualToPurchase(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	// Same calendar day counts as not after, regardless of time of day
	day := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	expiry := day.Add(6 * time.Hour)
	_, err := svc.products.Create(ctx, &service.CreateProductInput{
		Category:       "Milk",
		Brand:          "Italac",
		Quantity:       5,
		Supplier:       "Assai",
		PurchaseDate:   day,
		ExpirationDate: &expiry,
	})

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Details, "expiration_date")
}

func TestProductService_Create_ZeroQuantityOpensAlert(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	product := svc.createProduct(t, ctx, testutil.WithQuantity(0))

	unresolved := false
	alerts, _, err := svc.alertRepo.List(ctx, &unresolved, repository.AlertLowStock, 1, 20)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, product.ID, alerts[0].ProductID)
	assert.Equal(t, repository.SeverityHigh, alerts[0].Severity)
}

func TestProductService_Update_PartialAndClearExpiration(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	product := svc.createProduct(t, ctx, testutil.WithExpirationIn(10))

	newBrand := "Rebranded"
	updated, err := svc.products.Update(ctx, product.ID, &service.UpdateProductInput{
		Brand:           &newBrand,
		ClearExpiration: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Rebranded", updated.Brand)
	assert.Nil(t, updated.ExpirationDate)
	assert.Equal(t, status.TierNoExpiry, updated.ValidityTier)
	// Untouched fields survive
	assert.Equal(t, product.Category, updated.Category)
	svc.publisher.AssertEventPublished(t, messaging.EventProductUpdated)
}

func TestProductService_Update_NoChangesIsNoOp(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	product := svc.createProduct(t, ctx)
	svc.publisher.Reset()

	updated, err := svc.products.Update(ctx, product.ID, &service.UpdateProductInput{})
	require.NoError(t, err)
	assert.Equal(t, product.UpdatedAt, updated.UpdatedAt)
	svc.publisher.AssertNoEventsPublished(t)
}

func TestProductService_Delete_Cascades(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	product := svc.createProduct(t, ctx, testutil.WithQuantity(10))

	_, _, err := svc.movements.RecordMovement(ctx, &service.RecordMovementInput{
		ProductID: product.ID,
		Direction: repository.DirectionExit,
		Reason:    repository.ReasonSale,
		Quantity:  9,
	})
	require.NoError(t, err)

	result, err := svc.products.Delete(ctx, product.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.MovementsDeleted)
	assert.Equal(t, int64(1), result.AlertsDeleted)
	svc.publisher.AssertEventPublished(t, messaging.EventProductDeleted)

	_, err = svc.products.Get(ctx, product.ID)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestProductService_Export(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	svc.createProduct(t, ctx, testutil.WithCategory("Rice"), testutil.WithBrand("Camil"))
	svc.createProduct(t, ctx, testutil.WithCategory("Beans"), testutil.WithBrand("Kicaldo"))

	rows, err := svc.products.Export(ctx, nil, []string{"category", "brand", "quantity"})
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"category", "brand", "quantity"}, rows[0])
	// Newest first
	assert.Equal(t, "Beans", rows[1][0])
	assert.Equal(t, "Rice", rows[2][0])
}

func TestProductService_Export_UnknownField(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	_, err := svc.products.Export(ctx, nil, []string{"secret"})

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BAD_REQUEST", appErr.Code)
}
