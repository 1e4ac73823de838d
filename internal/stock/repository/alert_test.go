package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/pkg/errors"
	"github.com/stocktrack/stocktrack-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertRepository_CreateIfAbsent_Dedup(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	productRepo := repository.NewProductRepository(suite.DB)
	alertRepo := repository.NewAlertRepository(suite.DB)
	product := createProduct(t, ctx, productRepo, suite.Fixtures.Product())

	inserted, err := alertRepo.CreateIfAbsent(ctx, &repository.Alert{
		ProductID: product.ID,
		Kind:      repository.AlertLowStock,
		Severity:  repository.SeverityHigh,
		Message:   "down to 1 unit",
	})
	require.NoError(t, err)
	assert.True(t, inserted)

	// Second open alert of the same kind is a silent no-op
	inserted, err = alertRepo.CreateIfAbsent(ctx, &repository.Alert{
		ProductID: product.ID,
		Kind:      repository.AlertLowStock,
		Severity:  repository.SeverityMedium,
		Message:   "down to 2 units",
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	// A different kind still goes through
	inserted, err = alertRepo.CreateIfAbsent(ctx, &repository.Alert{
		ProductID: product.ID,
		Kind:      repository.AlertNearExpiry,
		Severity:  repository.SeverityMedium,
		Message:   "expires in 10 days",
	})
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestAlertRepository_CreateIfAbsent_Concurrent(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	productRepo := repository.NewProductRepository(suite.DB)
	alertRepo := repository.NewAlertRepository(suite.DB)
	product := createProduct(t, ctx, productRepo, suite.Fixtures.Product())

	const workers = 8
	results := make([]bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inserted, err := alertRepo.CreateIfAbsent(ctx, &repository.Alert{
				ProductID: product.ID,
				Kind:      repository.AlertLowStock,
				Severity:  repository.SeverityHigh,
				Message:   "low stock",
			})
			assert.NoError(t, err)
			results[i] = inserted
		}(i)
	}
	wg.Wait()

	insertedCount := 0
	for _, r := range results {
		if r {
			insertedCount++
		}
	}
	assert.Equal(t, 1, insertedCount)
}

func TestAlertRepository_CreateIfAbsent_AfterResolve(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	productRepo := repository.NewProductRepository(suite.DB)
	alertRepo := repository.NewAlertRepository(suite.DB)
	product := createProduct(t, ctx, productRepo, suite.Fixtures.Product())

	alert := &repository.Alert{
		ProductID: product.ID,
		Kind:      repository.AlertLowStock,
		Severity:  repository.SeverityHigh,
		Message:   "low stock",
	}
	inserted, err := alertRepo.CreateIfAbsent(ctx, alert)
	require.NoError(t, err)
	require.True(t, inserted)

	_, err = alertRepo.Resolve(ctx, alert.ID)
	require.NoError(t, err)

	// Once the open alert is resolved the condition may fire again
	inserted, err = alertRepo.CreateIfAbsent(ctx, &repository.Alert{
		ProductID: product.ID,
		Kind:      repository.AlertLowStock,
		Severity:  repository.SeverityHigh,
		Message:   "low stock again",
	})
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestAlertRepository_Resolve_Idempotent(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	productRepo := repository.NewProductRepository(suite.DB)
	alertRepo := repository.NewAlertRepository(suite.DB)
	product := createProduct(t, ctx, productRepo, suite.Fixtures.Product())

	alert := &repository.Alert{
		ProductID: product.ID,
		Kind:      repository.AlertNoMovement,
		Severity:  repository.SeverityLow,
		Message:   "no movements",
	}
	_, err := alertRepo.CreateIfAbsent(ctx, alert)
	require.NoError(t, err)

	resolved, err := alertRepo.Resolve(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	require.NotNil(t, resolved.ResolvedAt)
	firstResolvedAt := *resolved.ResolvedAt

	again, err := alertRepo.Resolve(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, again.Resolved)
	require.NotNil(t, again.ResolvedAt)
	assert.Equal(t, firstResolvedAt, *again.ResolvedAt)
}

func TestAlertRepository_Resolve_NotFound(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	alertRepo := repository.NewAlertRepository(suite.DB)
	_, err := alertRepo.Resolve(ctx, "00000000-0000-0000-0000-000000000000")

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestAlertRepository_List_Filters(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	productRepo := repository.NewProductRepository(suite.DB)
	alertRepo := repository.NewAlertRepository(suite.DB)
	product := createProduct(t, ctx, productRepo, suite.Fixtures.Product())
	other := createProduct(t, ctx, productRepo, suite.Fixtures.Product())

	lowStock := &repository.Alert{
		ProductID: product.ID, Kind: repository.AlertLowStock,
		Severity: repository.SeverityMedium, Message: "low",
	}
	_, err := alertRepo.CreateIfAbsent(ctx, lowStock)
	require.NoError(t, err)

	nearExpiry := &repository.Alert{
		ProductID: product.ID, Kind: repository.AlertNearExpiry,
		Severity: repository.SeverityHigh, Message: "expiring",
	}
	_, err = alertRepo.CreateIfAbsent(ctx, nearExpiry)
	require.NoError(t, err)

	noMovement := &repository.Alert{
		ProductID: other.ID, Kind: repository.AlertNoMovement,
		Severity: repository.SeverityLow, Message: "stale",
	}
	_, err = alertRepo.CreateIfAbsent(ctx, noMovement)
	require.NoError(t, err)

	_, err = alertRepo.Resolve(ctx, noMovement.ID)
	require.NoError(t, err)

	unresolved := false
	alerts, total, err := alertRepo.List(ctx, &unresolved, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, alerts, 2)

	// Severity ordering: HIGH before MEDIUM
	assert.Equal(t, repository.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, repository.SeverityMedium, alerts[1].Severity)

	alerts, total, err = alertRepo.List(ctx, nil, repository.AlertNoMovement, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Resolved)
}
