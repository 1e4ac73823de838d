package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stocktrack/stocktrack-backend/internal/stock/service"
	"github.com/stocktrack/stocktrack-backend/pkg/messaging"
	"github.com/stocktrack/stocktrack-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAlerts(t *testing.T, ctx context.Context, svc *testServices, kind string) []*repository.Alert {
	t.Helper()

	unresolved := false
	alerts, _, err := svc.alertRepo.List(ctx, &unresolved, kind, 1, 50)
	require.NoError(t, err)
	return alerts
}

func TestAlertService_Reconcile_NearExpirySeverity(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()

	// Within 7 days of expiry the alert is HIGH
	urgent := svc.createProduct(t, ctx, testutil.WithExpirationIn(3))
	// Between 8 and 30 days it is MEDIUM
	upcoming := svc.createProduct(t, ctx, testutil.WithExpirationIn(20))
	// Beyond the window no alert opens
	svc.createProduct(t, ctx, testutil.WithExpirationIn(60))

	alerts := openAlerts(t, ctx, svc, repository.AlertNearExpiry)
	require.Len(t, alerts, 2)

	bySeverity := map[string]string{}
	for _, a := range alerts {
		bySeverity[a.ProductID] = a.Severity
	}
	assert.Equal(t, repository.SeverityHigh, bySeverity[urgent.ID])
	assert.Equal(t, repository.SeverityMedium, bySeverity[upcoming.ID])
}

func TestAlertService_Reconcile_ExpiredProductGetsNoNearExpiryAlert(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	svc.createProduct(t, ctx, testutil.WithExpirationIn(-2))

	alerts := openAlerts(t, ctx, svc, repository.AlertNearExpiry)
	assert.Empty(t, alerts)
}

func TestAlertService_Reconcile_NoMovement(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	product := svc.createProduct(t, ctx)

	// Fresh product: inactivity window has not elapsed
	require.NoError(t, svc.alerts.ReconcileByID(ctx, product.ID, time.Now().UTC()))
	assert.Empty(t, openAlerts(t, ctx, svc, repository.AlertNoMovement))

	// Backdate the product so it looks abandoned
	_, err := suite.RawDB.ExecContext(ctx,
		`UPDATE products SET created_at = NOW() - INTERVAL '45 days' WHERE id = $1`, product.ID)
	require.NoError(t, err)

	require.NoError(t, svc.alerts.ReconcileByID(ctx, product.ID, time.Now().UTC()))

	alerts := openAlerts(t, ctx, svc, repository.AlertNoMovement)
	require.Len(t, alerts, 1)
	assert.Equal(t, repository.SeverityLow, alerts[0].Severity)
}

func TestAlertService_Reconcile_RecentMovementSuppressesNoMovement(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	product := svc.createProduct(t, ctx, testutil.WithQuantity(50))

	_, err := suite.RawDB.ExecContext(ctx,
		`UPDATE products SET created_at = NOW() - INTERVAL '45 days' WHERE id = $1`, product.ID)
	require.NoError(t, err)

	_, _, err = svc.movements.RecordMovement(ctx, &service.RecordMovementInput{
		ProductID: product.ID,
		Direction: repository.DirectionExit,
		Reason:    repository.ReasonSale,
		Quantity:  1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.alerts.ReconcileByID(ctx, product.ID, time.Now().UTC()))
	assert.Empty(t, openAlerts(t, ctx, svc, repository.AlertNoMovement))
}

func TestAlertService_Reconcile_IsIdempotent(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	product := svc.createProduct(t, ctx, testutil.WithQuantity(1))

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.alerts.ReconcileByID(ctx, product.ID, time.Now().UTC()))
	}

	alerts := openAlerts(t, ctx, svc, repository.AlertLowStock)
	assert.Len(t, alerts, 1)
}

func TestAlertService_Resolve_PublishesEvent(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := context.Background()
	suite.TruncateAll(t, ctx)

	svc := newTestServices()
	product := svc.createProduct(t, ctx, testutil.WithQuantity(0))

	alerts := openAlerts(t, ctx, svc, repository.AlertLowStock)
	require.Len(t, alerts, 1)

	resolved, err := svc.alerts.Resolve(ctx, alerts[0].ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, product.ID, resolved.ProductID)
	svc.publisher.AssertEventPublished(t, messaging.EventAlertResolved)
}
