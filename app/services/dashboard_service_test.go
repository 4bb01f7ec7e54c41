package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darzi-app/darzi/app/models"
	"github.com/darzi-app/darzi/app/repositories"
	"github.com/darzi-app/darzi/app/services"
)

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t, shopNow)

	s, err := f.dashboard.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, s.Customers)
	assert.Equal(t, 8, s.Orders)
	assert.True(t, s.Revenue.Equal(decimal.NewFromInt(17400)), s.Revenue.String())
	assert.Equal(t, []models.StatusCount{
		{Status: models.StatusPending, Count: 2},
		{Status: models.StatusPaid, Count: 1},
		{Status: models.StatusDelivered, Count: 5},
	}, s.ByStatus)

	assert.Equal(t, []string{"ORD-121"}, orderIDs(s.Delayed))
	assert.Equal(t, []string{"ORD-124", "ORD-123", "ORD-122", "ORD-121", "ORD-128"}, orderIDs(s.Recent))
	assert.Equal(t, "Vikram Singh", s.Recent[0].CustomerName)

	require.NotEmpty(t, s.Popular)
	assert.Equal(t, "Shirt", s.Popular[0].Name)
}

func TestDashboardEmptyShop(t *testing.T) {
	svc := services.NewDashboardService(repositories.NewMemoryStore(), fixedClock(shopNow))

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, s.Orders)
	assert.True(t, s.Revenue.IsZero())
	assert.Empty(t, s.Recent)
	assert.Empty(t, s.Delayed)
	assert.Len(t, s.ByStatus, 3)
}
