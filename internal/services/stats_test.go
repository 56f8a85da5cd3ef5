package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	"github.com/yungbote/shopfront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	db := testutil.SQLite(t)
	log := logger.Nop()
	users, products, orders := repos.NewUserRepo(db, log), repos.NewProductRepo(db, log), repos.NewOrderRepo(db, log)

	u := testutil.SeedUser(t, ctx, db, "stats@example.com")
	testutil.SeedAdmin(t, ctx, db, "stats-admin@example.com")
	low := testutil.SeedProduct(t, ctx, db, "Stats Low", 100000, 2)
	high := testutil.SeedProduct(t, ctx, db, "Stats High", 50000, 100)
	testutil.SeedProduct(t, ctx, db, "Stats Idle", 10000, 50)

	require.NoError(t, products.UpdateFields(dbctx.New(ctx), high.ID, map[string]any{"sold": 7}))
	require.NoError(t, products.UpdateFields(dbctx.New(ctx), low.ID, map[string]any{"sold": 3}))

	paid := testutil.SeedOrder(t, ctx, db, u.ID, types.MethodCOD, low, high)
	ok, err := orders.UpdateGuarded(dbctx.New(ctx), paid.ID, repos.OrderGuard{}, map[string]any{
		"status":         types.OrderStatusDelivered,
		"payment_status": types.PaymentPaid,
	})
	require.NoError(t, err)
	require.True(t, ok)
	testutil.SeedOrder(t, ctx, db, u.ID, types.MethodVNPay, high)

	svc := NewStatsService(log, users, products, orders)
	got, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), got.Users)
	assert.Equal(t, int64(3), got.Products)
	assert.Equal(t, int64(2), got.TotalOrders)
	assert.Equal(t, int64(1), got.Orders[types.OrderStatusPending])
	assert.Equal(t, int64(1), got.Orders[types.OrderStatusDelivered])
	assert.Equal(t, int64(0), got.Orders[types.OrderStatusCancelled])
	assert.Equal(t, int64(150000), got.Revenue)

	require.Len(t, got.LowStock, 1)
	assert.Equal(t, low.ID, got.LowStock[0].ID)
	require.Len(t, got.BestSellers, 2)
	assert.Equal(t, high.ID, got.BestSellers[0].ID)
	assert.Equal(t, low.ID, got.BestSellers[1].ID)
}

func TestDashboardStatsEmpty(t *testing.T) {
	db := testutil.SQLite(t)
	log := logger.Nop()
	svc := NewStatsService(log, repos.NewUserRepo(db, log), repos.NewProductRepo(db, log), repos.NewOrderRepo(db, log))

	got, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got.Revenue)
	assert.NotNil(t, got.LowStock)
	assert.NotNil(t, got.BestSellers)
	assert.Len(t, got.Orders, len(types.AllOrderStatuses()))
}
