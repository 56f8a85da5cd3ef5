package services

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	"github.com/yungbote/shopfront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
)

type orderFixture struct {
	*testEnv
	svc       *orderService
	notifier  *recordingNotifier
	scheduler *recordingScheduler
	cache     *memCache
}

func newOrderFixture(t *testing.T, withGateway bool) *orderFixture {
	t.Helper()
	e := newEnv(t)
	f := &orderFixture{
		testEnv:   e,
		notifier:  &recordingNotifier{},
		scheduler: &recordingScheduler{},
		cache:     newMemCache(),
	}
	deps := OrderServiceDeps{
		OrderRepo:   e.orders,
		PaymentRepo: e.payments,
		ProductRepo: e.products,
		CartRepo:    e.carts,
		UserRepo:    e.users,
		Scheduler:   f.scheduler,
		Notifier:    f.notifier,
		Cache:       f.cache,
	}
	if withGateway {
		deps.Gateway = testGateway(t)
	}
	cfg := OrderConfig{ShippingFee: 30000, FreeShippingThreshold: 500000, PaymentTimeout: 30 * time.Minute}
	f.svc = NewOrderService(e.tx, e.log, cfg, deps).(*orderService)
	return f
}

func (f *orderFixture) place(t *testing.T, userID uuid.UUID, method types.PaymentMethod, lines ...OrderLineInput) *PlacedOrder {
	t.Helper()
	out, err := f.svc.Create(f.ctx, userID, CreateOrderInput{
		Items:         lines,
		Shipping:      testShipping(),
		PaymentMethod: method,
		ClientIP:      "10.0.0.1",
	})
	require.NoError(t, err)
	return out
}

func TestOrderCreateCODReservesStock(t *testing.T) {
	f := newOrderFixture(t, false)
	u := testutil.SeedUser(t, f.ctx, f.tx, "cod@example.com")
	a := testutil.SeedProduct(t, f.ctx, f.tx, "Order A", 120000, 5)
	b := testutil.SeedProduct(t, f.ctx, f.tx, "Order B", 80000, 5)
	require.NoError(t, f.cache.Set(f.ctx, productItemKey(a.ID.String()), a))

	_, err := f.carts.SetQuantity(dbctx.New(f.ctx), u.ID, a.ID, 1)
	require.NoError(t, err)
	_, err = f.carts.SetQuantity(dbctx.New(f.ctx), u.ID, b.ID, 1)
	require.NoError(t, err)

	placed := f.place(t, u.ID, types.MethodCOD,
		OrderLineInput{ProductID: a.ID, Quantity: 1},
		OrderLineInput{ProductID: a.ID, Quantity: 1},
	)
	o := placed.Order
	assert.Empty(t, placed.PaymentURL)
	assert.True(t, strings.HasPrefix(o.Code, "ORD"))
	assert.Equal(t, types.OrderStatusPending, o.Status)
	assert.Equal(t, types.PaymentUnpaid, o.PaymentStatus)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, int64(240000), o.ItemsPrice)
	assert.Equal(t, int64(30000), o.ShippingPrice)
	assert.Equal(t, int64(270000), o.TotalPrice)

	after := f.reloadProduct(t, a.ID)
	assert.Equal(t, 3, after.Stock)
	assert.Equal(t, 2, after.Sold)
	assert.False(t, f.cache.has(productItemKey(a.ID.String())))

	cart, err := f.carts.ListByUser(dbctx.New(f.ctx), u.ID)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, b.ID, cart[0].ProductID)

	assert.Equal(t, []string{o.Code}, f.notifier.placed)
	assert.Empty(t, f.scheduler.calls)
}

func TestOrderCreateFreeShippingFromCart(t *testing.T) {
	f := newOrderFixture(t, false)
	u := testutil.SeedUser(t, f.ctx, f.tx, "free@example.com")
	p := testutil.SeedProduct(t, f.ctx, f.tx, "Order Big", 250000, 5)

	_, err := f.svc.Create(f.ctx, u.ID, CreateOrderInput{Shipping: testShipping(), PaymentMethod: types.MethodCOD})
	requireCode(t, err, "empty_cart")

	_, err = f.carts.SetQuantity(dbctx.New(f.ctx), u.ID, p.ID, 2)
	require.NoError(t, err)
	placed := f.place(t, u.ID, types.MethodCOD)
	assert.Equal(t, int64(500000), placed.Order.ItemsPrice)
	assert.Zero(t, placed.Order.ShippingPrice)
	assert.Equal(t, int64(500000), placed.Order.TotalPrice)

	cart, err := f.carts.ListByUser(dbctx.New(f.ctx), u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestOrderCreateOutOfStockRollsBack(t *testing.T) {
	f := newOrderFixture(t, false)
	u := testutil.SeedUser(t, f.ctx, f.tx, "oos@example.com")
	plenty := testutil.SeedProduct(t, f.ctx, f.tx, "Order Plenty", 1000, 10)
	scarce := testutil.SeedProduct(t, f.ctx, f.tx, "Order Scarce", 1000, 1)

	_, err := f.svc.Create(f.ctx, u.ID, CreateOrderInput{
		Items: []OrderLineInput{
			{ProductID: plenty.ID, Quantity: 3},
			{ProductID: scarce.ID, Quantity: 2},
		},
		Shipping:      testShipping(),
		PaymentMethod: types.MethodCOD,
	})
	requireCode(t, err, "out_of_stock")

	assert.Equal(t, 10, f.reloadProduct(t, plenty.ID).Stock)
	assert.Equal(t, 1, f.reloadProduct(t, scarce.ID).Stock)

	mine, err := f.svc.ListMine(f.ctx, u.ID, OrderQuery{})
	require.NoError(t, err)
	assert.Zero(t, mine.Total)
	assert.Empty(t, f.notifier.placed)
}

func TestOrderCreateValidation(t *testing.T) {
	f := newOrderFixture(t, false)
	u := testutil.SeedUser(t, f.ctx, f.tx, "invalid@example.com")
	p := testutil.SeedProduct(t, f.ctx, f.tx, "Order V", 1000, 10)
	line := []OrderLineInput{{ProductID: p.ID, Quantity: 1}}

	_, err := f.svc.Create(f.ctx, u.ID, CreateOrderInput{Items: line, Shipping: testShipping(), PaymentMethod: "bitcoin"})
	requireCode(t, err, "invalid_payment_method")

	_, err = f.svc.Create(f.ctx, u.ID, CreateOrderInput{Items: line, PaymentMethod: types.MethodCOD})
	requireCode(t, err, "invalid_shipping")

	_, err = f.svc.Create(f.ctx, u.ID, CreateOrderInput{Items: line, Shipping: testShipping(), PaymentMethod: types.MethodVNPay})
	requireCode(t, err, "payment_unavailable")

	_, err = f.svc.Create(f.ctx, u.ID, CreateOrderInput{
		Items: []OrderLineInput{{ProductID: p.ID, Quantity: 0}}, Shipping: testShipping(), PaymentMethod: types.MethodCOD,
	})
	requireCode(t, err, "invalid_quantity")

	_, err = f.svc.Create(f.ctx, u.ID, CreateOrderInput{
		Items: []OrderLineInput{{ProductID: uuid.New(), Quantity: 1}}, Shipping: testShipping(), PaymentMethod: types.MethodCOD,
	})
	requireCode(t, err, "product_not_found")
}

func TestOrderCreateVNPay(t *testing.T) {
	f := newOrderFixture(t, true)
	u := testutil.SeedUser(t, f.ctx, f.tx, "vnpay@example.com")
	p := testutil.SeedProduct(t, f.ctx, f.tx, "Order Online", 99000, 3)

	placed := f.place(t, u.ID, types.MethodVNPay, OrderLineInput{ProductID: p.ID, Quantity: 1})
	o := placed.Order
	assert.Equal(t, o.Code, o.PaymentTxnRef)

	parsed, err := url.Parse(placed.PaymentURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, o.Code, q.Get("vnp_TxnRef"))
	assert.Equal(t, "12900000", q.Get("vnp_Amount"))
	assert.Equal(t, "10.0.0.1", q.Get("vnp_IpAddr"))
	assert.NotEmpty(t, q.Get("vnp_SecureHash"))

	pay, err := f.payments.GetByTxnRef(dbctx.New(f.ctx), o.Code)
	require.NoError(t, err)
	require.NotNil(t, pay)
	assert.Equal(t, types.PaymentStatePending, pay.Status)
	assert.Equal(t, o.TotalPrice, pay.Amount)

	assert.Equal(t, []uuid.UUID{o.ID}, f.scheduler.calls)
	assert.Equal(t, 30*time.Minute, f.scheduler.after)
}

func TestOrderCancelByOwnerRestocks(t *testing.T) {
	f := newOrderFixture(t, false)
	owner := testutil.SeedUser(t, f.ctx, f.tx, "owner@example.com")
	other := testutil.SeedUser(t, f.ctx, f.tx, "other@example.com")
	p := testutil.SeedProduct(t, f.ctx, f.tx, "Order Cancel", 1000, 4)
	o := f.place(t, owner.ID, types.MethodCOD, OrderLineInput{ProductID: p.ID, Quantity: 3}).Order
	assert.Equal(t, 1, f.reloadProduct(t, p.ID).Stock)

	_, err := f.svc.Cancel(f.ctx, other.ID, o.ID, "")
	requireCode(t, err, "order_not_found")
	_, err = f.svc.GetMine(f.ctx, other.ID, o.ID)
	requireCode(t, err, "order_not_found")

	got, err := f.svc.Cancel(f.ctx, owner.ID, o.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCancelled, got.Status)
	assert.NotNil(t, got.CancelledAt)

	stored := f.reloadOrder(t, o.ID)
	assert.Equal(t, "changed my mind", stored.CancelReason)
	p2 := f.reloadProduct(t, p.ID)
	assert.Equal(t, 4, p2.Stock)
	assert.Equal(t, 0, p2.Sold)

	_, err = f.svc.Cancel(f.ctx, owner.ID, o.ID, "")
	requireCode(t, err, "invalid_transition")
	assert.Equal(t, []string{o.Code + ":cancelled"}, f.notifier.changed)
}

func TestOrderAdminLifecycleCOD(t *testing.T) {
	f := newOrderFixture(t, false)
	u := testutil.SeedUser(t, f.ctx, f.tx, "lifecycle@example.com")
	p := testutil.SeedProduct(t, f.ctx, f.tx, "Order Flow", 1000, 4)
	o := f.place(t, u.ID, types.MethodCOD, OrderLineInput{ProductID: p.ID, Quantity: 1}).Order

	_, err := f.svc.AdminUpdateStatus(f.ctx, o.ID, types.OrderStatusDelivered, "")
	requireCode(t, err, "invalid_transition")
	_, err = f.svc.AdminUpdateStatus(f.ctx, o.ID, "lost", "")
	requireCode(t, err, "invalid_status")

	for _, next := range []types.OrderStatus{types.OrderStatusConfirmed, types.OrderStatusShipping, types.OrderStatusDelivered} {
		_, err := f.svc.AdminUpdateStatus(f.ctx, o.ID, next, "")
		require.NoError(t, err, "to %s", next)
	}
	done := f.reloadOrder(t, o.ID)
	assert.Equal(t, types.OrderStatusDelivered, done.Status)
	assert.Equal(t, types.PaymentPaid, done.PaymentStatus)
	assert.NotNil(t, done.ConfirmedAt)
	assert.NotNil(t, done.ShippedAt)
	assert.NotNil(t, done.DeliveredAt)
	assert.NotNil(t, done.PaidAt)

	_, err = f.svc.AdminUpdateStatus(f.ctx, o.ID, types.OrderStatusCancelled, "")
	requireCode(t, err, "invalid_transition")
	_, err = f.svc.Cancel(f.ctx, u.ID, o.ID, "")
	requireCode(t, err, "invalid_transition")
}

func TestOrderAdminVNPayRules(t *testing.T) {
	f := newOrderFixture(t, true)
	u := testutil.SeedUser(t, f.ctx, f.tx, "vnrules@example.com")
	p := testutil.SeedProduct(t, f.ctx, f.tx, "Order Rules", 1000, 4)
	o := f.place(t, u.ID, types.MethodVNPay, OrderLineInput{ProductID: p.ID, Quantity: 2}).Order

	_, err := f.svc.AdminUpdateStatus(f.ctx, o.ID, types.OrderStatusConfirmed, "")
	requireCode(t, err, "payment_required")
	assert.Equal(t, types.OrderStatusPending, f.reloadOrder(t, o.ID).Status)

	ok, err := f.orders.UpdateGuarded(dbctx.New(f.ctx), o.ID, repos.OrderGuard{}, map[string]any{"payment_status": types.PaymentPaid})
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.AdminUpdateStatus(f.ctx, o.ID, types.OrderStatusConfirmed, "")
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, u.ID, o.ID, "")
	requireCode(t, err, "invalid_transition")

	got, err := f.svc.AdminUpdateStatus(f.ctx, o.ID, types.OrderStatusCancelled, "warehouse fire")
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCancelled, got.Status)
	assert.Equal(t, types.PaymentRefunded, got.PaymentStatus)
	assert.Equal(t, 4, f.reloadProduct(t, p.ID).Stock)
}

func TestOrderUnpaidVNPayStaysExpirableAfterAdminConfirm(t *testing.T) {
	f := newOrderFixture(t, true)
	u := testutil.SeedUser(t, f.ctx, f.tx, "confirm-unpaid@example.com")
	p := testutil.SeedProduct(t, f.ctx, f.tx, "Order Held", 1000, 4)
	o := f.place(t, u.ID, types.MethodVNPay, OrderLineInput{ProductID: p.ID, Quantity: 2}).Order

	_, err := f.svc.AdminUpdateStatus(f.ctx, o.ID, types.OrderStatusConfirmed, "")
	requireCode(t, err, "payment_required")

	_, err = f.svc.RetryPayment(f.ctx, u.ID, o.ID, "10.0.0.3", "")
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	n, err := f.svc.ExpireOverdue(f.ctx, TriggerSweeper)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expired := f.reloadOrder(t, o.ID)
	assert.Equal(t, types.OrderStatusCancelled, expired.Status)
	assert.Equal(t, types.PaymentUnpaid, expired.PaymentStatus)
	assert.Equal(t, 4, f.reloadProduct(t, p.ID).Stock)
}

func TestOrderRetryPayment(t *testing.T) {
	f := newOrderFixture(t, true)
	u := testutil.SeedUser(t, f.ctx, f.tx, "retry@example.com")
	p := testutil.SeedProduct(t, f.ctx, f.tx, "Order Retry", 1000, 4)
	o := f.place(t, u.ID, types.MethodVNPay, OrderLineInput{ProductID: p.ID, Quantity: 1}).Order
	cod := f.place(t, u.ID, types.MethodCOD, OrderLineInput{ProductID: p.ID, Quantity: 1}).Order

	again, err := f.svc.RetryPayment(f.ctx, u.ID, o.ID, "10.0.0.2", "NCB")
	require.NoError(t, err)
	want := o.Code + "-2"
	assert.Equal(t, want, again.Order.PaymentTxnRef)
	assert.Contains(t, again.PaymentURL, "vnp_TxnRef="+want)
	assert.Contains(t, again.PaymentURL, "vnp_BankCode=NCB")

	n, err := f.payments.CountByOrder(dbctx.New(f.ctx), o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = f.svc.RetryPayment(f.ctx, u.ID, cod.ID, "", "")
	requireCode(t, err, "invalid_transition")
	_, err = f.svc.RetryPayment(f.ctx, uuid.New(), o.ID, "", "")
	requireCode(t, err, "order_not_found")
}

func TestOrderExpireUnpaid(t *testing.T) {
	f := newOrderFixture(t, true)
	u := testutil.SeedUser(t, f.ctx, f.tx, "expire@example.com")
	p := testutil.SeedProduct(t, f.ctx, f.tx, "Order Expire", 1000, 4)
	o := f.place(t, u.ID, types.MethodVNPay, OrderLineInput{ProductID: p.ID, Quantity: 2}).Order
	cod := f.place(t, u.ID, types.MethodCOD, OrderLineInput{ProductID: p.ID, Quantity: 1}).Order
	assert.Equal(t, 1, f.reloadProduct(t, p.ID).Stock)

	done, err := f.svc.ExpireUnpaid(f.ctx, o.ID, TriggerWorkflow)
	require.NoError(t, err)
	assert.False(t, done, "not overdue yet")

	f.svc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	n, err := f.svc.ExpireOverdue(f.ctx, TriggerSweeper)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expired := f.reloadOrder(t, o.ID)
	assert.Equal(t, types.OrderStatusCancelled, expired.Status)
	assert.Equal(t, types.CancelReasonPaymentTimeout, expired.CancelReason)
	assert.Equal(t, 3, f.reloadProduct(t, p.ID).Stock)
	assert.Equal(t, types.OrderStatusPending, f.reloadOrder(t, cod.ID).Status)

	done, err = f.svc.ExpireUnpaid(f.ctx, o.ID, TriggerWorkflow)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = f.svc.ExpireUnpaid(f.ctx, uuid.New(), TriggerWorkflow)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestOrderListing(t *testing.T) {
	f := newOrderFixture(t, false)
	u := testutil.SeedUser(t, f.ctx, f.tx, "lister-orders@example.com")
	p := testutil.SeedProduct(t, f.ctx, f.tx, "Order List", 1000, 10)
	first := f.place(t, u.ID, types.MethodCOD, OrderLineInput{ProductID: p.ID, Quantity: 1}).Order
	f.place(t, u.ID, types.MethodCOD, OrderLineInput{ProductID: p.ID, Quantity: 1})
	_, err := f.svc.Cancel(f.ctx, u.ID, first.ID, "")
	require.NoError(t, err)

	mine, err := f.svc.ListMine(f.ctx, u.ID, OrderQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)

	cancelled, err := f.svc.AdminList(f.ctx, OrderQuery{UserID: u.ID, Status: "cancelled"})
	require.NoError(t, err)
	require.Equal(t, int64(1), cancelled.Total)
	assert.Equal(t, first.ID, cancelled.Items[0].ID)

	byCode, err := f.svc.AdminList(f.ctx, OrderQuery{Query: first.Code})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byCode.Total)

	_, err = f.svc.AdminList(f.ctx, OrderQuery{Status: "lost"})
	requireCode(t, err, "invalid_status")
	_, err = f.svc.AdminList(f.ctx, OrderQuery{PaymentStatus: "maybe"})
	requireCode(t, err, "invalid_payment_status")

	got, err := f.svc.AdminGet(f.ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}
