package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

func sampleOrder() *types.Order {
	return &types.Order{
		Code:          "ORD250102123456",
		Status:        types.OrderStatusPending,
		PaymentMethod: types.MethodCOD,
		PaymentStatus: types.PaymentUnpaid,
		Items: []types.OrderItem{
			{Name: "Tai nghe <Pro>", Quantity: 2, UnitPrice: 150000, Subtotal: 300000},
		},
		ItemsPrice:    300000,
		ShippingPrice: 30000,
		TotalPrice:    330000,
	}
}

func TestEmailNotifierOrderPlaced(t *testing.T) {
	m := &fakeMailer{}
	n := NewEmailNotifier(logger.Nop(), m, false)
	user := &types.User{Email: "buyer@example.com", FirstName: "An", LastName: "Nguyen"}

	n.OrderPlaced(context.Background(), sampleOrder(), user)

	require.Len(t, m.sent, 1)
	req := m.sent[0]
	assert.Equal(t, "buyer@example.com", req.To[0].Email)
	assert.Equal(t, "Order ORD250102123456 received", req.Subject)
	assert.Equal(t, []string{templateOrderPlaced}, req.Categories)
	assert.Equal(t, "ORD250102123456", req.CustomArgs["order_code"])
	assert.Contains(t, req.Text, "Total: 330.000 ₫")
	assert.Contains(t, req.HTML, "Tai nghe &lt;Pro&gt;")
}

func TestEmailNotifierStatusPhrases(t *testing.T) {
	m := &fakeMailer{}
	n := NewEmailNotifier(logger.Nop(), m, false)
	user := &types.User{Email: "buyer@example.com"}

	o := sampleOrder()
	o.Status = types.OrderStatusCancelled
	o.CancelReason = types.CancelReasonPaymentTimeout
	n.OrderStatusChanged(context.Background(), o, user)

	o2 := sampleOrder()
	o2.Status = types.OrderStatusShipping
	n.OrderStatusChanged(context.Background(), o2, user)

	require.Len(t, m.sent, 2)
	assert.Contains(t, m.sent[0].Text, "not completed in time")
	assert.Contains(t, m.sent[0].Text, "Hi buyer@example.com")
	assert.Contains(t, m.sent[1].Text, "on its way")
}

func TestEmailNotifierSkipsAndSwallowsErrors(t *testing.T) {
	m := &fakeMailer{err: errors.New("provider down")}
	n := NewEmailNotifier(logger.Nop(), m, false)

	n.OrderPlaced(context.Background(), sampleOrder(), &types.User{})
	assert.Empty(t, m.sent)

	n.OrderPlaced(context.Background(), sampleOrder(), &types.User{Email: "x@example.com"})
	assert.Len(t, m.sent, 1)
}

func TestEmailNotifierAsyncOutlivesRequest(t *testing.T) {
	m := &fakeMailer{done: make(chan struct{}, 1)}
	n := NewEmailNotifier(logger.Nop(), m, true)

	ctx, cancel := context.WithCancel(context.Background())
	n.OrderPlaced(ctx, sampleOrder(), &types.User{Email: "async@example.com"})
	cancel()

	select {
	case <-m.done:
	case <-time.After(2 * time.Second):
		t.Fatal("async email was not sent")
	}
}

func TestNilMailerIsNoop(t *testing.T) {
	n := NewEmailNotifier(logger.Nop(), nil, true)
	n.OrderPlaced(context.Background(), sampleOrder(), &types.User{Email: "a@example.com"})
	_, ok := n.(noopNotifier)
	assert.True(t, ok)
}

func TestFormatVND(t *testing.T) {
	cases := map[int64]string{
		0:       "0 ₫",
		999:     "999 ₫",
		1000:    "1.000 ₫",
		30000:   "30.000 ₫",
		1234567: "1.234.567 ₫",
		-500000: "-500.000 ₫",
	}
	for in, want := range cases {
		if got := formatVND(in); got != want {
			t.Fatalf("formatVND(%d): want=%q got=%q", in, want, got)
		}
	}
	assert.True(t, strings.HasSuffix(formatVND(1), "₫"))
}
