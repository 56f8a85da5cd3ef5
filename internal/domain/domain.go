package domain

import (
	"github.com/yungbote/shopfront-backend/internal/domain/auth"
	"github.com/yungbote/shopfront-backend/internal/domain/cart"
	"github.com/yungbote/shopfront-backend/internal/domain/catalog"
	"github.com/yungbote/shopfront-backend/internal/domain/order"
	"github.com/yungbote/shopfront-backend/internal/domain/user"
)

const (
	RoleCustomer = user.RoleCustomer
	RoleAdmin    = user.RoleAdmin

	OrderStatusPending   = order.StatusPending
	OrderStatusConfirmed = order.StatusConfirmed
	OrderStatusShipping  = order.StatusShipping
	OrderStatusDelivered = order.StatusDelivered
	OrderStatusCancelled = order.StatusCancelled

	CancelReasonPaymentTimeout = order.CancelReasonPaymentTimeout

	PaymentUnpaid   = order.PaymentUnpaid
	PaymentPaid     = order.PaymentPaid
	PaymentFailed   = order.PaymentFailed
	PaymentRefunded = order.PaymentRefunded

	MethodCOD   = order.MethodCOD
	MethodVNPay = order.MethodVNPay

	PaymentStatePending   = order.PaymentStatePending
	PaymentStateSucceeded = order.PaymentStateSucceeded
	PaymentStateFailed    = order.PaymentStateFailed
)

type User = user.User
type UserToken = auth.UserToken

type Product = catalog.Product
type Banner = catalog.Banner

type CartItem = cart.CartItem

type Order = order.Order
type OrderItem = order.OrderItem
type OrderStatus = order.Status
type OrderShipping = order.Shipping
type PaymentStatus = order.PaymentStatus
type PaymentMethod = order.PaymentMethod
type Payment = order.Payment
type PaymentState = order.PaymentState

func CanTransition(from, to OrderStatus) bool { return order.CanTransition(from, to) }

func IsValidOrderStatus(s OrderStatus) bool { return order.IsValidStatus(s) }

func IsValidPaymentStatus(s PaymentStatus) bool { return order.IsValidPaymentStatus(s) }

func IsValidPaymentMethod(m PaymentMethod) bool { return order.IsValidMethod(m) }

func IsValidRole(role string) bool { return user.IsValidRole(role) }

func AllOrderStatuses() []OrderStatus { return order.AllStatuses() }

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserToken{},
		&Product{},
		&Banner{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Payment{},
	}
}
