package order

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipping  Status = "shipping"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodCOD   PaymentMethod = "cod"
	MethodVNPay PaymentMethod = "vnpay"
)

const CancelReasonPaymentTimeout = "payment_timeout"

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipping, StatusCancelled},
	StatusShipping:  {StatusDelivered},
}

// CanTransition reports whether the lifecycle allows moving from -> to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipping, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func IsValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func IsValidMethod(m PaymentMethod) bool {
	return m == MethodCOD || m == MethodVNPay
}

func AllStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusShipping, StatusDelivered, StatusCancelled}
}

type Shipping struct {
	FullName string `gorm:"column:shipping_full_name;not null" json:"full_name"`
	Phone    string `gorm:"column:shipping_phone;not null" json:"phone"`
	Address  string `gorm:"column:shipping_address;not null" json:"address"`
	City     string `gorm:"column:shipping_city" json:"city"`
	Note     string `gorm:"column:shipping_note" json:"note,omitempty"`
}

type Order struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code   string    `gorm:"uniqueIndex;not null;column:code" json:"code"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Shipping Shipping `gorm:"embedded" json:"shipping"`

	PaymentMethod PaymentMethod `gorm:"not null;column:payment_method" json:"payment_method"`
	Status        Status        `gorm:"not null;index;column:status" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;index;column:payment_status" json:"payment_status"`
	PaymentTxnRef string        `gorm:"column:payment_txn_ref;index" json:"payment_txn_ref,omitempty"`

	ItemsPrice    int64 `gorm:"not null;column:items_price" json:"items_price"`
	ShippingPrice int64 `gorm:"not null;column:shipping_price" json:"shipping_price"`
	TotalPrice    int64 `gorm:"not null;column:total_price" json:"total_price"`

	PaidAt       *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`
	ConfirmedAt  *time.Time `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	ShippedAt    *time.Time `gorm:"column:shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt  *time.Time `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason string     `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Code == "" {
		o.Code = NewCode(time.Now())
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentUnpaid
	}
	return nil
}

// Cancellable reports whether the owner may still cancel.
func (o *Order) Cancellable() bool {
	if o == nil {
		return false
	}
	if o.PaymentStatus == PaymentPaid {
		return false
	}
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// AwaitingPayment is true for online orders that can still be paid.
func (o *Order) AwaitingPayment() bool {
	if o == nil {
		return false
	}
	return o.PaymentMethod == MethodVNPay &&
		o.Status == StatusPending &&
		(o.PaymentStatus == PaymentUnpaid || o.PaymentStatus == PaymentFailed)
}

// NewCode renders ORD + yyMMdd + six random digits.
func NewCode(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 1_000_000)
	}
	return fmt.Sprintf("ORD%s%06d", now.Format("060102"), n.Int64())
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Name      string    `gorm:"not null" json:"name"`
	Image     string    `json:"image"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Subtotal  int64     `gorm:"not null" json:"subtotal"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (OrderItem) TableName() string { return "order_item" }

func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}
