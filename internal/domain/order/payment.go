package order

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateSucceeded PaymentState = "succeeded"
	PaymentStateFailed    PaymentState = "failed"
)

const ProviderVNPay = "vnpay"

type Payment struct {
	ID                uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID           uuid.UUID                             `gorm:"type:uuid;not null;index" json:"order_id"`
	Provider          string                                `gorm:"not null;column:provider" json:"provider"`
	TxnRef            string                                `gorm:"uniqueIndex;not null;column:txn_ref" json:"txn_ref"`
	Amount            int64                                 `gorm:"not null;column:amount" json:"amount"`
	BankCode          string                                `gorm:"column:bank_code" json:"bank_code,omitempty"`
	TransactionNo     string                                `gorm:"column:transaction_no" json:"transaction_no,omitempty"`
	ResponseCode      string                                `gorm:"column:response_code" json:"response_code,omitempty"`
	TransactionStatus string                                `gorm:"column:transaction_status" json:"transaction_status,omitempty"`
	Status            PaymentState                          `gorm:"not null;index;column:status" json:"status"`
	PayDate           *time.Time                            `gorm:"column:pay_date" json:"pay_date,omitempty"`
	RawParams         datatypes.JSONType[map[string]string] `gorm:"column:raw_params" json:"-"`
	CreatedAt         time.Time                             `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time                             `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string { return "payment" }

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Provider == "" {
		p.Provider = ProviderVNPay
	}
	if p.Status == "" {
		p.Status = PaymentStatePending
	}
	return nil
}
