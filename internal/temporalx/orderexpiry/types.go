package orderexpiry

import (
	"time"

	"github.com/google/uuid"
)

const (
	WorkflowName   = "order_payment_timeout"
	ActivityExpire = "order_expire_unpaid"
)

type Params struct {
	OrderID   string        `json:"order_id"`
	OrderCode string        `json:"order_code"`
	Timeout   time.Duration `json:"timeout"`
}

type Result struct {
	OrderID string `json:"order_id"`
	Expired bool   `json:"expired"`
}

func WorkflowID(orderID uuid.UUID) string {
	return "order-expiry-" + orderID.String()
}
