package orderexpiry

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"

	"github.com/yungbote/shopfront-backend/internal/platform/logger"
	"github.com/yungbote/shopfront-backend/internal/services"
)

type Expirer interface {
	ExpireUnpaid(ctx context.Context, orderID uuid.UUID, trigger string) (bool, error)
}

type Activities struct {
	Log    *logger.Logger
	Orders Expirer
}

func (a *Activities) Expire(ctx context.Context, orderID string) (Result, error) {
	res := Result{OrderID: strings.TrimSpace(orderID)}
	id, err := uuid.Parse(res.OrderID)
	if err != nil || id == uuid.Nil {
		return res, temporal.NewNonRetryableApplicationError("orderexpiry: invalid order_id", "invalid_params", err)
	}
	expired, err := a.Orders.ExpireUnpaid(ctx, id, services.TriggerWorkflow)
	if err != nil {
		a.Log.Warn("Order expiry activity failed", "order_id", id, "error", err)
		return res, err
	}
	res.Expired = expired
	return res, nil
}
