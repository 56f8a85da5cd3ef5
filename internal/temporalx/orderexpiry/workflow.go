package orderexpiry

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow waits out the payment window of one order and then asks the
// order service to expire it. The activity is a no-op for orders that were
// paid or cancelled in the meantime.
func Workflow(ctx workflow.Context, p Params) (Result, error) {
	res := Result{OrderID: strings.TrimSpace(p.OrderID)}
	if res.OrderID == "" {
		return res, temporal.NewNonRetryableApplicationError("orderexpiry: missing order_id", "invalid_params", nil)
	}

	if p.Timeout > 0 {
		if err := workflow.Sleep(ctx, p.Timeout); err != nil {
			return res, err
		}
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	})

	var out Result
	if err := workflow.ExecuteActivity(ctx, ActivityExpire, res.OrderID).Get(ctx, &out); err != nil {
		return res, fmt.Errorf("expire order %s: %w", p.OrderCode, err)
	}
	workflow.GetLogger(ctx).Info("Order payment window closed", "order_id", res.OrderID, "order_code", p.OrderCode, "expired", out.Expired)
	return out, nil
}
