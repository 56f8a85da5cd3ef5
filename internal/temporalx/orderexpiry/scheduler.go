package orderexpiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

// WorkflowStarter is the part of the Temporal client the scheduler needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options temporalsdkclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (temporalsdkclient.WorkflowRun, error)
}

type Scheduler struct {
	log       *logger.Logger
	tc        WorkflowStarter
	taskQueue string
}

func NewScheduler(log *logger.Logger, tc WorkflowStarter, taskQueue string) *Scheduler {
	return &Scheduler{
		log:       log.With("component", "OrderExpiryScheduler"),
		tc:        tc,
		taskQueue: taskQueue,
	}
}

// SchedulePaymentTimeout starts one timeout workflow per order. Starting it
// twice for the same order is not an error.
func (s *Scheduler) SchedulePaymentTimeout(ctx context.Context, orderID uuid.UUID, orderCode string, after time.Duration) error {
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                       WorkflowID(orderID),
		TaskQueue:                s.taskQueue,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionTimeout: after + time.Hour,
	}
	run, err := s.tc.ExecuteWorkflow(ctx, opts, WorkflowName, Params{
		OrderID:   orderID.String(),
		OrderCode: orderCode,
		Timeout:   after,
	})
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			return nil
		}
		return fmt.Errorf("start order expiry workflow: %w", err)
	}
	s.log.Debug("Scheduled payment timeout", "order_id", orderID, "workflow_id", run.GetID(), "run_id", run.GetRunID(), "after", after.String())
	return nil
}
