package orderexpiry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type fakeRun struct {
	temporalsdkclient.WorkflowRun
	id string
}

func (r fakeRun) GetID() string    { return r.id }
func (r fakeRun) GetRunID() string { return "run-1" }

type fakeStarter struct {
	opts     temporalsdkclient.StartWorkflowOptions
	workflow interface{}
	args     []interface{}
	err      error
}

func (f *fakeStarter) ExecuteWorkflow(_ context.Context, opts temporalsdkclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (temporalsdkclient.WorkflowRun, error) {
	f.opts = opts
	f.workflow = workflow
	f.args = args
	if f.err != nil {
		return nil, f.err
	}
	return fakeRun{id: opts.ID}, nil
}

func TestScheduler_StartsWorkflowPerOrder(t *testing.T) {
	starter := &fakeStarter{}
	s := NewScheduler(logger.Nop(), starter, "orders")
	id := uuid.New()

	require.NoError(t, s.SchedulePaymentTimeout(context.Background(), id, "ORD1", 30*time.Minute))

	assert.Equal(t, "order-expiry-"+id.String(), starter.opts.ID)
	assert.Equal(t, "orders", starter.opts.TaskQueue)
	assert.Equal(t, enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE, starter.opts.WorkflowIDReusePolicy)
	assert.Equal(t, WorkflowName, starter.workflow)
	require.Len(t, starter.args, 1)
	assert.Equal(t, Params{OrderID: id.String(), OrderCode: "ORD1", Timeout: 30 * time.Minute}, starter.args[0])
}

func TestScheduler_AlreadyStartedIsNotAnError(t *testing.T) {
	starter := &fakeStarter{err: serviceerror.NewWorkflowExecutionAlreadyStarted("exists", "", "")}
	s := NewScheduler(logger.Nop(), starter, "orders")
	require.NoError(t, s.SchedulePaymentTimeout(context.Background(), uuid.New(), "ORD1", time.Minute))
}

func TestScheduler_PropagatesOtherErrors(t *testing.T) {
	starter := &fakeStarter{err: errors.New("unavailable")}
	s := NewScheduler(logger.Nop(), starter, "orders")
	err := s.SchedulePaymentTimeout(context.Background(), uuid.New(), "ORD1", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start order expiry workflow")
}
