package orderexpiry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/yungbote/shopfront-backend/internal/platform/logger"
	"github.com/yungbote/shopfront-backend/internal/services"
)

type fakeExpirer struct {
	mu       sync.Mutex
	calls    []uuid.UUID
	triggers []string
	expired  bool
	err      error
}

func (f *fakeExpirer) ExpireUnpaid(_ context.Context, id uuid.UUID, trigger string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	f.triggers = append(f.triggers, trigger)
	return f.expired, f.err
}

func newEnv(t *testing.T, orders Expirer) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	acts := &Activities{Log: logger.Nop(), Orders: orders}
	env.RegisterActivityWithOptions(acts.Expire, activity.RegisterOptions{Name: ActivityExpire})
	return env
}

func TestWorkflow_SleepsThenExpires(t *testing.T) {
	orders := &fakeExpirer{expired: true}
	env := newEnv(t, orders)

	var timer time.Duration
	env.SetOnTimerScheduledListener(func(_ string, d time.Duration) { timer = d })

	id := uuid.New()
	env.ExecuteWorkflow(Workflow, Params{OrderID: id.String(), OrderCode: "ORD261018000001", Timeout: 30 * time.Minute})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var res Result
	require.NoError(t, env.GetWorkflowResult(&res))
	require.True(t, res.Expired)
	require.Equal(t, id.String(), res.OrderID)
	require.Equal(t, 30*time.Minute, timer)
	require.Equal(t, []uuid.UUID{id}, orders.calls)
	require.Equal(t, []string{services.TriggerWorkflow}, orders.triggers)
}

func TestWorkflow_AlreadySettledOrder(t *testing.T) {
	env := newEnv(t, &fakeExpirer{expired: false})
	env.ExecuteWorkflow(Workflow, Params{OrderID: uuid.NewString(), Timeout: time.Minute})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var res Result
	require.NoError(t, env.GetWorkflowResult(&res))
	require.False(t, res.Expired)
}

func TestWorkflow_MissingOrderID(t *testing.T) {
	orders := &fakeExpirer{}
	env := newEnv(t, orders)
	env.ExecuteWorkflow(Workflow, Params{Timeout: time.Minute})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	require.Empty(t, orders.calls)
}

func TestWorkflow_InvalidOrderIDIsNotRetried(t *testing.T) {
	orders := &fakeExpirer{}
	env := newEnv(t, orders)
	env.ExecuteWorkflow(Workflow, Params{OrderID: "not-a-uuid"})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	require.Empty(t, orders.calls)
}

func TestWorkflow_RetriesFailingActivity(t *testing.T) {
	orders := &fakeExpirer{err: errors.New("db down")}
	env := newEnv(t, orders)
	env.ExecuteWorkflow(Workflow, Params{OrderID: uuid.NewString(), Timeout: time.Minute})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	require.Greater(t, len(orders.calls), 1)
}

func TestActivities_Expire(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	orders := &fakeExpirer{expired: true}
	acts := &Activities{Log: logger.Nop(), Orders: orders}
	env.RegisterActivity(acts.Expire)

	id := uuid.New()
	val, err := env.ExecuteActivity(acts.Expire, id.String())
	require.NoError(t, err)
	var res Result
	require.NoError(t, val.Get(&res))
	require.True(t, res.Expired)
	require.Equal(t, []uuid.UUID{id}, orders.calls)

	_, err = env.ExecuteActivity(acts.Expire, "")
	require.Error(t, err)
}
