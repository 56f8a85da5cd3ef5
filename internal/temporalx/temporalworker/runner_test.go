package temporalworker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/yungbote/shopfront-backend/internal/platform/logger"
	"github.com/yungbote/shopfront-backend/internal/temporalx"
	"github.com/yungbote/shopfront-backend/internal/temporalx/orderexpiry"
)

type countingExpirer struct{ n int }

func (c *countingExpirer) ExpireUnpaid(context.Context, uuid.UUID, string) (bool, error) {
	c.n++
	return true, nil
}

func TestNewRunner_RequiresClient(t *testing.T) {
	_, err := NewRunner(logger.Nop(), nil, temporalx.Config{}, &countingExpirer{})
	require.Error(t, err)
}

func TestRegister_WorkflowRunsByName(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	orders := &countingExpirer{}
	Register(env, &orderexpiry.Activities{Log: logger.Nop(), Orders: orders})

	env.ExecuteWorkflow(orderexpiry.WorkflowName, orderexpiry.Params{OrderID: uuid.NewString(), Timeout: time.Minute})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	require.Equal(t, 1, orders.n)
}

func TestBackoff(t *testing.T) {
	require.Equal(t, 250*time.Millisecond, backoff(1))
	require.Equal(t, time.Second, backoff(3))
	require.Equal(t, 5*time.Second, backoff(10))
}
