package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/shopfront-backend/internal/platform/logger"
	"github.com/yungbote/shopfront-backend/internal/temporalx"
	"github.com/yungbote/shopfront-backend/internal/temporalx/orderexpiry"
)

const (
	startMaxWait    = 60 * time.Second
	startBackoff    = 250 * time.Millisecond
	startBackoffMax = 5 * time.Second
)

// Runner hosts the order workflows and activities on the configured task queue.
type Runner struct {
	log    *logger.Logger
	tc     temporalsdkclient.Client
	cfg    temporalx.Config
	orders orderexpiry.Expirer
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, cfg temporalx.Config, orders orderexpiry.Expirer) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if orders == nil {
		return nil, fmt.Errorf("temporal worker missing order service")
	}
	return &Runner{
		log:    log.With("component", "TemporalWorker"),
		tc:     tc,
		cfg:    cfg,
		orders: orders,
	}, nil
}

// Start begins polling and returns once the worker is running. The worker
// stops when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.log.Info("Starting Temporal worker", "address", r.cfg.Address, "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue)

	if r.cfg.AutoRegister {
		if err := temporalx.EnsureNamespace(ctx, r.log, r.cfg); err != nil {
			r.log.Warn("Temporal namespace ensure failed; worker will retry on start", "namespace", r.cfg.Namespace, "error", err)
		}
	}

	deadline := time.Now().Add(startMaxWait)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", r.cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		isMissingNamespace := errors.As(startErr, &nfe)
		if isMissingNamespace && r.cfg.AutoRegister {
			_ = temporalx.EnsureNamespace(ctx, r.log, r.cfg)
		}
		if time.Now().After(deadline) {
			if isMissingNamespace {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", r.cfg.Namespace, startErr)
			}
			return startErr
		}

		r.log.Warn("Temporal worker failed to start; retrying", "task_queue", r.cfg.TaskQueue, "attempt", attempt, "error", startErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
}

func (r *Runner) newWorker() worker.Worker {
	concurrency := r.cfg.WorkerParallel
	if concurrency < 1 {
		concurrency = 1
	}
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	Register(w, &orderexpiry.Activities{Log: r.log, Orders: r.orders})
	return w
}

// Registrar is satisfied by worker.Worker and the SDK test environment.
type Registrar interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register binds the order workflows and activities under their stable names.
func Register(reg Registrar, acts *orderexpiry.Activities) {
	reg.RegisterWorkflowWithOptions(orderexpiry.Workflow, workflow.RegisterOptions{Name: orderexpiry.WorkflowName})
	reg.RegisterActivityWithOptions(acts.Expire, activity.RegisterOptions{Name: orderexpiry.ActivityExpire})
}

func backoff(attempt int) time.Duration {
	d := startBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= startBackoffMax {
			return startBackoffMax
		}
	}
	return d
}
