package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

const TriggerSweeper = "sweeper"

// OrderExpirer cancels online orders whose payment window has elapsed.
type OrderExpirer interface {
	ExpireOverdue(ctx context.Context, trigger string) (int, error)
}

// TokenPruner drops refresh tokens that expired before the given time.
type TokenPruner interface {
	DeleteExpired(dbc dbctx.Context, before time.Time) (int64, error)
}

// Worker runs the periodic maintenance sweep: overdue unpaid orders and
// expired sessions. It is the fallback for the payment-timeout workflow and
// the only expiry path when temporal is not configured.
type Worker struct {
	log      *logger.Logger
	orders   OrderExpirer
	tokens   TokenPruner
	interval time.Duration
	now      func() time.Time

	wg sync.WaitGroup
}

func NewWorker(baseLog *logger.Logger, orders OrderExpirer, tokens TokenPruner, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Worker{
		log:      baseLog.With("component", "MaintenanceWorker"),
		orders:   orders,
		tokens:   tokens,
		interval: interval,
		now:      time.Now,
	}
}

// Start launches the loop; it stops when ctx is cancelled. Wait blocks until
// it has.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting maintenance worker", "interval", w.interval.String())
	w.wg.Add(1)
	go w.runLoop(ctx)
}

func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) runLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Maintenance worker stopped")
			return
		case <-ticker.C:
			w.safeRun(ctx)
		}
	}
}

func (w *Worker) safeRun(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Maintenance sweep panic", "panic", fmt.Sprint(r))
		}
	}()
	if _, err := w.RunOnce(ctx); err != nil {
		w.log.Warn("Maintenance sweep failed", "error", err)
	}
}

type SweepResult struct {
	ExpiredOrders int
	PrunedTokens  int64
}

// RunOnce performs a single sweep. Both halves run even if one fails.
func (w *Worker) RunOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	var firstErr error

	if w.orders != nil {
		n, err := w.orders.ExpireOverdue(ctx, TriggerSweeper)
		res.ExpiredOrders = n
		if err != nil {
			firstErr = fmt.Errorf("expire orders: %w", err)
		}
	}
	if w.tokens != nil {
		n, err := w.tokens.DeleteExpired(dbctx.New(ctx), w.now())
		res.PrunedTokens = n
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("prune tokens: %w", err)
		}
	}
	if res.ExpiredOrders > 0 || res.PrunedTokens > 0 {
		w.log.Info("Maintenance sweep done", "expired_orders", res.ExpiredOrders, "pruned_tokens", res.PrunedTokens)
	}
	return res, firstErr
}
