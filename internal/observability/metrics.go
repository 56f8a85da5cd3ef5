package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/platform/envutil"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	ordersCreated   *CounterVec
	orderRevenue    *CounterVec
	orderTransition *CounterVec
	ordersExpired   *CounterVec
	stockConflicts  *CounterVec
	payments        *CounterVec
	cacheLookups    *CounterVec
	emails          *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics or nil when disabled. Every method is
// nil-safe, so callers never need to check.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	d := envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

// New builds a standalone registry. Init is the process-wide entry point.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("shop_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"shop_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("shop_api_inflight_requests", "In-flight API requests."),

		ordersCreated:   NewCounterVec("shop_orders_created_total", "Orders created by payment method.", []string{"method"}),
		orderRevenue:    NewCounterVec("shop_order_value_vnd_total", "Order totals (VND) at creation by payment method.", []string{"method"}),
		orderTransition: NewCounterVec("shop_order_transitions_total", "Order status transitions by target status and actor.", []string{"status", "actor"}),
		ordersExpired:   NewCounterVec("shop_orders_expired_total", "Unpaid online orders cancelled by the payment timeout, by trigger.", []string{"trigger"}),
		stockConflicts:  NewCounterVec("shop_stock_conflicts_total", "Order lines rejected for insufficient stock.", []string{"stage"}),
		payments:        NewCounterVec("shop_payment_callbacks_total", "Payment callbacks by provider/source/outcome.", []string{"provider", "source", "outcome"}),
		cacheLookups:    NewCounterVec("shop_cache_lookups_total", "Catalog cache lookups by kind/result.", []string{"kind", "result"}),
		emails:          NewCounterVec("shop_emails_total", "Transactional emails by template/status.", []string{"template", "status"}),

		pgStats:   NewGaugeVec("shop_postgres_pool", "Postgres pool stats.", []string{"stat"}),
		redisUp:   NewGauge("shop_redis_up", "Redis availability (1=up, 0=down)."),
		redisPing: NewGauge("shop_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

func (m *Metrics) collectors() []collector {
	return []collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.ordersCreated, m.orderRevenue, m.orderTransition, m.ordersExpired, m.stockConflicts,
		m.payments, m.cacheLookups, m.emails,
		m.pgStats, m.redisUp, m.redisPing,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.collectors() {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) OrderCreated(method string, total int64) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc(method)
	m.orderRevenue.Add(float64(total), method)
}

func (m *Metrics) OrderTransition(status, actor string) {
	if m == nil {
		return
	}
	m.orderTransition.Inc(status, actor)
}

func (m *Metrics) OrderExpired(trigger string) {
	if m == nil {
		return
	}
	m.ordersExpired.Inc(trigger)
}

func (m *Metrics) StockConflict(stage string) {
	if m == nil {
		return
	}
	m.stockConflicts.Inc(stage)
}

func (m *Metrics) PaymentCallback(provider, source, outcome string) {
	if m == nil {
		return
	}
	m.payments.Inc(provider, source, outcome)
}

func (m *Metrics) CacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(kind, result)
}

func (m *Metrics) EmailSent(template string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.emails.Inc(template, status)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: postgres stats unavailable", "error", err)
		}
		return
	}
	go m.every(ctx, func() {
		stats := sqlDB.Stats()
		m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
		m.pgStats.Set(float64(stats.InUse), "in_use")
		m.pgStats.Set(float64(stats.Idle), "idle")
		m.pgStats.Set(float64(stats.WaitCount), "wait_count")
		m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
		m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
	})
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// StartRedisCollector probes the cache connection on every scrape interval.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, p Pinger) {
	if m == nil || p == nil {
		return
	}
	go m.every(ctx, func() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		start := time.Now()
		if err := p.Ping(pingCtx); err != nil {
			m.redisUp.Set(0)
			if log != nil && ctx.Err() == nil {
				log.Warn("metrics: redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	})
}

func (m *Metrics) every(ctx context.Context, fn func()) {
	ticker := time.NewTicker(scrapeInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
