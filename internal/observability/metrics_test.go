package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.OrderCreated("cod", 100)
	m.PaymentCallback("vnpay", "ipn", "paid")
	m.CacheLookup("product", true)
	m.EmailSent("order_placed", nil)
	m.ApiInflightInc()
	m.StartRedisCollector(context.Background(), nil, nil)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestWritePrometheus(t *testing.T) {
	m := New()
	m.ObserveAPI("GET", "/api/products", "200", 30*time.Millisecond)
	m.OrderCreated("vnpay", 250000)
	m.OrderCreated("vnpay", 50000)
	m.OrderTransition("cancelled", "customer")
	m.EmailSent("order_placed", errors.New("boom"))

	if got := m.ordersCreated.Value("vnpay"); got != 2 {
		t.Fatalf("orders created=%v", got)
	}
	if got := m.orderRevenue.Value("vnpay"); got != 300000 {
		t.Fatalf("revenue=%v", got)
	}
	if got := m.apiLatency.Count("GET", "/api/products", "200"); got != 1 {
		t.Fatalf("latency count=%d", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# TYPE shop_orders_created_total counter",
		`shop_orders_created_total{method="vnpay"} 2`,
		`shop_order_transitions_total{status="cancelled",actor="customer"} 1`,
		`shop_emails_total{template="order_placed",status="failed"} 1`,
		`shop_api_request_duration_seconds_bucket{method="GET",route="/api/products",status="200",le="0.05"} 1`,
		`shop_api_request_duration_seconds_bucket{method="GET",route="/api/products",status="200",le="0.025"} 0`,
		`shop_api_request_duration_seconds_count{method="GET",route="/api/products",status="200"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString=%s", got)
	}
	if withLe("", "1") != `{le="1"}` {
		t.Fatalf("withLe empty")
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestRedisCollector(t *testing.T) {
	t.Setenv("METRICS_SCRAPE_INTERVAL_SECONDS", "1")
	m := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartRedisCollector(ctx, nil, fakePinger{})
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if m.redisUp.Value() == 1 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("redis_up never set")
}
