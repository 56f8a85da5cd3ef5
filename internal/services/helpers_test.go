package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	"github.com/yungbote/shopfront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/apierr"
	"github.com/yungbote/shopfront-backend/internal/platform/ctxutil"
	"github.com/yungbote/shopfront-backend/internal/platform/gcp"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
	"github.com/yungbote/shopfront-backend/internal/platform/mongolog"
	"github.com/yungbote/shopfront-backend/internal/platform/sendgrid"
	"github.com/yungbote/shopfront-backend/internal/platform/vnpay"
)

const testVNPaySecret = "test-hash-secret"

type testEnv struct {
	ctx context.Context
	tx  *gorm.DB
	log *logger.Logger

	users    repos.UserRepo
	tokens   repos.UserTokenRepo
	products repos.ProductRepo
	banners  repos.BannerRepo
	carts    repos.CartItemRepo
	orders   repos.OrderRepo
	payments repos.PaymentRepo
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	PasswordHashCost = bcrypt.MinCost
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := logger.Nop()
	return &testEnv{
		ctx:      context.Background(),
		tx:       tx,
		log:      log,
		users:    repos.NewUserRepo(tx, log),
		tokens:   repos.NewUserTokenRepo(tx, log),
		products: repos.NewProductRepo(tx, log),
		banners:  repos.NewBannerRepo(tx, log),
		carts:    repos.NewCartItemRepo(tx, log),
		orders:   repos.NewOrderRepo(tx, log),
		payments: repos.NewPaymentRepo(tx, log),
	}
}

func (e *testEnv) asUser(u *types.User) context.Context {
	return ctxutil.WithRequestData(e.ctx, &ctxutil.RequestData{UserID: u.ID, Role: u.Role})
}

func (e *testEnv) reloadProduct(t *testing.T, id uuid.UUID) *types.Product {
	t.Helper()
	p, err := e.products.GetByID(dbctx.New(e.ctx), id)
	if err != nil || p == nil {
		t.Fatalf("reload product %s: %v", id, err)
	}
	return p
}

func (e *testEnv) reloadOrder(t *testing.T, id uuid.UUID) *types.Order {
	t.Helper()
	o, err := e.orders.GetByID(dbctx.New(e.ctx), id)
	if err != nil || o == nil {
		t.Fatalf("reload order %s: %v", id, err)
	}
	return o
}

func testGateway(t *testing.T) *vnpay.Client {
	t.Helper()
	c, err := vnpay.New(vnpay.Config{TmnCode: "SHOPTEST", HashSecret: testVNPaySecret, ReturnURL: "http://localhost/return"})
	if err != nil {
		t.Fatalf("vnpay.New: %v", err)
	}
	return c
}

// signedCallback builds the query string the gateway sends back.
func signedCallback(txnRef string, amount int64, responseCode, transactionStatus string) url.Values {
	v := url.Values{}
	v.Set("vnp_TmnCode", "SHOPTEST")
	v.Set("vnp_TxnRef", txnRef)
	v.Set("vnp_Amount", strconv.FormatInt(amount*100, 10))
	v.Set("vnp_ResponseCode", responseCode)
	v.Set("vnp_TransactionStatus", transactionStatus)
	v.Set("vnp_TransactionNo", "14012345")
	v.Set("vnp_BankCode", "NCB")
	v.Set("vnp_PayDate", "20250102153000")
	v.Set("vnp_OrderInfo", "Thanh toan don hang "+txnRef)
	v.Set(vnpay.ParamSecureHash, vnpay.Sign(testVNPaySecret, vnpay.SignData(v)))
	return v
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", code)
	}
	ae, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected api error %q, got %v", code, err)
	}
	if ae.Code != code {
		t.Fatalf("error code: want=%q got=%q (%v)", code, ae.Code, err)
	}
}

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
	gens  map[string]int64
	gets  int
	hits  int
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}, gens: map[string]int64{}}
}

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *memCache) Generation(ctx context.Context, scope string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[scope], nil
}

func (c *memCache) Bump(ctx context.Context, scope string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[scope]++
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// brokenCache fails every call; callers must fall back to the database.
type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) Get(context.Context, string, any) (bool, error)    { return false, errCacheDown }
func (brokenCache) Set(context.Context, string, any) error            { return errCacheDown }
func (brokenCache) Delete(context.Context, ...string) error           { return errCacheDown }
func (brokenCache) Generation(context.Context, string) (int64, error) { return 0, errCacheDown }
func (brokenCache) Bump(context.Context, string) error                { return errCacheDown }

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memStore) UploadFile(dbc dbctx.Context, category gcp.BucketCategory, key, contentType string, file io.Reader) error {
	if s.fail != nil {
		return s.fail
	}
	raw, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[string(category)+"/"+key] = raw
	s.types[string(category)+"/"+key] = contentType
	return nil
}

func (s *memStore) DeleteFile(dbc dbctx.Context, category gcp.BucketCategory, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, string(category)+"/"+key)
	return nil
}

func (s *memStore) GetPublicURL(category gcp.BucketCategory, key string) string {
	return "https://cdn.test/" + string(category) + "/" + key
}

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

type recordingNotifier struct {
	mu      sync.Mutex
	placed  []string
	changed []string
}

func (n *recordingNotifier) OrderPlaced(ctx context.Context, order *types.Order, user *types.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, order.Code)
}

func (n *recordingNotifier) OrderStatusChanged(ctx context.Context, order *types.Order, user *types.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, order.Code+":"+string(order.Status))
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls []uuid.UUID
	after time.Duration
	err   error
}

func (s *recordingScheduler) SchedulePaymentTimeout(ctx context.Context, orderID uuid.UUID, orderCode string, after time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, orderID)
	s.after = after
	return s.err
}

type recordingEvents struct {
	mu     sync.Mutex
	events []mongolog.PaymentEvent
}

func (r *recordingEvents) Append(ctx context.Context, evt mongolog.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingEvents) outcomes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Source+":"+e.Outcome)
	}
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sendgrid.SendEmailRequest
	err  error
	done chan struct{}
}

func (m *fakeMailer) Send(ctx context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	m.mu.Lock()
	m.sent = append(m.sent, req)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &sendgrid.SendEmailResult{StatusCode: 202, MessageID: "msg-" + strings.ToLower(req.Subject[:3])}, nil
}

func testShipping() types.OrderShipping {
	return types.OrderShipping{FullName: "An Nguyen", Phone: "0900000000", Address: "1 Le Loi", City: "HCM"}
}
