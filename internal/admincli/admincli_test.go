package admincli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/services"
)

// fakeAPI records admin calls and answers like the real server.
type fakeAPI struct {
	mu       sync.Mutex
	products map[string]bool
	banners  []*types.Banner
	calls    []string
}

func newFakeAPI(t *testing.T) (*fakeAPI, string) {
	t.Helper()
	api := &fakeAPI{products: map[string]bool{"Existing": true}}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)
	return api, srv.URL
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	if r.Header.Get("Authorization") != "Bearer admintok" {
		reply(w, http.StatusUnauthorized, map[string]any{"error": map[string]string{"message": "unauthorized", "code": "unauthorized"}})
		return
	}
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/admin/products":
		var in services.ProductInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if f.products[in.Name] {
			reply(w, http.StatusConflict, map[string]any{"error": map[string]string{"message": "product exists", "code": "product_exists"}})
			return
		}
		f.products[in.Name] = true
		reply(w, http.StatusCreated, map[string]any{"product": types.Product{ID: uuid.New(), Name: in.Name, Price: in.Price, Stock: in.Stock, IsActive: true}})
	case r.Method == http.MethodGet && r.URL.Path == "/api/admin/banners":
		reply(w, http.StatusOK, map[string]any{"items": f.banners})
	case r.Method == http.MethodPost && r.URL.Path == "/api/admin/banners":
		var in services.BannerInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		b := &types.Banner{ID: uuid.New(), Title: in.Title, Position: in.Position, IsActive: true}
		f.banners = append(f.banners, b)
		reply(w, http.StatusCreated, map[string]any{"banner": b})
	case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/status"):
		var in struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		reply(w, http.StatusOK, map[string]any{"order": types.Order{Code: "ORD1", Status: types.OrderStatus(in.Status), TotalPrice: 230000}})
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/api/admin/users/"):
		var in services.AdminUserUpdate
		_ = json.NewDecoder(r.Body).Decode(&in)
		u := types.User{Email: "buyer@example.com", Role: types.RoleCustomer}
		if in.IsBlocked != nil {
			u.IsBlocked = *in.IsBlocked
		}
		if in.Role != nil {
			u.Role = *in.Role
		}
		reply(w, http.StatusOK, map[string]any{"user": u})
	case r.Method == http.MethodGet && r.URL.Path == "/api/admin/stats":
		reply(w, http.StatusOK, services.DashboardStats{
			Users:       4,
			TotalOrders: 2,
			Revenue:     1250000,
			Orders:      map[types.OrderStatus]int64{types.OrderStatusPending: 1, types.OrderStatusDelivered: 1},
		})
	default:
		reply(w, http.StatusNotFound, map[string]any{"error": map[string]string{"message": "not found"}})
	}
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(&out)
	cmd.SetArgs(append([]string{"--api-url", url, "--token", "admintok"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestParseSeed(t *testing.T) {
	sf, err := ParseSeed(strings.NewReader(`
products:
  - name: Ao thun
    price: 200000
    stock: 10
    images: [https://cdn.test/a.jpg]
banners:
  - title: Summer sale
    position: 1
`))
	require.NoError(t, err)
	require.Len(t, sf.Products, 1)
	assert.EqualValues(t, 200000, sf.Products[0].Price)
	assert.Equal(t, []string{"https://cdn.test/a.jpg"}, sf.Products[0].Images)
	require.Len(t, sf.Banners, 1)

	_, err = ParseSeed(strings.NewReader("products:\n  - price: 10\n"))
	assert.ErrorContains(t, err, "products[0] has no name")

	_, err = ParseSeed(strings.NewReader("widgets: []\n"))
	assert.Error(t, err)
}

func TestSeedSkipsExisting(t *testing.T) {
	api, url := newFakeAPI(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
products:
  - name: Existing
    price: 100000
  - name: Quan jean
    price: 450000
banners:
  - title: Summer sale
  - title: summer sale
`), 0o600))

	out, err := run(t, url, "seed", "--file", path, "--json")
	require.NoError(t, err)

	var res SeedResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.ProductsCreated)
	assert.Equal(t, 1, res.ProductsSkipped)
	assert.Equal(t, 1, res.BannersCreated)
	assert.Equal(t, 1, res.BannersSkipped)
	assert.Len(t, api.banners, 1)
}

func TestSeedDryRunMakesNoCalls(t *testing.T) {
	api, url := newFakeAPI(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - name: A\n"), 0o600))

	out, err := run(t, url, "seed", "-f", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would create 1 products and 0 banners")
	assert.Empty(t, api.calls)
}

func TestProductsCreateTable(t *testing.T) {
	_, url := newFakeAPI(t)
	out, err := run(t, url, "products", "create", "--name", "Ao so mi", "--price", "350000", "--stock", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Ao so mi")
	assert.Contains(t, out, "350.000d")
}

func TestProductsCreateRequiresName(t *testing.T) {
	api, url := newFakeAPI(t)
	_, err := run(t, url, "products", "create", "--price", "1")
	assert.ErrorContains(t, err, "--name is required")
	assert.Empty(t, api.calls)
}

func TestOrdersStatusValidatesLocally(t *testing.T) {
	api, url := newFakeAPI(t)
	_, err := run(t, url, "orders", "status", uuid.NewString(), "teleported")
	assert.ErrorContains(t, err, "unknown status")
	assert.Empty(t, api.calls)

	out, err := run(t, url, "orders", "status", uuid.NewString(), "Confirmed")
	require.NoError(t, err)
	assert.Contains(t, out, "confirmed")
	assert.Contains(t, out, "230.000d")
}

func TestUsersBlockAndRole(t *testing.T) {
	_, url := newFakeAPI(t)
	out, err := run(t, url, "users", "block", uuid.NewString(), "--json")
	require.NoError(t, err)
	var u types.User
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.True(t, u.IsBlocked)

	out, err = run(t, url, "users", "role", uuid.NewString(), "admin", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.Equal(t, types.RoleAdmin, u.Role)

	_, err = run(t, url, "users", "role", uuid.NewString(), "owner")
	assert.ErrorContains(t, err, "unknown role")
}

func TestStatsTable(t *testing.T) {
	_, url := newFakeAPI(t)
	out, err := run(t, url, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "1.250.000d")
	assert.Contains(t, out, "orders.delivered")
	assert.Less(t, strings.Index(out, "orders.delivered"), strings.Index(out, "orders.pending"))
}

func TestInvalidIDRejected(t *testing.T) {
	_, url := newFakeAPI(t)
	_, err := run(t, url, "products", "delete", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid id")
}

func TestVND(t *testing.T) {
	assert.Equal(t, "0d", vnd(0))
	assert.Equal(t, "999d", vnd(999))
	assert.Equal(t, "30.000d", vnd(30000))
	assert.Equal(t, "1.250.000d", vnd(1250000))
	assert.Equal(t, "-5.000d", vnd(-5000))
}
