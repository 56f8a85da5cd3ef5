package adminclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/services"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/", Token: "tok", MaxRetries: 2})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)

	c, err := New(Options{BaseURL: " http://api.test/ "})
	require.NoError(t, err)
	assert.Equal(t, "http://api.test", c.BaseURL())
}

func TestLoginStoresAdminToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		role := types.RoleCustomer
		if body["email"] == "admin@example.com" {
			role = types.RoleAdmin
		}
		writeJSON(w, http.StatusOK, services.TokenPair{AccessToken: "fresh", User: &types.User{Email: body["email"], Role: role}})
	})
	c.SetToken("")

	pair, err := c.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "fresh", pair.AccessToken)
	assert.Equal(t, "fresh", c.Token())

	c.SetToken("")
	_, err = c.Login(context.Background(), "buyer@example.com", "pw")
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
	assert.Empty(t, c.Token())
}

func TestRequestsCarryBearerAndQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/admin/orders", r.URL.Path)
		assert.Equal(t, "pending", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Empty(t, r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, services.Page[*types.Order]{
			Items: []*types.Order{{Code: "SF1"}},
			Page:  2,
			Total: 11,
		})
	})

	page, err := c.ListOrders(context.Background(), ListOptions{Status: "pending", Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "SF1", page.Items[0].Code)
	assert.EqualValues(t, 11, page.Total)
}

func TestMissingTokenFailsFast(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })
	c.SetToken("")

	_, err := c.Stats(context.Background())
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.Zero(t, hits.Load())
}

func TestErrorEnvelopeDecoded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"error": map[string]string{"message": "product name already exists", "code": "product_exists"}})
	})

	_, err := c.CreateProduct(context.Background(), services.ProductInput{Name: "Ao"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "product_exists", herr.Code)
	assert.Contains(t, err.Error(), "product name already exists")
}

func TestGetRetriesOnServerError(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, services.DashboardStats{Users: 3})
	})

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Users)
	assert.EqualValues(t, 2, hits.Load())
}

func TestWritesAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.DeleteProduct(context.Background(), uuid.New())
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	assert.EqualValues(t, 1, hits.Load())
}

func TestUploadProductImageSendsMultipart(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/products/"+id.String()+"/images", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "shirt.jpg", hdr.Filename)
		writeJSON(w, http.StatusOK, map[string]any{"product": types.Product{ID: id, Images: []string{"https://cdn/x.jpg"}}})
	})

	p, err := c.UploadProductImage(context.Background(), id, "/tmp/shirt.jpg", strings.NewReader("jpegbytes"))
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Len(t, p.Images, 1)
}
