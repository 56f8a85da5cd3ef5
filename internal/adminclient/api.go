package adminclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/services"
)

type ListOptions struct {
	Query string
	Page  int
	Limit int

	// Role filters users; Status and PaymentStatus filter orders; Category
	// filters products.
	Role          string
	Status        string
	PaymentStatus string
	Category      string
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("q", o.Query)
	set("role", o.Role)
	set("status", o.Status)
	set("payment_status", o.PaymentStatus)
	set("category", o.Category)
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	return v
}

// Login exchanges credentials for a token pair and keeps the access token on
// the client. It fails when the account is not an admin.
func (c *Client) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	var pair services.TokenPair
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", nil, body, &pair); err != nil {
		return nil, err
	}
	if pair.User == nil || pair.User.Role != types.RoleAdmin {
		return nil, &HTTPError{StatusCode: http.StatusForbidden, Code: "forbidden", Message: "account is not an admin"}
	}
	c.SetToken(pair.AccessToken)
	return &pair, nil
}

// Products

func (c *Client) ListProducts(ctx context.Context, opts ListOptions) (*services.Page[*types.Product], error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out services.Page[*types.Product]
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/products", opts.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type productEnvelope struct {
	Product *types.Product `json:"product"`
}

func (c *Client) CreateProduct(ctx context.Context, in services.ProductInput) (*types.Product, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out productEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/products", nil, in, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id uuid.UUID, patch services.ProductPatch) (*types.Product, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out productEnvelope
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/products/"+id.String(), nil, patch, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/admin/products/"+id.String(), nil, nil, nil)
}

func (c *Client) UploadProductImage(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*types.Product, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out productEnvelope
	if err := c.doMultipart(ctx, "/api/admin/products/"+id.String()+"/images", filename, r, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

// Banners

func (c *Client) ListBanners(ctx context.Context) ([]*types.Banner, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out struct {
		Items []*types.Banner `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/banners", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) CreateBanner(ctx context.Context, in services.BannerInput) (*types.Banner, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out struct {
		Banner *types.Banner `json:"banner"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/banners", nil, in, &out); err != nil {
		return nil, err
	}
	return out.Banner, nil
}

func (c *Client) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/admin/banners/"+id.String(), nil, nil, nil)
}

// Orders

type orderEnvelope struct {
	Order *types.Order `json:"order"`
}

func (c *Client) ListOrders(ctx context.Context, opts ListOptions) (*services.Page[*types.Order], error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out services.Page[*types.Order]
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/orders", opts.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out orderEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/orders/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status types.OrderStatus, reason string) (*types.Order, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	body := map[string]string{"status": string(status), "reason": reason}
	var out orderEnvelope
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/orders/"+id.String()+"/status", nil, body, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

// Users

func (c *Client) ListUsers(ctx context.Context, opts ListOptions) (*services.Page[*types.User], error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out services.Page[*types.User]
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/users", opts.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id uuid.UUID, in services.AdminUserUpdate) (*types.User, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out struct {
		User *types.User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/users/"+id.String(), nil, in, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) Stats(ctx context.Context) (*services.DashboardStats, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	var out services.DashboardStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
