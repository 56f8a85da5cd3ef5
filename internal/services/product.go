package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	"github.com/yungbote/shopfront-backend/internal/data/repos/catalog"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	domaincatalog "github.com/yungbote/shopfront-backend/internal/domain/catalog"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/gcp"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type ProductQuery struct {
	Query    string `json:"q,omitempty"`
	Category string `json:"category,omitempty"`
	Brand    string `json:"brand,omitempty"`
	MinPrice int64  `json:"min_price,omitempty"`
	MaxPrice int64  `json:"max_price,omitempty"`
	Sort     string `json:"sort,omitempty"`
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
}

type ProductInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Brand           string   `json:"brand"`
	Price           int64    `json:"price"`
	DiscountPercent int      `json:"discount_percent"`
	Stock           int      `json:"stock"`
	Images          []string `json:"images"`
	IsActive        *bool    `json:"is_active"`
}

type ProductPatch struct {
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	Category        *string   `json:"category"`
	Brand           *string   `json:"brand"`
	Price           *int64    `json:"price"`
	DiscountPercent *int      `json:"discount_percent"`
	Stock           *int      `json:"stock"`
	Images          *[]string `json:"images"`
	Rating          *float64  `json:"rating"`
	NumReviews      *int      `json:"num_reviews"`
	IsActive        *bool     `json:"is_active"`
}

type ProductService interface {
	List(ctx context.Context, q ProductQuery) (*Page[*types.Product], error)
	Get(ctx context.Context, idOrSlug string) (*types.Product, error)
	Categories(ctx context.Context) ([]string, error)

	AdminList(ctx context.Context, q ProductQuery) (*Page[*types.Product], error)
	AdminGet(ctx context.Context, id uuid.UUID) (*types.Product, error)
	Create(ctx context.Context, in ProductInput) (*types.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductPatch) (*types.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddImage(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*types.Product, error)
}

type productService struct {
	db          *gorm.DB
	log         *logger.Logger
	productRepo repos.ProductRepo
	media       MediaService
	cache       readThrough
}

func NewProductService(db *gorm.DB, log *logger.Logger, productRepo repos.ProductRepo, media MediaService, cache CatalogCache) ProductService {
	serviceLog := log.With("service", "ProductService")
	return &productService{
		db:          db,
		log:         serviceLog,
		productRepo: productRepo,
		media:       media,
		cache:       readThrough{log: serviceLog, cache: cache},
	}
}

func (ps *productService) filter(q ProductQuery, includeInactive bool) (repos.ProductFilter, error) {
	q.Sort = strings.TrimSpace(q.Sort)
	if !catalog.IsValidSort(q.Sort) {
		return repos.ProductFilter{}, invalidArg("invalid_sort", "unknown sort %q", q.Sort)
	}
	if q.MinPrice < 0 || q.MaxPrice < 0 {
		return repos.ProductFilter{}, invalidArg("invalid_price_range", "prices cannot be negative")
	}
	if q.MaxPrice > 0 && q.MinPrice > q.MaxPrice {
		return repos.ProductFilter{}, invalidArg("invalid_price_range", "min_price is greater than max_price")
	}
	page, limit := normalizePage(q.Page, q.Limit)
	return repos.ProductFilter{
		Query:           strings.TrimSpace(q.Query),
		Category:        strings.TrimSpace(q.Category),
		Brand:           strings.TrimSpace(q.Brand),
		MinPrice:        q.MinPrice,
		MaxPrice:        q.MaxPrice,
		Sort:            q.Sort,
		Page:            page,
		Limit:           limit,
		IncludeInactive: includeInactive,
	}, nil
}

func (ps *productService) list(ctx context.Context, f repos.ProductFilter) (*Page[*types.Product], error) {
	items, total, err := ps.productRepo.List(dbctx.New(ctx), f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return newPage(items, f.Page, f.Limit, total), nil
}

func (ps *productService) List(ctx context.Context, q ProductQuery) (*Page[*types.Product], error) {
	f, err := ps.filter(q, false)
	if err != nil {
		return nil, err
	}
	var out *Page[*types.Product]
	key := ps.cache.scopedKey(ctx, cacheScopeProducts, f)
	err = ps.cache.get(ctx, "product_list", key, &out, func() error {
		var lerr error
		out, lerr = ps.list(ctx, f)
		return lerr
	})
	return out, err
}

func (ps *productService) AdminList(ctx context.Context, q ProductQuery) (*Page[*types.Product], error) {
	f, err := ps.filter(q, true)
	if err != nil {
		return nil, err
	}
	return ps.list(ctx, f)
}

// Get resolves a uuid or a slug. Inactive products are hidden.
func (ps *productService) Get(ctx context.Context, idOrSlug string) (*types.Product, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, notFound("product_not_found", "product not found")
	}
	var p *types.Product
	err := ps.cache.get(ctx, "product", productItemKey(idOrSlug), &p, func() error {
		dbc := dbctx.New(ctx)
		var lerr error
		if id, perr := uuid.Parse(idOrSlug); perr == nil {
			p, lerr = ps.productRepo.GetByID(dbc, id)
		} else {
			p, lerr = ps.productRepo.GetBySlug(dbc, strings.ToLower(idOrSlug))
		}
		if lerr != nil {
			return fmt.Errorf("load product: %w", lerr)
		}
		if p == nil || !p.IsActive {
			return notFound("product_not_found", "product not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (ps *productService) Categories(ctx context.Context) ([]string, error) {
	var out []string
	key := ps.cache.scopedKey(ctx, cacheScopeProducts, "categories")
	err := ps.cache.get(ctx, "categories", key, &out, func() error {
		var lerr error
		out, lerr = ps.productRepo.Categories(dbctx.New(ctx))
		return lerr
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (ps *productService) AdminGet(ctx context.Context, id uuid.UUID) (*types.Product, error) {
	p, err := ps.productRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return nil, notFound("product_not_found", "product not found")
	}
	return p, nil
}

func validateProductFields(name string, price int64, discount, stock int) error {
	if strings.TrimSpace(name) == "" {
		return invalidArg("invalid_name", "name is required")
	}
	if price <= 0 {
		return invalidArg("invalid_price", "price must be positive")
	}
	if discount < 0 || discount > domaincatalog.MaxDiscountPercent {
		return invalidArg("invalid_discount", "discount_percent must be between 0 and %d", domaincatalog.MaxDiscountPercent)
	}
	if stock < 0 {
		return invalidArg("invalid_stock", "stock cannot be negative")
	}
	return nil
}

func cleanImages(in []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// uniqueSlug derives a slug from name, suffixing it when another product
// (including a deleted one) already holds it.
func (ps *productService) uniqueSlug(dbc dbctx.Context, name string, self uuid.UUID) (string, error) {
	base := domaincatalog.Slugify(name)
	if base == "" {
		base = "product"
	}
	slug := base
	for i := 0; i < 5; i++ {
		taken, err := ps.productRepo.SlugExists(dbc, slug, self)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	return "", conflict("product_exists", "could not allocate a slug for %q", name)
}

func (ps *productService) Create(ctx context.Context, in ProductInput) (*types.Product, error) {
	name := strings.TrimSpace(in.Name)
	if err := validateProductFields(name, in.Price, in.DiscountPercent, in.Stock); err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	var created *types.Product
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := ps.productRepo.NameExists(dbc, name, uuid.Nil)
		if err != nil {
			return fmt.Errorf("check name: %w", err)
		}
		if exists {
			return conflict("product_exists", "a product named %q already exists", name)
		}
		slug, err := ps.uniqueSlug(dbc, name, uuid.Nil)
		if err != nil {
			return err
		}
		rows, err := ps.productRepo.Create(dbc, []*types.Product{{
			Name:            name,
			Slug:            slug,
			Description:     strings.TrimSpace(in.Description),
			Category:        strings.TrimSpace(in.Category),
			Brand:           strings.TrimSpace(in.Brand),
			Price:           in.Price,
			DiscountPercent: in.DiscountPercent,
			Stock:           in.Stock,
			Images:          cleanImages(in.Images),
			IsActive:        active,
		}})
		if err != nil {
			return storeConflict(err, "create product", "product_exists", fmt.Sprintf("a product named %q already exists", name))
		}
		created = rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	ps.cache.invalidate(ctx, cacheScopeProducts)
	ps.log.Info("Product created", "product_id", created.ID, "slug", created.Slug)
	return created, nil
}

func (ps *productService) Update(ctx context.Context, id uuid.UUID, in ProductPatch) (*types.Product, error) {
	var before, after *types.Product
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := ps.productRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}
		if p == nil {
			return notFound("product_not_found", "product not found")
		}
		before = p
		next := *p
		updates := map[string]any{}

		if in.Name != nil && strings.TrimSpace(*in.Name) != p.Name {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return invalidArg("invalid_name", "name is required")
			}
			exists, err := ps.productRepo.NameExists(dbc, name, id)
			if err != nil {
				return fmt.Errorf("check name: %w", err)
			}
			if exists {
				return conflict("product_exists", "a product named %q already exists", name)
			}
			slug, err := ps.uniqueSlug(dbc, name, id)
			if err != nil {
				return err
			}
			next.Name, next.Slug = name, slug
			updates["name"], updates["slug"] = name, slug
		}
		if in.Description != nil {
			updates["description"] = strings.TrimSpace(*in.Description)
		}
		if in.Category != nil {
			updates["category"] = strings.TrimSpace(*in.Category)
		}
		if in.Brand != nil {
			updates["brand"] = strings.TrimSpace(*in.Brand)
		}
		if in.Price != nil {
			next.Price = *in.Price
			updates["price"] = *in.Price
		}
		if in.DiscountPercent != nil {
			next.DiscountPercent = *in.DiscountPercent
			updates["discount_percent"] = *in.DiscountPercent
		}
		if in.Stock != nil {
			next.Stock = *in.Stock
			updates["stock"] = *in.Stock
		}
		if err := validateProductFields(next.Name, next.Price, next.DiscountPercent, next.Stock); err != nil {
			return err
		}
		if in.Images != nil {
			updates["images"] = cleanImages(*in.Images)
		}
		if in.Rating != nil {
			if *in.Rating < 0 || *in.Rating > 5 {
				return invalidArg("invalid_rating", "rating must be between 0 and 5")
			}
			updates["rating"] = *in.Rating
		}
		if in.NumReviews != nil {
			if *in.NumReviews < 0 {
				return invalidArg("invalid_num_reviews", "num_reviews cannot be negative")
			}
			updates["num_reviews"] = *in.NumReviews
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}
		if len(updates) > 0 {
			if err := ps.productRepo.UpdateFields(dbc, id, updates); err != nil {
				return storeConflict(err, "update product", "product_exists", fmt.Sprintf("a product named %q already exists", next.Name))
			}
		}
		after, err = ps.productRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	ps.invalidateProduct(ctx, before, after)
	return after, nil
}

func (ps *productService) Delete(ctx context.Context, id uuid.UUID) error {
	dbc := dbctx.New(ctx)
	p, err := ps.productRepo.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return notFound("product_not_found", "product not found")
	}
	ok, err := ps.productRepo.SoftDelete(dbc, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if !ok {
		return notFound("product_not_found", "product not found")
	}
	ps.invalidateProduct(ctx, p)
	ps.log.Info("Product deleted", "product_id", id)
	return nil
}

func (ps *productService) AddImage(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*types.Product, error) {
	if _, err := ps.AdminGet(ctx, id); err != nil {
		return nil, err
	}
	url, err := ps.media.Upload(ctx, gcp.BucketCategoryProduct, filename, r)
	if err != nil {
		return nil, err
	}
	var before, after *types.Product
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := ps.productRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}
		if p == nil {
			return notFound("product_not_found", "product not found")
		}
		before = p
		images := append(datatypes.JSONSlice[string]{}, p.Images...)
		images = append(images, url)
		if err := ps.productRepo.UpdateFields(dbc, id, map[string]any{"images": images}); err != nil {
			return fmt.Errorf("save image: %w", err)
		}
		after, err = ps.productRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	ps.invalidateProduct(ctx, before, after)
	return after, nil
}

func (ps *productService) invalidateProduct(ctx context.Context, versions ...*types.Product) {
	var keys []string
	for _, p := range versions {
		if p == nil {
			continue
		}
		keys = append(keys, productItemKey(p.ID.String()), productItemKey(p.Slug))
	}
	ps.cache.invalidate(ctx, cacheScopeProducts, keys...)
}
