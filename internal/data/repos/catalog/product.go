package catalog

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/data/db"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

const (
	SortNewest      = "newest"
	SortPriceAsc    = "price_asc"
	SortPriceDesc   = "price_desc"
	SortBestSelling = "best_selling"
	SortRating      = "rating"
)

// finalPriceExpr mirrors Product.FinalPrice in SQL (integer division on both
// postgres and sqlite).
const finalPriceExpr = "(price * (100 - discount_percent) / 100)"

func IsValidSort(s string) bool {
	switch s {
	case "", SortNewest, SortPriceAsc, SortPriceDesc, SortBestSelling, SortRating:
		return true
	}
	return false
}

type ProductFilter struct {
	Query           string
	Category        string
	Brand           string
	MinPrice        int64
	MaxPrice        int64
	Sort            string
	Page            int
	Limit           int
	IncludeInactive bool
}

type ProductRepo interface {
	Create(dbc dbctx.Context, products []*types.Product) ([]*types.Product, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Product, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error)
	NameExists(dbc dbctx.Context, name string, exclude uuid.UUID) (bool, error)
	SlugExists(dbc dbctx.Context, slug string, exclude uuid.UUID) (bool, error)
	List(dbc dbctx.Context, f ProductFilter) ([]*types.Product, int64, error)
	Categories(dbc dbctx.Context) ([]string, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	DecrementStock(dbc dbctx.Context, id uuid.UUID, qty int) (bool, error)
	RestoreStock(dbc dbctx.Context, id uuid.UUID, qty int) error
	Count(dbc dbctx.Context) (int64, error)
	LowStock(dbc dbctx.Context, threshold, limit int) ([]*types.Product, error)
	BestSellers(dbc dbctx.Context, limit int) ([]*types.Product, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) Create(dbc dbctx.Context, products []*types.Product) ([]*types.Product, error) {
	if len(products) == 0 {
		return []*types.Product{}, nil
	}
	if err := dbc.DB(r.db).Create(&products).Error; err != nil {
		return nil, db.MapError(err)
	}
	return products, nil
}

func (r *productRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.Product
	err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var p types.Product
	err := dbc.DB(r.db).Where("slug = ?", slug).Limit(1).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error) {
	var out []*types.Product
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) NameExists(dbc dbctx.Context, name string, exclude uuid.UUID) (bool, error) {
	q := dbc.DB(r.db).Unscoped().Model(&types.Product{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// SlugExists includes soft-deleted rows since the unique index does.
func (r *productRepo) SlugExists(dbc dbctx.Context, slug string, exclude uuid.UUID) (bool, error) {
	q := dbc.DB(r.db).Unscoped().Model(&types.Product{}).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *productRepo) List(dbc dbctx.Context, f ProductFilter) ([]*types.Product, int64, error) {
	q := dbc.DB(r.db).Model(&types.Product{})
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Query)); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+s+"%")
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Brand != "" {
		q = q.Where("brand = ?", f.Brand)
	}
	if f.MinPrice > 0 {
		q = q.Where(finalPriceExpr+" >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q = q.Where(finalPriceExpr+" <= ?", f.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch f.Sort {
	case SortPriceAsc:
		q = q.Order(finalPriceExpr + " ASC")
	case SortPriceDesc:
		q = q.Order(finalPriceExpr + " DESC")
	case SortBestSelling:
		q = q.Order("sold DESC")
	case SortRating:
		q = q.Order("rating DESC").Order("num_reviews DESC")
	default:
		q = q.Order("created_at DESC")
	}

	var out []*types.Product
	if err := q.Order("id").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *productRepo) Categories(dbc dbctx.Context) ([]string, error) {
	var out []string
	err := dbc.DB(r.db).Model(&types.Product{}).
		Where("is_active = ? AND category <> ''", true).
		Distinct("category").
		Order("category").
		Pluck("category", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return db.MapError(dbc.DB(r.db).Model(&types.Product{}).Where("id = ?", id).Updates(updates).Error)
}

func (r *productRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Product{})
	return res.RowsAffected > 0, res.Error
}

// DecrementStock takes qty units atomically; false means not enough stock
// (or the product is gone / inactive).
func (r *productRepo) DecrementStock(dbc dbctx.Context, id uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, nil
	}
	res := dbc.DB(r.db).Model(&types.Product{}).
		Where("id = ? AND is_active = ? AND stock >= ?", id, true, qty).
		Updates(map[string]any{
			"stock": gorm.Expr("stock - ?", qty),
			"sold":  gorm.Expr("sold + ?", qty),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestoreStock gives qty units back, including to soft-deleted products.
func (r *productRepo) RestoreStock(dbc dbctx.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return dbc.DB(r.db).Unscoped().Model(&types.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock": gorm.Expr("stock + ?", qty),
			"sold":  gorm.Expr("CASE WHEN sold >= ? THEN sold - ? ELSE 0 END", qty, qty),
		}).Error
}

func (r *productRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Product{}).Count(&n).Error
	return n, err
}

func (r *productRepo) LowStock(dbc dbctx.Context, threshold, limit int) ([]*types.Product, error) {
	var out []*types.Product
	err := dbc.DB(r.db).
		Where("is_active = ? AND stock <= ?", true, threshold).
		Order("stock ASC").Order("name").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *productRepo) BestSellers(dbc dbctx.Context, limit int) ([]*types.Product, error) {
	var out []*types.Product
	err := dbc.DB(r.db).
		Where("sold > 0").
		Order("sold DESC").Order("name").
		Limit(limit).
		Find(&out).Error
	return out, err
}
