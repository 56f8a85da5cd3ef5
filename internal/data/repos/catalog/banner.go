package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type BannerRepo interface {
	Create(dbc dbctx.Context, banners []*types.Banner) ([]*types.Banner, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Banner, error)
	ListAll(dbc dbctx.Context) ([]*types.Banner, error)
	ListVisible(dbc dbctx.Context, at time.Time) ([]*types.Banner, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type bannerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBannerRepo(db *gorm.DB, baseLog *logger.Logger) BannerRepo {
	return &bannerRepo{db: db, log: baseLog.With("repo", "BannerRepo")}
}

func (r *bannerRepo) Create(dbc dbctx.Context, banners []*types.Banner) ([]*types.Banner, error) {
	if len(banners) == 0 {
		return []*types.Banner{}, nil
	}
	if err := dbc.DB(r.db).Create(&banners).Error; err != nil {
		return nil, err
	}
	return banners, nil
}

func (r *bannerRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Banner, error) {
	var b types.Banner
	err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bannerRepo) ListAll(dbc dbctx.Context) ([]*types.Banner, error) {
	var out []*types.Banner
	err := dbc.DB(r.db).Order("position ASC").Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *bannerRepo) ListVisible(dbc dbctx.Context, at time.Time) ([]*types.Banner, error) {
	at = at.UTC()
	var out []*types.Banner
	err := dbc.DB(r.db).
		Where("is_active = ?", true).
		Where("starts_at IS NULL OR starts_at <= ?", at).
		Where("ends_at IS NULL OR ends_at > ?", at).
		Order("position ASC").Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *bannerRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Banner{}).Where("id = ?", id).Updates(updates).Error
}

func (r *bannerRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Banner{})
	return res.RowsAffected > 0, res.Error
}
