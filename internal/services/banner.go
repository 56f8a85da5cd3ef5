package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/gcp"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type BannerInput struct {
	Title    string     `json:"title"`
	ImageURL string     `json:"image_url"`
	LinkURL  string     `json:"link_url"`
	Position int        `json:"position"`
	IsActive *bool      `json:"is_active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

type BannerPatch struct {
	Title    *string    `json:"title"`
	ImageURL *string    `json:"image_url"`
	LinkURL  *string    `json:"link_url"`
	Position *int       `json:"position"`
	IsActive *bool      `json:"is_active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	// ClearSchedule drops both bounds; StartsAt/EndsAt win when also set.
	ClearSchedule bool `json:"clear_schedule"`
}

type BannerService interface {
	ListVisible(ctx context.Context) ([]*types.Banner, error)
	AdminList(ctx context.Context) ([]*types.Banner, error)
	Create(ctx context.Context, in BannerInput) (*types.Banner, error)
	Update(ctx context.Context, id uuid.UUID, in BannerPatch) (*types.Banner, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetImage(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*types.Banner, error)
}

type bannerService struct {
	log        *logger.Logger
	bannerRepo repos.BannerRepo
	media      MediaService
	cache      readThrough
	now        func() time.Time
}

func NewBannerService(log *logger.Logger, bannerRepo repos.BannerRepo, media MediaService, cache CatalogCache) BannerService {
	serviceLog := log.With("service", "BannerService")
	return &bannerService{
		log:        serviceLog,
		bannerRepo: bannerRepo,
		media:      media,
		cache:      readThrough{log: serviceLog, cache: cache},
		now:        time.Now,
	}
}

// ListVisible is cached per minute so scheduled banners appear without an
// explicit invalidation.
func (bs *bannerService) ListVisible(ctx context.Context) ([]*types.Banner, error) {
	now := bs.now().UTC()
	var out []*types.Banner
	key := bs.cache.scopedKey(ctx, cacheScopeBanners, now.Truncate(time.Minute).Unix())
	err := bs.cache.get(ctx, "banners", key, &out, func() error {
		var lerr error
		out, lerr = bs.bannerRepo.ListVisible(dbctx.New(ctx), now)
		return lerr
	})
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	if out == nil {
		out = []*types.Banner{}
	}
	return out, nil
}

func (bs *bannerService) AdminList(ctx context.Context) ([]*types.Banner, error) {
	out, err := bs.bannerRepo.ListAll(dbctx.New(ctx))
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	return out, nil
}

func validateSchedule(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return invalidArg("invalid_schedule", "ends_at must be after starts_at")
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (bs *bannerService) Create(ctx context.Context, in BannerInput) (*types.Banner, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalidArg("invalid_title", "title is required")
	}
	if err := validateSchedule(in.StartsAt, in.EndsAt); err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	rows, err := bs.bannerRepo.Create(dbctx.New(ctx), []*types.Banner{{
		Title:    title,
		ImageURL: strings.TrimSpace(in.ImageURL),
		LinkURL:  strings.TrimSpace(in.LinkURL),
		Position: in.Position,
		IsActive: active,
		StartsAt: utcPtr(in.StartsAt),
		EndsAt:   utcPtr(in.EndsAt),
	}})
	if err != nil {
		return nil, fmt.Errorf("create banner: %w", err)
	}
	bs.cache.invalidate(ctx, cacheScopeBanners)
	return rows[0], nil
}

func (bs *bannerService) load(dbc dbctx.Context, id uuid.UUID) (*types.Banner, error) {
	b, err := bs.bannerRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load banner: %w", err)
	}
	if b == nil {
		return nil, notFound("banner_not_found", "banner not found")
	}
	return b, nil
}

func (bs *bannerService) Update(ctx context.Context, id uuid.UUID, in BannerPatch) (*types.Banner, error) {
	dbc := dbctx.New(ctx)
	b, err := bs.load(dbc, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, invalidArg("invalid_title", "title is required")
		}
		updates["title"] = t
	}
	if in.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*in.ImageURL)
	}
	if in.LinkURL != nil {
		updates["link_url"] = strings.TrimSpace(*in.LinkURL)
	}
	if in.Position != nil {
		updates["position"] = *in.Position
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	start, end := b.StartsAt, b.EndsAt
	if in.ClearSchedule {
		start, end = nil, nil
		updates["starts_at"], updates["ends_at"] = nil, nil
	}
	if in.StartsAt != nil {
		start = utcPtr(in.StartsAt)
		updates["starts_at"] = *start
	}
	if in.EndsAt != nil {
		end = utcPtr(in.EndsAt)
		updates["ends_at"] = *end
	}
	if err := validateSchedule(start, end); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := bs.bannerRepo.UpdateFields(dbc, id, updates); err != nil {
			return nil, fmt.Errorf("update banner: %w", err)
		}
		bs.cache.invalidate(ctx, cacheScopeBanners)
	}
	return bs.load(dbc, id)
}

func (bs *bannerService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := bs.bannerRepo.SoftDelete(dbctx.New(ctx), id)
	if err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}
	if !ok {
		return notFound("banner_not_found", "banner not found")
	}
	bs.cache.invalidate(ctx, cacheScopeBanners)
	return nil
}

func (bs *bannerService) SetImage(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*types.Banner, error) {
	dbc := dbctx.New(ctx)
	if _, err := bs.load(dbc, id); err != nil {
		return nil, err
	}
	url, err := bs.media.Upload(ctx, gcp.BucketCategoryBanner, filename, r)
	if err != nil {
		return nil, err
	}
	if err := bs.bannerRepo.UpdateFields(dbc, id, map[string]any{"image_url": url}); err != nil {
		return nil, fmt.Errorf("save banner image: %w", err)
	}
	bs.cache.invalidate(ctx, cacheScopeBanners)
	return bs.load(dbc, id)
}
