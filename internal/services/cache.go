package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/yungbote/shopfront-backend/internal/observability"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

const (
	cacheScopeProducts = "products"
	cacheScopeBanners  = "banners"
)

// readThrough wraps an optional CatalogCache. Cache errors degrade to a miss
// and never surface to callers.
type readThrough struct {
	log   *logger.Logger
	cache CatalogCache
}

func (rt readThrough) get(ctx context.Context, kind, key string, dst any, load func() error) error {
	if rt.cache == nil {
		return load()
	}
	hit, err := rt.cache.Get(ctx, key, dst)
	if err != nil {
		rt.log.Warn("Cache read failed", "key", key, "error", err)
	}
	observability.Current().CacheLookup(kind, hit)
	if hit {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	if err := rt.cache.Set(ctx, key, dst); err != nil {
		rt.log.Warn("Cache write failed", "key", key, "error", err)
	}
	return nil
}

// scopedKey embeds the scope generation so a Bump orphans every list key.
func (rt readThrough) scopedKey(ctx context.Context, scope string, parts any) string {
	var gen int64
	if rt.cache != nil {
		g, err := rt.cache.Generation(ctx, scope)
		if err != nil {
			rt.log.Warn("Cache generation read failed", "scope", scope, "error", err)
		}
		gen = g
	}
	raw, _ := json.Marshal(parts)
	sum := sha1.Sum(raw)
	return fmt.Sprintf("%s:list:g%d:%s", scope, gen, hex.EncodeToString(sum[:8]))
}

func (rt readThrough) invalidate(ctx context.Context, scope string, keys ...string) {
	if rt.cache == nil {
		return
	}
	if len(keys) > 0 {
		if err := rt.cache.Delete(ctx, keys...); err != nil {
			rt.log.Warn("Cache delete failed", "keys", keys, "error", err)
		}
	}
	if scope != "" {
		if err := rt.cache.Bump(ctx, scope); err != nil {
			rt.log.Warn("Cache generation bump failed", "scope", scope, "error", err)
		}
	}
}

func productItemKey(idOrSlug string) string { return "products:item:" + idOrSlug }
