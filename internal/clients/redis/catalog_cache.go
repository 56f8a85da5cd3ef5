package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/shopfront-backend/internal/platform/envutil"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

// CatalogCache is a JSON read-through cache for catalog reads. List keys embed
// a generation number so a single Bump invalidates every cached page.
type CatalogCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
	Generation(ctx context.Context, scope string) (int64, error)
	Bump(ctx context.Context, scope string) error
	Ping(ctx context.Context) error
	Close() error
}

type catalogCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewCatalogCache(log *logger.Logger) (CatalogCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := envutil.String("REDIS_ADDR", "", nil)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", "", nil),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := envutil.Seconds("REDIS_CATALOG_TTL_SECONDS", 300*time.Second)
	return NewCatalogCacheWithClient(log, rdb, envutil.String("REDIS_KEY_PREFIX", "shopfront", nil), ttl), nil
}

func NewCatalogCacheWithClient(log *logger.Logger, rdb *goredis.Client, prefix string, ttl time.Duration) CatalogCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &catalogCache{
		log:    log.With("client", "RedisCatalogCache"),
		rdb:    rdb,
		prefix: strings.TrimSuffix(prefix, ":") + ":catalog:",
		ttl:    ttl,
	}
}

func (c *catalogCache) key(k string) string { return c.prefix + k }

func (c *catalogCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.log.Warn("Dropping undecodable cache entry", "key", key, "error", err)
		_ = c.rdb.Del(ctx, c.key(key)).Err()
		return false, nil
	}
	return true, nil
}

func (c *catalogCache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(key), raw, c.ttl).Err()
}

func (c *catalogCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}
	return c.rdb.Del(ctx, full...).Err()
}

func (c *catalogCache) Generation(ctx context.Context, scope string) (int64, error) {
	v, err := c.rdb.Get(ctx, c.key("gen:"+scope)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (c *catalogCache) Bump(ctx context.Context, scope string) error {
	return c.rdb.Incr(ctx, c.key("gen:"+scope)).Err()
}

func (c *catalogCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *catalogCache) Close() error {
	return c.rdb.Close()
}
