package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

func testCache(t *testing.T) CatalogCache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	c := NewCatalogCacheWithClient(logger.Nop(), rdb, "test-"+uuid.NewString(), time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCatalogCacheGetSetDelete(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	type item struct {
		Name  string `json:"name"`
		Price int64  `json:"price"`
	}

	var got item
	hit, err := c.Get(ctx, "product:1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "product:1", item{Name: "lamp", Price: 100}))
	hit, err = c.Get(ctx, "product:1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, item{Name: "lamp", Price: 100}, got)

	require.NoError(t, c.Delete(ctx, "product:1"))
	hit, err = c.Get(ctx, "product:1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCatalogCacheGeneration(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	g, err := c.Generation(ctx, "products")
	require.NoError(t, err)
	assert.EqualValues(t, 0, g)

	require.NoError(t, c.Bump(ctx, "products"))
	require.NoError(t, c.Bump(ctx, "products"))
	g, err = c.Generation(ctx, "products")
	require.NoError(t, err)
	assert.EqualValues(t, 2, g)
}
