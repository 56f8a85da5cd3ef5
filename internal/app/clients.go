package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/clients/redis"
	"github.com/yungbote/shopfront-backend/internal/data/db"
	"github.com/yungbote/shopfront-backend/internal/platform/envutil"
	"github.com/yungbote/shopfront-backend/internal/platform/gcp"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
	"github.com/yungbote/shopfront-backend/internal/platform/mongolog"
	"github.com/yungbote/shopfront-backend/internal/platform/sendgrid"
	"github.com/yungbote/shopfront-backend/internal/platform/vnpay"
	"github.com/yungbote/shopfront-backend/internal/temporalx"
)

// Clients holds every external connection. Only Postgres is mandatory; the
// rest stay nil when unconfigured and the features behind them degrade.
type Clients struct {
	Postgres *db.PostgresService
	DB       *gorm.DB
	Cache    redis.CatalogCache
	Events   mongolog.EventLog
	Mailer   sendgrid.Client
	Bucket   gcp.BucketService
	VNPay    *vnpay.Client
	Temporal temporalsdkclient.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (*Clients, error) {
	log.Info("Wiring clients...")
	c := &Clients{}

	// Postgres
	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	c.Postgres = pg
	c.DB = pg.DB()
	if envutil.Bool("POSTGRES_AUTOMIGRATE", true) {
		if err := pg.AutoMigrateAll(); err != nil {
			c.Close()
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
	}

	// Redis
	if envutil.String("REDIS_ADDR", "", nil) != "" {
		cache, err := redis.NewCatalogCache(log)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init redis catalog cache: %w", err)
		}
		c.Cache = cache
	} else {
		log.Warn("REDIS_ADDR not set; catalog cache disabled")
	}

	// Mongo
	events, err := mongolog.NewFromEnv(ctx, log)
	switch {
	case errors.Is(err, mongolog.ErrNotConfigured):
		log.Warn("MONGO_URI not set; payment event log disabled")
	case err != nil:
		c.Close()
		return nil, fmt.Errorf("init mongo event log: %w", err)
	default:
		c.Events = events
	}

	// SendGrid
	mailer, err := sendgrid.NewFromEnv(log)
	switch {
	case errors.Is(err, sendgrid.ErrNotConfigured):
		log.Warn("SENDGRID_API_KEY not set; order emails disabled")
	case err != nil:
		c.Close()
		return nil, fmt.Errorf("init sendgrid: %w", err)
	default:
		c.Mailer = mailer
	}

	// Gcs
	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init bucket client: %w", err)
	}
	if bucket != nil {
		c.Bucket = bucket
	}

	// VNPay
	gateway, err := vnpay.New(cfg.VNPay)
	switch {
	case errors.Is(err, vnpay.ErrNotConfigured):
		log.Warn("VNPay credentials not set; online payment disabled")
	case err != nil:
		c.Close()
		return nil, fmt.Errorf("init vnpay: %w", err)
	default:
		c.VNPay = gateway
	}

	// Temporal
	tc, err := temporalx.NewClient(log, cfg.Temporal)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init temporal client: %w", err)
	}
	c.Temporal = tc

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
	if c.Events != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = c.Events.Close(ctx)
		cancel()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Postgres != nil {
		_ = c.Postgres.Close()
	}
}
