package app

import (
	"time"

	"github.com/yungbote/shopfront-backend/internal/platform/envutil"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
	"github.com/yungbote/shopfront-backend/internal/platform/vnpay"
	"github.com/yungbote/shopfront-backend/internal/services"
	"github.com/yungbote/shopfront-backend/internal/temporalx"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	AdminBootstrapEmail    string
	AdminBootstrapPassword string

	Order         services.OrderConfig
	SweepInterval time.Duration

	VNPay vnpay.Config

	ObjectStorageMode   string
	StorageEmulatorHost string
	MediaBucketName     string
	MediaCDNDomain      string

	AsyncEmail bool

	CORSOrigins []string
	MetricsAddr string
	ServiceName string

	Temporal temporalx.Config
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:        envutil.String("PORT", "8080", log),
		Environment: envutil.String("APP_ENV", "development", log),
		Version:     envutil.String("APP_VERSION", "dev", log),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: envutil.Seconds("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		AdminBootstrapEmail:    envutil.String("ADMIN_BOOTSTRAP_EMAIL", "", log),
		AdminBootstrapPassword: envutil.String("ADMIN_BOOTSTRAP_PASSWORD", "", nil),

		Order: services.OrderConfig{
			ShippingFee:           envutil.Int64("SHIPPING_FEE", 30000),
			FreeShippingThreshold: envutil.Int64("FREE_SHIPPING_THRESHOLD", 500000),
			PaymentTimeout:        envutil.Minutes("ORDER_PAYMENT_TIMEOUT_MINUTES", 30*time.Minute),
		},
		SweepInterval: envutil.Seconds("ORDER_SWEEP_INTERVAL_SECONDS", time.Minute),

		VNPay: vnpay.ConfigFromEnv(log),

		ObjectStorageMode:   envutil.String("OBJECT_STORAGE_MODE", "", log),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", "", log),
		MediaBucketName:     envutil.String("MEDIA_GCS_BUCKET_NAME", "", log),
		MediaCDNDomain:      envutil.String("MEDIA_CDN_DOMAIN", "", log),

		AsyncEmail: envutil.Bool("EMAIL_ASYNC", true),

		CORSOrigins: envutil.List("CORS_ALLOW_ORIGINS", nil),
		MetricsAddr: envutil.String("METRICS_ADDR", ":9090", log),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "shopfront-api", log),

		Temporal: temporalx.LoadConfig(),
	}
}
