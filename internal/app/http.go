package app

import (
	"context"

	shophttp "github.com/yungbote/shopfront-backend/internal/http"
	httpH "github.com/yungbote/shopfront-backend/internal/http/handlers"
	httpMW "github.com/yungbote/shopfront-backend/internal/http/middleware"
	"github.com/yungbote/shopfront-backend/internal/observability"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health  *httpH.HealthHandler
	Auth    *httpH.AuthHandler
	User    *httpH.UserHandler
	Product *httpH.ProductHandler
	Banner  *httpH.BannerHandler
	Cart    *httpH.CartHandler
	Order   *httpH.OrderHandler
	Payment *httpH.PaymentHandler
	Stats   *httpH.StatsHandler
}

func wireHandlers(log *logger.Logger, services Services, clients *Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(healthChecks(clients)),
		Auth:    httpH.NewAuthHandler(services.Auth),
		User:    httpH.NewUserHandler(services.User),
		Product: httpH.NewProductHandler(services.Product),
		Banner:  httpH.NewBannerHandler(services.Banner),
		Cart:    httpH.NewCartHandler(services.Cart),
		Order:   httpH.NewOrderHandler(services.Order),
		Payment: httpH.NewPaymentHandler(services.Payment),
		Stats:   httpH.NewStatsHandler(services.Stats),
	}
}

// healthChecks covers the dependencies a request cannot be served without.
// Optional clients are left out so a cache outage does not fail the health check.
func healthChecks(clients *Clients) map[string]httpH.Pinger {
	checks := map[string]httpH.Pinger{}
	if clients == nil || clients.DB == nil {
		return checks
	}
	gdb := clients.DB
	checks["postgres"] = func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return checks
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *shophttp.Server {
	return shophttp.NewServer(shophttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		AuthMiddleware: middleware.Auth,
		AuthHandler:    handlers.Auth,
		UserHandler:    handlers.User,
		ProductHandler: handlers.Product,
		BannerHandler:  handlers.Banner,
		CartHandler:    handlers.Cart,
		OrderHandler:   handlers.Order,
		PaymentHandler: handlers.Payment,
		StatsHandler:   handlers.Stats,
		HealthHandler:  handlers.Health,
	})
}
