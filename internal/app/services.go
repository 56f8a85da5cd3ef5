package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/jobs/worker"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
	"github.com/yungbote/shopfront-backend/internal/services"
	"github.com/yungbote/shopfront-backend/internal/temporalx/orderexpiry"
	"github.com/yungbote/shopfront-backend/internal/temporalx/temporalworker"
)

type Services struct {
	Auth    services.AuthService
	User    services.UserService
	Media   services.MediaService
	Product services.ProductService
	Banner  services.BannerService
	Cart    services.CartService
	Order   services.OrderService
	Payment services.PaymentService
	Stats   services.StatsService

	Worker         *worker.Worker
	TemporalWorker *temporalworker.Runner
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients *Clients) (Services, error) {
	log.Info("Wiring services...")

	var gateway services.PaymentGateway
	if clients.VNPay != nil {
		gateway = clients.VNPay
	}
	var events services.PaymentEventLog
	if clients.Events != nil {
		events = clients.Events
	}
	var cache services.CatalogCache
	if clients.Cache != nil {
		cache = clients.Cache
	}
	var store services.ObjectStore
	if clients.Bucket != nil {
		store = clients.Bucket
	}
	var scheduler services.PaymentTimeoutScheduler
	if clients.Temporal != nil {
		scheduler = orderexpiry.NewScheduler(log, clients.Temporal, cfg.Temporal.TaskQueue)
	}
	var notifier services.Notifier = services.NewNoopNotifier()
	if clients.Mailer != nil {
		notifier = services.NewEmailNotifier(log, clients.Mailer, cfg.AsyncEmail)
	}

	media := services.NewMediaService(log, store)
	authService := services.NewAuthService(db, log, reposet.User, reposet.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	orderService := services.NewOrderService(db, log, cfg.Order, services.OrderServiceDeps{
		OrderRepo:   reposet.Order,
		PaymentRepo: reposet.Payment,
		ProductRepo: reposet.Product,
		CartRepo:    reposet.CartItem,
		UserRepo:    reposet.User,
		Gateway:     gateway,
		Scheduler:   scheduler,
		Notifier:    notifier,
		Cache:       cache,
	})

	out := Services{
		Auth:    authService,
		User:    services.NewUserService(db, log, reposet.User, reposet.UserToken, media),
		Media:   media,
		Product: services.NewProductService(db, log, reposet.Product, media, cache),
		Banner:  services.NewBannerService(log, reposet.Banner, media, cache),
		Cart:    services.NewCartService(db, log, reposet.CartItem, reposet.Product),
		Order:   orderService,
		Payment: services.NewPaymentService(db, log, reposet.Order, reposet.Payment, reposet.User, gateway, events, notifier),
		Stats:   services.NewStatsService(log, reposet.User, reposet.Product, reposet.Order),
		Worker:  worker.NewWorker(log, orderService, reposet.UserToken, cfg.SweepInterval),
	}

	if clients.Temporal != nil {
		runner, err := temporalworker.NewRunner(log, clients.Temporal, cfg.Temporal, orderService)
		if err != nil {
			return Services{}, fmt.Errorf("init temporal worker: %w", err)
		}
		out.TemporalWorker = runner
	} else {
		log.Warn("Temporal disabled; payment timeouts rely on the maintenance sweep", "interval", cfg.SweepInterval.String())
	}

	return out, nil
}

// bootstrapAdmin makes sure the configured admin account exists.
func bootstrapAdmin(ctx context.Context, log *logger.Logger, cfg Config, auth services.AuthService) error {
	if cfg.AdminBootstrapEmail == "" {
		return nil
	}
	if cfg.AdminBootstrapPassword == "" {
		log.Warn("ADMIN_BOOTSTRAP_EMAIL set without ADMIN_BOOTSTRAP_PASSWORD; skipping admin bootstrap")
		return nil
	}
	admin, err := auth.EnsureAdmin(ctx, cfg.AdminBootstrapEmail, cfg.AdminBootstrapPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	log.Info("Admin account ready", "user_id", admin.ID, "email", admin.Email)
	return nil
}
