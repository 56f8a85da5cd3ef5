package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/shopfront-backend/internal/http/handlers"
	httpMW "github.com/yungbote/shopfront-backend/internal/http/middleware"
	"github.com/yungbote/shopfront-backend/internal/observability"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler    *httpH.AuthHandler
	UserHandler    *httpH.UserHandler
	ProductHandler *httpH.ProductHandler
	BannerHandler  *httpH.BannerHandler
	CartHandler    *httpH.CartHandler
	OrderHandler   *httpH.OrderHandler
	PaymentHandler *httpH.PaymentHandler
	StatsHandler   *httpH.StatsHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
		}

		// Catalog
		if cfg.ProductHandler != nil {
			api.GET("/products", cfg.ProductHandler.List)
			api.GET("/products/categories", cfg.ProductHandler.Categories)
			api.GET("/products/:id", cfg.ProductHandler.Get)
		}
		if cfg.BannerHandler != nil {
			api.GET("/banners", cfg.BannerHandler.ListVisible)
		}

		// VNPay redirects and notifications carry no bearer token.
		if cfg.PaymentHandler != nil {
			api.GET("/payments/vnpay/return", cfg.PaymentHandler.VNPayReturn)
			api.GET("/payments/vnpay/ipn", cfg.PaymentHandler.VNPayIPN)
		}
	}

	if cfg.AuthMiddleware == nil {
		return r
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		if cfg.AuthHandler != nil {
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/me", cfg.UserHandler.UpdateMe)
			protected.POST("/me/password", cfg.UserHandler.ChangePassword)
			protected.POST("/me/avatar", cfg.UserHandler.UploadAvatar)
		}

		if cfg.CartHandler != nil {
			protected.GET("/cart", cfg.CartHandler.Get)
			protected.DELETE("/cart", cfg.CartHandler.Clear)
			protected.POST("/cart/items", cfg.CartHandler.AddItem)
			protected.PATCH("/cart/items/:product_id", cfg.CartHandler.SetItem)
			protected.DELETE("/cart/items/:product_id", cfg.CartHandler.RemoveItem)
		}

		if cfg.OrderHandler != nil {
			protected.POST("/orders", cfg.OrderHandler.Create)
			protected.GET("/orders", cfg.OrderHandler.ListMine)
			protected.GET("/orders/:id", cfg.OrderHandler.GetMine)
			protected.POST("/orders/:id/cancel", cfg.OrderHandler.Cancel)
			protected.POST("/orders/:id/payment-url", cfg.OrderHandler.RetryPayment)
		}
	}

	admin := protected.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())
	{
		if cfg.UserHandler != nil {
			admin.GET("/users", cfg.UserHandler.AdminList)
			admin.GET("/users/:id", cfg.UserHandler.AdminGet)
			admin.PATCH("/users/:id", cfg.UserHandler.AdminUpdate)
			admin.DELETE("/users/:id", cfg.UserHandler.AdminDelete)
		}

		if cfg.ProductHandler != nil {
			admin.GET("/products", cfg.ProductHandler.AdminList)
			admin.POST("/products", cfg.ProductHandler.Create)
			admin.GET("/products/:id", cfg.ProductHandler.AdminGet)
			admin.PATCH("/products/:id", cfg.ProductHandler.Update)
			admin.DELETE("/products/:id", cfg.ProductHandler.Delete)
			admin.POST("/products/:id/images", cfg.ProductHandler.UploadImage)
		}

		if cfg.BannerHandler != nil {
			admin.GET("/banners", cfg.BannerHandler.AdminList)
			admin.POST("/banners", cfg.BannerHandler.Create)
			admin.PATCH("/banners/:id", cfg.BannerHandler.Update)
			admin.DELETE("/banners/:id", cfg.BannerHandler.Delete)
			admin.POST("/banners/:id/image", cfg.BannerHandler.UploadImage)
		}

		if cfg.OrderHandler != nil {
			admin.GET("/orders", cfg.OrderHandler.AdminList)
			admin.GET("/orders/:id", cfg.OrderHandler.AdminGet)
			admin.PATCH("/orders/:id/status", cfg.OrderHandler.AdminUpdateStatus)
		}

		if cfg.StatsHandler != nil {
			admin.GET("/stats", cfg.StatsHandler.Dashboard)
		}
	}

	return r
}
