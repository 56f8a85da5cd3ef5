package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/data/repos/auth"
	"github.com/yungbote/shopfront-backend/internal/data/repos/cart"
	"github.com/yungbote/shopfront-backend/internal/data/repos/catalog"
	"github.com/yungbote/shopfront-backend/internal/data/repos/order"
	"github.com/yungbote/shopfront-backend/internal/data/repos/user"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserListFilter = user.ListFilter
type UserTokenRepo = auth.UserTokenRepo

type ProductRepo = catalog.ProductRepo
type ProductFilter = catalog.ProductFilter
type BannerRepo = catalog.BannerRepo

type CartItemRepo = cart.CartItemRepo

type OrderRepo = order.OrderRepo
type OrderListFilter = order.ListFilter
type OrderGuard = order.Guard
type PaymentRepo = order.PaymentRepo

func NormalizeEmail(email string) string { return user.NormalizeEmail(email) }

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return catalog.NewProductRepo(db, baseLog)
}
func NewBannerRepo(db *gorm.DB, baseLog *logger.Logger) BannerRepo {
	return catalog.NewBannerRepo(db, baseLog)
}

func NewCartItemRepo(db *gorm.DB, baseLog *logger.Logger) CartItemRepo {
	return cart.NewCartItemRepo(db, baseLog)
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return order.NewOrderRepo(db, baseLog)
}
func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
	return order.NewPaymentRepo(db, baseLog)
}
