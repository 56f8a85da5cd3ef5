package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo
	Product   repos.ProductRepo
	Banner    repos.BannerRepo
	CartItem  repos.CartItemRepo
	Order     repos.OrderRepo
	Payment   repos.PaymentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),
		Product:   repos.NewProductRepo(db, log),
		Banner:    repos.NewBannerRepo(db, log),
		CartItem:  repos.NewCartItemRepo(db, log),
		Order:     repos.NewOrderRepo(db, log),
		Payment:   repos.NewPaymentRepo(db, log),
	}
}
