package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

const (
	LowStockThreshold = 5
	lowStockLimit     = 10
	bestSellerLimit   = 5
)

type DashboardStats struct {
	Users       int64                       `json:"users"`
	Products    int64                       `json:"products"`
	Orders      map[types.OrderStatus]int64 `json:"orders"`
	TotalOrders int64                       `json:"total_orders"`
	Revenue     int64                       `json:"revenue"`
	LowStock    []*types.Product            `json:"low_stock"`
	BestSellers []*types.Product            `json:"best_sellers"`
}

type StatsService interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
}

type statsService struct {
	log         *logger.Logger
	userRepo    repos.UserRepo
	productRepo repos.ProductRepo
	orderRepo   repos.OrderRepo
}

func NewStatsService(log *logger.Logger, userRepo repos.UserRepo, productRepo repos.ProductRepo, orderRepo repos.OrderRepo) StatsService {
	return &statsService{
		log:         log.With("service", "StatsService"),
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

func (ss *statsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	out := &DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.New(gctx)

	g.Go(func() error {
		n, err := ss.userRepo.Count(dbc)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		out.Users = n
		return nil
	})
	g.Go(func() error {
		n, err := ss.productRepo.Count(dbc)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		out.Products = n
		return nil
	})
	g.Go(func() error {
		byStatus, err := ss.orderRepo.CountByStatus(dbc)
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		out.Orders = byStatus
		return nil
	})
	g.Go(func() error {
		sum, err := ss.orderRepo.PaidRevenue(dbc)
		if err != nil {
			return fmt.Errorf("sum revenue: %w", err)
		}
		out.Revenue = sum
		return nil
	})
	g.Go(func() error {
		rows, err := ss.productRepo.LowStock(dbc, LowStockThreshold, lowStockLimit)
		if err != nil {
			return fmt.Errorf("low stock: %w", err)
		}
		out.LowStock = rows
		return nil
	})
	g.Go(func() error {
		rows, err := ss.productRepo.BestSellers(dbc, bestSellerLimit)
		if err != nil {
			return fmt.Errorf("best sellers: %w", err)
		}
		out.BestSellers = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		ss.log.Error("Dashboard stats failed", "error", err)
		return nil, err
	}
	for _, n := range out.Orders {
		out.TotalOrders += n
	}
	if out.LowStock == nil {
		out.LowStock = []*types.Product{}
	}
	if out.BestSellers == nil {
		out.BestSellers = []*types.Product{}
	}
	return out, nil
}
