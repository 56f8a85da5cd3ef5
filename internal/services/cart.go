package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type CartLine struct {
	ProductID       uuid.UUID `json:"product_id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Image           string    `json:"image"`
	Price           int64     `json:"price"`
	DiscountPercent int       `json:"discount_percent"`
	UnitPrice       int64     `json:"unit_price"`
	Stock           int       `json:"stock"`
	Quantity        int       `json:"quantity"`
	Subtotal        int64     `json:"subtotal"`
}

type CartView struct {
	Items    []CartLine `json:"items"`
	Quantity int        `json:"quantity"`
	Total    int64      `json:"total"`
}

type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error)
	SetItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	db          *gorm.DB
	log         *logger.Logger
	cartRepo    repos.CartItemRepo
	productRepo repos.ProductRepo
}

func NewCartService(db *gorm.DB, log *logger.Logger, cartRepo repos.CartItemRepo, productRepo repos.ProductRepo) CartService {
	return &cartService{
		db:          db,
		log:         log.With("service", "CartService"),
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Get drops lines whose product was deleted or deactivated.
func (cs *cartService) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	return cs.view(dbctx.New(ctx), userID)
}

func (cs *cartService) view(dbc dbctx.Context, userID uuid.UUID) (*CartView, error) {
	rows, err := cs.cartRepo.ListByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	out := &CartView{Items: make([]CartLine, 0, len(rows))}
	for _, ci := range rows {
		p := ci.Product
		if p == nil || !p.IsActive {
			continue
		}
		unit := p.FinalPrice()
		line := CartLine{
			ProductID:       p.ID,
			Name:            p.Name,
			Slug:            p.Slug,
			Image:           p.PrimaryImage(),
			Price:           p.Price,
			DiscountPercent: p.DiscountPercent,
			UnitPrice:       unit,
			Stock:           p.Stock,
			Quantity:        ci.Quantity,
			Subtotal:        unit * int64(ci.Quantity),
		}
		out.Items = append(out.Items, line)
		out.Quantity += line.Quantity
		out.Total += line.Subtotal
	}
	return out, nil
}

func (cs *cartService) activeProduct(dbc dbctx.Context, productID uuid.UUID) (*types.Product, error) {
	p, err := cs.productRepo.GetByID(dbc, productID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if p == nil || !p.IsActive {
		return nil, notFound("product_not_found", "product not found")
	}
	return p, nil
}

func (cs *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error) {
	if qty < 1 {
		return nil, invalidArg("invalid_quantity", "quantity must be at least 1")
	}
	var out *CartView
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := cs.activeProduct(dbc, productID)
		if err != nil {
			return err
		}
		existing, err := cs.cartRepo.Get(dbc, userID, productID)
		if err != nil {
			return fmt.Errorf("load cart item: %w", err)
		}
		total := qty
		if existing != nil {
			total += existing.Quantity
		}
		if total > p.Stock {
			return outOfStock(p.Name)
		}
		if _, err := cs.cartRepo.SetQuantity(dbc, userID, productID, total); err != nil {
			return fmt.Errorf("save cart item: %w", err)
		}
		out, err = cs.view(dbc, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetItem replaces the quantity of a line; zero removes it.
func (cs *cartService) SetItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error) {
	if qty < 0 {
		return nil, invalidArg("invalid_quantity", "quantity cannot be negative")
	}
	if qty == 0 {
		return cs.RemoveItem(ctx, userID, productID)
	}
	dbc := dbctx.New(ctx)
	p, err := cs.activeProduct(dbc, productID)
	if err != nil {
		return nil, err
	}
	if qty > p.Stock {
		return nil, outOfStock(p.Name)
	}
	if _, err := cs.cartRepo.SetQuantity(dbc, userID, productID, qty); err != nil {
		return nil, fmt.Errorf("save cart item: %w", err)
	}
	return cs.view(dbc, userID)
}

func (cs *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	dbc := dbctx.New(ctx)
	ok, err := cs.cartRepo.Delete(dbc, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	if !ok {
		return nil, notFound("cart_item_not_found", "product is not in the cart")
	}
	return cs.view(dbc, userID)
}

func (cs *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := cs.cartRepo.Clear(dbctx.New(ctx), userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
