package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/shopfront-backend/internal/domain"
)

// SeedPassword is the plain password behind every seeded user.
const SeedPassword = "secret123"

var seedHash []byte

func passwordHash(tb testing.TB) string {
	tb.Helper()
	if seedHash == nil {
		h, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.MinCost)
		if err != nil {
			tb.Fatalf("hash password: %v", err)
		}
		seedHash = h
	}
	return string(seedHash)
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  passwordHash(tb),
		FirstName: "An",
		LastName:  "Nguyen",
		Role:      types.RoleCustomer,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedAdmin(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  passwordHash(tb),
		FirstName: "Admin",
		LastName:  "Shop",
		Role:      types.RoleAdmin,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed admin: %v", err)
	}
	return u
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, price int64, stock int) *types.Product {
	tb.Helper()
	p := &types.Product{
		ID:       uuid.New(),
		Name:     name,
		Category: "general",
		Brand:    "shopfront",
		Price:    price,
		Stock:    stock,
		Images:   datatypes.JSONSlice[string]{"https://cdn.example.com/" + uuid.NewString() + ".jpg"},
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedBanner(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, position int) *types.Banner {
	tb.Helper()
	b := &types.Banner{
		ID:       uuid.New(),
		Title:    title,
		ImageURL: "https://cdn.example.com/banner.jpg",
		Position: position,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed banner: %v", err)
	}
	return b
}

// SeedOrder inserts a pending order with one line per product, quantity 1.
func SeedOrder(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, method types.PaymentMethod, products ...*types.Product) *types.Order {
	tb.Helper()
	o := &types.Order{
		ID:     uuid.New(),
		UserID: userID,
		Shipping: types.OrderShipping{
			FullName: "An Nguyen",
			Phone:    "0900000000",
			Address:  "1 Le Loi",
			City:     "HCM",
		},
		PaymentMethod: method,
		Status:        types.OrderStatusPending,
		PaymentStatus: types.PaymentUnpaid,
	}
	for _, p := range products {
		price := p.FinalPrice()
		o.Items = append(o.Items, types.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.PrimaryImage(),
			UnitPrice: price,
			Quantity:  1,
			Subtotal:  price,
		})
		o.ItemsPrice += price
	}
	o.TotalPrice = o.ItemsPrice + o.ShippingPrice
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed order: %v", err)
	}
	return o
}
