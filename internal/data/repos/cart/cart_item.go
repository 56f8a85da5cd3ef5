package cart

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type CartItemRepo interface {
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CartItem, error)
	Get(dbc dbctx.Context, userID, productID uuid.UUID) (*types.CartItem, error)
	SetQuantity(dbc dbctx.Context, userID, productID uuid.UUID, qty int) (*types.CartItem, error)
	Delete(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error)
	DeleteProducts(dbc dbctx.Context, userID uuid.UUID, productIDs []uuid.UUID) error
	Clear(dbc dbctx.Context, userID uuid.UUID) error
}

type cartItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartItemRepo(db *gorm.DB, baseLog *logger.Logger) CartItemRepo {
	return &cartItemRepo{db: db, log: baseLog.With("repo", "CartItemRepo")}
}

// ListByUser preloads the product; soft-deleted products come back nil.
func (r *cartItemRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CartItem, error) {
	var out []*types.CartItem
	err := dbc.DB(r.db).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *cartItemRepo) Get(dbc dbctx.Context, userID, productID uuid.UUID) (*types.CartItem, error) {
	var ci types.CartItem
	err := dbc.DB(r.db).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Limit(1).Take(&ci).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

// SetQuantity upserts on (user_id, product_id).
func (r *cartItemRepo) SetQuantity(dbc dbctx.Context, userID, productID uuid.UUID, qty int) (*types.CartItem, error) {
	ci := &types.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}
	err := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   qty,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(ci).Error
	if err != nil {
		return nil, err
	}
	return r.Get(dbc, userID, productID)
}

func (r *cartItemRepo) Delete(dbc dbctx.Context, userID, productID uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&types.CartItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *cartItemRepo) DeleteProducts(dbc dbctx.Context, userID uuid.UUID, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Delete(&types.CartItem{}).Error
}

func (r *cartItemRepo) Clear(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.DB(r.db).Where("user_id = ?", userID).Delete(&types.CartItem{}).Error
}
