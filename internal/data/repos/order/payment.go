package order

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/data/db"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type PaymentRepo interface {
	Create(dbc dbctx.Context, p *types.Payment) (*types.Payment, error)
	GetByTxnRef(dbc dbctx.Context, txnRef string) (*types.Payment, error)
	ListByOrder(dbc dbctx.Context, orderID uuid.UUID) ([]*types.Payment, error)
	CountByOrder(dbc dbctx.Context, orderID uuid.UUID) (int64, error)
	UpdateIfStatus(dbc dbctx.Context, id uuid.UUID, from types.PaymentState, updates map[string]any) (bool, error)
}

type paymentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
	return &paymentRepo{db: db, log: baseLog.With("repo", "PaymentRepo")}
}

func (r *paymentRepo) Create(dbc dbctx.Context, p *types.Payment) (*types.Payment, error) {
	if p == nil {
		return nil, errors.New("nil payment")
	}
	if err := dbc.DB(r.db).Create(p).Error; err != nil {
		return nil, db.MapError(err)
	}
	return p, nil
}

func (r *paymentRepo) GetByTxnRef(dbc dbctx.Context, txnRef string) (*types.Payment, error) {
	if txnRef == "" {
		return nil, nil
	}
	var p types.Payment
	err := dbc.DB(r.db).Where("txn_ref = ?", txnRef).Limit(1).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) ListByOrder(dbc dbctx.Context, orderID uuid.UUID) ([]*types.Payment, error) {
	var out []*types.Payment
	err := dbc.DB(r.db).Where("order_id = ?", orderID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *paymentRepo) CountByOrder(dbc dbctx.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Payment{}).Where("order_id = ?", orderID).Count(&n).Error
	return n, err
}

func (r *paymentRepo) UpdateIfStatus(dbc dbctx.Context, id uuid.UUID, from types.PaymentState, updates map[string]any) (bool, error) {
	if len(updates) == 0 {
		return false, nil
	}
	res := dbc.DB(r.db).Model(&types.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
