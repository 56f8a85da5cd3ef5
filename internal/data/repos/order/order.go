package order

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/data/db"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

type ListFilter struct {
	UserID        uuid.UUID
	Status        types.OrderStatus
	PaymentStatus types.PaymentStatus
	Query         string
	Page          int
	Limit         int
}

// Guard restricts a conditional update to rows still in one of the listed
// states. Empty slices do not constrain.
type Guard struct {
	Statuses        []types.OrderStatus
	PaymentStatuses []types.PaymentStatus
}

type OrderRepo interface {
	Create(dbc dbctx.Context, order *types.Order) (*types.Order, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)
	GetByCode(dbc dbctx.Context, code string) (*types.Order, error)
	List(dbc dbctx.Context, f ListFilter) ([]*types.Order, int64, error)
	UpdateGuarded(dbc dbctx.Context, id uuid.UUID, g Guard, updates map[string]any) (bool, error)
	ListAwaitingPayment(dbc dbctx.Context, createdBefore time.Time, limit int) ([]*types.Order, error)
	CountByStatus(dbc dbctx.Context) (map[types.OrderStatus]int64, error)
	PaidRevenue(dbc dbctx.Context) (int64, error)
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: baseLog.With("repo", "OrderRepo")}
}

// Create inserts the order and its items.
func (r *orderRepo) Create(dbc dbctx.Context, order *types.Order) (*types.Order, error) {
	if order == nil {
		return nil, errors.New("nil order")
	}
	if err := dbc.DB(r.db).Create(order).Error; err != nil {
		return nil, db.MapError(err)
	}
	return order, nil
}

func (r *orderRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	return r.first(dbc, "id = ?", id)
}

func (r *orderRepo) GetByCode(dbc dbctx.Context, code string) (*types.Order, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return r.first(dbc, "code = ?", code)
}

func (r *orderRepo) first(dbc dbctx.Context, cond string, arg any) (*types.Order, error) {
	var o types.Order
	err := dbc.DB(r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id") }).
		Where(cond, arg).
		Limit(1).
		Take(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(dbc dbctx.Context, f ListFilter) ([]*types.Order, int64, error) {
	q := dbc.DB(r.db).Model(&types.Order{})
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(code) LIKE ? OR LOWER(shipping_full_name) LIKE ? OR shipping_phone LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*types.Order
	if err := q.Preload("Items").
		Order("created_at DESC").Order("id").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateGuarded is a compare-and-set: it only touches the row while it still
// matches g, and reports whether it did.
func (r *orderRepo) UpdateGuarded(dbc dbctx.Context, id uuid.UUID, g Guard, updates map[string]any) (bool, error) {
	if len(updates) == 0 {
		return false, nil
	}
	q := dbc.DB(r.db).Model(&types.Order{}).Where("id = ?", id)
	if len(g.Statuses) > 0 {
		q = q.Where("status IN ?", g.Statuses)
	}
	if len(g.PaymentStatuses) > 0 {
		q = q.Where("payment_status IN ?", g.PaymentStatuses)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, db.MapError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepo) ListAwaitingPayment(dbc dbctx.Context, createdBefore time.Time, limit int) ([]*types.Order, error) {
	var out []*types.Order
	err := dbc.DB(r.db).
		Where("payment_method = ? AND status = ?", types.MethodVNPay, types.OrderStatusPending).
		Where("payment_status IN ?", []types.PaymentStatus{types.PaymentUnpaid, types.PaymentFailed}).
		Where("created_at < ?", createdBefore.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *orderRepo) CountByStatus(dbc dbctx.Context) (map[types.OrderStatus]int64, error) {
	type row struct {
		Status types.OrderStatus
		N      int64
	}
	var rows []row
	if err := dbc.DB(r.db).Model(&types.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[types.OrderStatus]int64, len(types.AllOrderStatuses()))
	for _, s := range types.AllOrderStatuses() {
		out[s] = 0
	}
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

func (r *orderRepo) PaidRevenue(dbc dbctx.Context) (int64, error) {
	var sum int64
	err := dbc.DB(r.db).Model(&types.Order{}).
		Where("payment_status = ?", types.PaymentPaid).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&sum).Error
	return sum, err
}
