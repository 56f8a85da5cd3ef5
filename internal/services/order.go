package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	domainorder "github.com/yungbote/shopfront-backend/internal/domain/order"
	"github.com/yungbote/shopfront-backend/internal/observability"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
	"github.com/yungbote/shopfront-backend/internal/platform/vnpay"
)

const (
	ActorCustomer = "customer"
	ActorAdmin    = "admin"
	ActorPayment  = "payment"
	ActorSystem   = "system"

	TriggerSweeper  = "sweeper"
	TriggerWorkflow = "workflow"

	expireBatchSize = 100
)

type OrderConfig struct {
	ShippingFee           int64
	FreeShippingThreshold int64
	PaymentTimeout        time.Duration
}

func (c OrderConfig) shippingFor(itemsPrice int64) int64 {
	if c.FreeShippingThreshold > 0 && itemsPrice >= c.FreeShippingThreshold {
		return 0
	}
	return c.ShippingFee
}

type OrderLineInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CreateOrderInput struct {
	Items         []OrderLineInput    `json:"items"`
	Shipping      types.OrderShipping `json:"shipping"`
	PaymentMethod types.PaymentMethod `json:"payment_method"`
	BankCode      string              `json:"bank_code"`
	ClientIP      string              `json:"-"`
}

type PlacedOrder struct {
	Order      *types.Order `json:"order"`
	PaymentURL string       `json:"payment_url,omitempty"`
}

type OrderQuery struct {
	UserID        uuid.UUID
	Status        string
	PaymentStatus string
	Query         string
	Page          int
	Limit         int
}

type OrderService interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (*PlacedOrder, error)
	ListMine(ctx context.Context, userID uuid.UUID, q OrderQuery) (*Page[*types.Order], error)
	GetMine(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) (*types.Order, error)
	RetryPayment(ctx context.Context, userID, orderID uuid.UUID, clientIP, bankCode string) (*PlacedOrder, error)

	AdminList(ctx context.Context, q OrderQuery) (*Page[*types.Order], error)
	AdminGet(ctx context.Context, orderID uuid.UUID) (*types.Order, error)
	AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status types.OrderStatus, reason string) (*types.Order, error)

	// ExpireUnpaid cancels one overdue online order; it reports whether this
	// call did the cancellation. Safe to call repeatedly.
	ExpireUnpaid(ctx context.Context, orderID uuid.UUID, trigger string) (bool, error)
	ExpireOverdue(ctx context.Context, trigger string) (int, error)
}

type orderService struct {
	db          *gorm.DB
	log         *logger.Logger
	cfg         OrderConfig
	orderRepo   repos.OrderRepo
	paymentRepo repos.PaymentRepo
	productRepo repos.ProductRepo
	cartRepo    repos.CartItemRepo
	userRepo    repos.UserRepo
	gateway     PaymentGateway
	scheduler   PaymentTimeoutScheduler
	notifier    Notifier
	cache       readThrough
	now         func() time.Time
}

type OrderServiceDeps struct {
	OrderRepo   repos.OrderRepo
	PaymentRepo repos.PaymentRepo
	ProductRepo repos.ProductRepo
	CartRepo    repos.CartItemRepo
	UserRepo    repos.UserRepo
	Gateway     PaymentGateway
	Scheduler   PaymentTimeoutScheduler
	Notifier    Notifier
	Cache       CatalogCache
}

func NewOrderService(db *gorm.DB, log *logger.Logger, cfg OrderConfig, deps OrderServiceDeps) OrderService {
	serviceLog := log.With("service", "OrderService")
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 30 * time.Minute
	}
	return &orderService{
		db:          db,
		log:         serviceLog,
		cfg:         cfg,
		orderRepo:   deps.OrderRepo,
		paymentRepo: deps.PaymentRepo,
		productRepo: deps.ProductRepo,
		cartRepo:    deps.CartRepo,
		userRepo:    deps.UserRepo,
		gateway:     deps.Gateway,
		scheduler:   deps.Scheduler,
		notifier:    notifier,
		cache:       readThrough{log: serviceLog, cache: deps.Cache},
		now:         time.Now,
	}
}

func validateShipping(s *types.OrderShipping) error {
	s.FullName = strings.TrimSpace(s.FullName)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Address = strings.TrimSpace(s.Address)
	s.City = strings.TrimSpace(s.City)
	s.Note = strings.TrimSpace(s.Note)
	if s.FullName == "" || s.Phone == "" || s.Address == "" {
		return invalidArg("invalid_shipping", "shipping full_name, phone and address are required")
	}
	return nil
}

// mergeLines sums quantities per product and sorts by product id so that
// concurrent orders touch stock rows in the same order.
func mergeLines(in []OrderLineInput) ([]OrderLineInput, error) {
	qty := map[uuid.UUID]int{}
	for _, l := range in {
		if l.ProductID == uuid.Nil {
			return nil, invalidArg("invalid_item", "product_id is required")
		}
		if l.Quantity < 1 {
			return nil, invalidArg("invalid_quantity", "quantity must be at least 1")
		}
		qty[l.ProductID] += l.Quantity
	}
	out := make([]OrderLineInput, 0, len(qty))
	for id, q := range qty {
		out = append(out, OrderLineInput{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID.String() < out[j].ProductID.String() })
	return out, nil
}

func (s *orderService) Create(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (*PlacedOrder, error) {
	ctx, span := observability.StartSpan(ctx, "order.create", attribute.String("payment_method", string(in.PaymentMethod)))
	defer span.End()

	if !types.IsValidPaymentMethod(in.PaymentMethod) {
		return nil, invalidArg("invalid_payment_method", "payment_method must be cod or vnpay")
	}
	if in.PaymentMethod == types.MethodVNPay && s.gateway == nil {
		return nil, unavailable("payment_unavailable", "online payment is not configured")
	}
	if err := validateShipping(&in.Shipping); err != nil {
		return nil, err
	}

	lines := in.Items
	if len(lines) == 0 {
		cart, err := s.cartRepo.ListByUser(dbctx.New(ctx), userID)
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
		for _, ci := range cart {
			lines = append(lines, OrderLineInput{ProductID: ci.ProductID, Quantity: ci.Quantity})
		}
		if len(lines) == 0 {
			return nil, invalidArg("empty_cart", "the cart is empty")
		}
	}
	lines, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &types.Order{
		Code:          domainorder.NewCode(now),
		UserID:        userID,
		Shipping:      in.Shipping,
		PaymentMethod: in.PaymentMethod,
		Status:        types.OrderStatusPending,
		PaymentStatus: types.PaymentUnpaid,
	}
	var touched []*types.Product

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		productIDs := make([]uuid.UUID, 0, len(lines))
		for _, l := range lines {
			p, err := s.productRepo.GetByID(dbc, l.ProductID)
			if err != nil {
				return fmt.Errorf("load product: %w", err)
			}
			if p == nil || !p.IsActive {
				return notFound("product_not_found", fmt.Sprintf("product %s not found", l.ProductID))
			}
			ok, err := s.productRepo.DecrementStock(dbc, p.ID, l.Quantity)
			if err != nil {
				return fmt.Errorf("reserve stock: %w", err)
			}
			if !ok {
				observability.Current().StockConflict("create")
				return outOfStock(p.Name)
			}
			unit := p.FinalPrice()
			order.Items = append(order.Items, types.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Image:     p.PrimaryImage(),
				UnitPrice: unit,
				Quantity:  l.Quantity,
				Subtotal:  unit * int64(l.Quantity),
			})
			order.ItemsPrice += unit * int64(l.Quantity)
			productIDs = append(productIDs, p.ID)
			touched = append(touched, p)
		}
		order.ShippingPrice = s.cfg.shippingFor(order.ItemsPrice)
		order.TotalPrice = order.ItemsPrice + order.ShippingPrice
		if order.PaymentMethod == types.MethodVNPay {
			order.PaymentTxnRef = order.Code
		}
		if _, err := s.orderRepo.Create(dbc, order); err != nil {
			return storeConflict(err, "create order", "retry_later", "order code already in use, retry the request")
		}
		if order.PaymentMethod == types.MethodVNPay {
			if _, err := s.paymentRepo.Create(dbc, &types.Payment{
				OrderID:  order.ID,
				TxnRef:   order.PaymentTxnRef,
				Amount:   order.TotalPrice,
				BankCode: strings.TrimSpace(in.BankCode),
			}); err != nil {
				return storeConflict(err, "create payment", "retry_later", "payment reference already in use, retry the request")
			}
		}
		if err := s.cartRepo.DeleteProducts(dbc, userID, productIDs); err != nil {
			return fmt.Errorf("clear ordered cart lines: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.log.Info("Order created", "order_id", order.ID, "code", order.Code, "method", order.PaymentMethod, "total", order.TotalPrice)
	observability.Current().OrderCreated(string(order.PaymentMethod), order.TotalPrice)
	s.invalidateStock(ctx, touched)

	out := &PlacedOrder{Order: order}
	if order.PaymentMethod == types.MethodVNPay {
		out.PaymentURL = s.paymentURL(order, order.PaymentTxnRef, in.ClientIP, in.BankCode)
		s.schedulePaymentTimeout(ctx, order)
	}
	s.notify(ctx, order, true)
	return out, nil
}

func (s *orderService) paymentURL(order *types.Order, txnRef, clientIP, bankCode string) string {
	if s.gateway == nil {
		return ""
	}
	u, err := s.gateway.PaymentURL(vnpay.PaymentRequest{
		TxnRef:    txnRef,
		Amount:    order.TotalPrice,
		OrderInfo: "Thanh toan don hang " + order.Code,
		IPAddr:    clientIP,
		BankCode:  strings.TrimSpace(bankCode),
	})
	if err != nil {
		// The order stands; the customer can request a new URL.
		s.log.Error("Failed to build payment URL", "order_id", order.ID, "error", err)
		return ""
	}
	return u
}

func (s *orderService) schedulePaymentTimeout(ctx context.Context, order *types.Order) {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.SchedulePaymentTimeout(ctx, order.ID, order.Code, s.cfg.PaymentTimeout); err != nil {
		// The sweeper still catches the order.
		s.log.Warn("Failed to schedule payment timeout", "order_id", order.ID, "error", err)
	}
}

func (s *orderService) invalidateStock(ctx context.Context, products []*types.Product) {
	var keys []string
	for _, p := range products {
		keys = append(keys, productItemKey(p.ID.String()), productItemKey(p.Slug))
	}
	s.cache.invalidate(ctx, cacheScopeProducts, keys...)
}

// invalidateRestocked drops cached detail entries for the order's products.
func (s *orderService) invalidateRestocked(ctx context.Context, o *types.Order) {
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.productRepo.GetByIDs(dbctx.New(ctx), ids)
	if err != nil {
		s.log.Warn("Failed to load restocked products for cache invalidation", "order_id", o.ID, "error", err)
	}
	s.invalidateStock(ctx, products)
}

func (s *orderService) notify(ctx context.Context, order *types.Order, placed bool) {
	users, err := s.userRepo.GetByIDs(dbctx.New(ctx), []uuid.UUID{order.UserID})
	if err != nil || len(users) == 0 {
		s.log.Warn("Skipping order notification, user not loaded", "order_id", order.ID, "error", err)
		return
	}
	if placed {
		s.notifier.OrderPlaced(ctx, order, users[0])
		return
	}
	s.notifier.OrderStatusChanged(ctx, order, users[0])
}

func (s *orderService) list(ctx context.Context, q OrderQuery) (*Page[*types.Order], error) {
	if q.Status != "" && !types.IsValidOrderStatus(types.OrderStatus(q.Status)) {
		return nil, invalidArg("invalid_status", "unknown status %q", q.Status)
	}
	if q.PaymentStatus != "" && !types.IsValidPaymentStatus(types.PaymentStatus(q.PaymentStatus)) {
		return nil, invalidArg("invalid_payment_status", "unknown payment status %q", q.PaymentStatus)
	}
	page, limit := normalizePage(q.Page, q.Limit)
	rows, total, err := s.orderRepo.List(dbctx.New(ctx), repos.OrderListFilter{
		UserID:        q.UserID,
		Status:        types.OrderStatus(q.Status),
		PaymentStatus: types.PaymentStatus(q.PaymentStatus),
		Query:         q.Query,
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return newPage(rows, page, limit, total), nil
}

func (s *orderService) ListMine(ctx context.Context, userID uuid.UUID, q OrderQuery) (*Page[*types.Order], error) {
	q.UserID = userID
	q.Query = ""
	return s.list(ctx, q)
}

func (s *orderService) AdminList(ctx context.Context, q OrderQuery) (*Page[*types.Order], error) {
	return s.list(ctx, q)
}

func (s *orderService) load(dbc dbctx.Context, orderID uuid.UUID) (*types.Order, error) {
	o, err := s.orderRepo.GetByID(dbc, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return nil, notFound("order_not_found", "order not found")
	}
	return o, nil
}

// loadOwned hides other users' orders behind a 404.
func (s *orderService) loadOwned(dbc dbctx.Context, userID, orderID uuid.UUID) (*types.Order, error) {
	o, err := s.load(dbc, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, notFound("order_not_found", "order not found")
	}
	return o, nil
}

func (s *orderService) GetMine(ctx context.Context, userID, orderID uuid.UUID) (*types.Order, error) {
	return s.loadOwned(dbctx.New(ctx), userID, orderID)
}

func (s *orderService) AdminGet(ctx context.Context, orderID uuid.UUID) (*types.Order, error) {
	return s.load(dbctx.New(ctx), orderID)
}

func (s *orderService) restock(dbc dbctx.Context, o *types.Order) error {
	for _, it := range o.Items {
		if err := s.productRepo.RestoreStock(dbc, it.ProductID, it.Quantity); err != nil {
			return fmt.Errorf("restock %s: %w", it.ProductID, err)
		}
	}
	return nil
}

// cancelTx moves o to cancelled under a compare-and-set on its current state
// and returns the stock. The caller owns the transaction.
func (s *orderService) cancelTx(dbc dbctx.Context, o *types.Order, reason string, refund bool) (bool, error) {
	now := s.now().UTC()
	updates := map[string]any{
		"status":        types.OrderStatusCancelled,
		"cancelled_at":  now,
		"cancel_reason": reason,
	}
	if refund {
		updates["payment_status"] = types.PaymentRefunded
	}
	ok, err := s.orderRepo.UpdateGuarded(dbc, o.ID, repos.OrderGuard{
		Statuses:        []types.OrderStatus{o.Status},
		PaymentStatuses: []types.PaymentStatus{o.PaymentStatus},
	}, updates)
	if err != nil {
		return false, fmt.Errorf("cancel order: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := s.restock(dbc, o); err != nil {
		return false, err
	}
	o.Status = types.OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	if refund {
		o.PaymentStatus = types.PaymentRefunded
	}
	return true, nil
}

func (s *orderService) Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) (*types.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "cancelled_by_customer"
	}
	var out *types.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		o, err := s.loadOwned(dbc, userID, orderID)
		if err != nil {
			return err
		}
		if !o.Cancellable() {
			return invalidTransition("order %s cannot be cancelled (status %s, payment %s)", o.Code, o.Status, o.PaymentStatus)
		}
		ok, err := s.cancelTx(dbc, o, reason, false)
		if err != nil {
			return err
		}
		if !ok {
			return invalidTransition("order %s changed concurrently", o.Code)
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Order cancelled", "order_id", out.ID, "actor", ActorCustomer)
	s.invalidateRestocked(ctx, out)
	observability.Current().OrderTransition(string(types.OrderStatusCancelled), ActorCustomer)
	s.notify(ctx, out, false)
	return out, nil
}

func (s *orderService) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status types.OrderStatus, reason string) (*types.Order, error) {
	if !types.IsValidOrderStatus(status) {
		return nil, invalidArg("invalid_status", "unknown status %q", status)
	}
	var out *types.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		o, err := s.load(dbc, orderID)
		if err != nil {
			return err
		}
		if !types.CanTransition(o.Status, status) {
			return invalidTransition("cannot move order %s from %s to %s", o.Code, o.Status, status)
		}

		if status == types.OrderStatusCancelled {
			reason = strings.TrimSpace(reason)
			if reason == "" {
				reason = "cancelled_by_admin"
			}
			// Paid orders are refunded by hand outside the system.
			ok, err := s.cancelTx(dbc, o, reason, o.PaymentStatus == types.PaymentPaid)
			if err != nil {
				return err
			}
			if !ok {
				return invalidTransition("order %s changed concurrently", o.Code)
			}
			out = o
			return nil
		}

		// An unpaid online order only leaves pending through the payment
		// callback, cancellation or expiry.
		if o.PaymentMethod == types.MethodVNPay && o.PaymentStatus != types.PaymentPaid {
			return apiConflictPaymentRequired(o.Code)
		}

		guard := repos.OrderGuard{
			Statuses:        []types.OrderStatus{o.Status},
			PaymentStatuses: []types.PaymentStatus{o.PaymentStatus},
		}
		now := s.now().UTC()
		updates := map[string]any{"status": status}
		switch status {
		case types.OrderStatusConfirmed:
			updates["confirmed_at"] = now
			o.ConfirmedAt = &now
		case types.OrderStatusShipping:
			updates["shipped_at"] = now
			o.ShippedAt = &now
		case types.OrderStatusDelivered:
			updates["delivered_at"] = now
			o.DeliveredAt = &now
			if o.PaymentMethod == types.MethodCOD && o.PaymentStatus != types.PaymentPaid {
				updates["payment_status"] = types.PaymentPaid
				updates["paid_at"] = now
				o.PaymentStatus = types.PaymentPaid
				o.PaidAt = &now
			}
		}
		ok, err := s.orderRepo.UpdateGuarded(dbc, o.ID, guard, updates)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if !ok {
			return invalidTransition("order %s changed concurrently", o.Code)
		}
		o.Status = status
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Order status changed", "order_id", out.ID, "status", out.Status, "actor", ActorAdmin)
	if out.Status == types.OrderStatusCancelled {
		s.invalidateRestocked(ctx, out)
	}
	observability.Current().OrderTransition(string(out.Status), ActorAdmin)
	s.notify(ctx, out, false)
	return out, nil
}

func apiConflictPaymentRequired(code string) error {
	return conflict("payment_required", "order %s has not been paid online yet", code)
}

// RetryPayment opens a new payment attempt with txn ref <code>-<n>.
func (s *orderService) RetryPayment(ctx context.Context, userID, orderID uuid.UUID, clientIP, bankCode string) (*PlacedOrder, error) {
	if s.gateway == nil {
		return nil, unavailable("payment_unavailable", "online payment is not configured")
	}
	var out *types.Order
	var txnRef string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		o, err := s.loadOwned(dbc, userID, orderID)
		if err != nil {
			return err
		}
		if !o.AwaitingPayment() {
			return invalidTransition("order %s is not awaiting online payment", o.Code)
		}
		n, err := s.paymentRepo.CountByOrder(dbc, o.ID)
		if err != nil {
			return fmt.Errorf("count payments: %w", err)
		}
		txnRef = fmt.Sprintf("%s-%d", o.Code, n+1)
		if _, err := s.paymentRepo.Create(dbc, &types.Payment{
			OrderID:  o.ID,
			TxnRef:   txnRef,
			Amount:   o.TotalPrice,
			BankCode: strings.TrimSpace(bankCode),
		}); err != nil {
			return storeConflict(err, "create payment", "payment_in_progress", "another payment attempt was opened for this order")
		}
		ok, err := s.orderRepo.UpdateGuarded(dbc, o.ID, repos.OrderGuard{
			Statuses:        []types.OrderStatus{types.OrderStatusPending},
			PaymentStatuses: []types.PaymentStatus{types.PaymentUnpaid, types.PaymentFailed},
		}, map[string]any{"payment_txn_ref": txnRef, "payment_status": types.PaymentUnpaid})
		if err != nil {
			return storeConflict(err, "update order", "payment_in_progress", "another payment attempt was opened for this order")
		}
		if !ok {
			return invalidTransition("order %s changed concurrently", o.Code)
		}
		o.PaymentTxnRef = txnRef
		o.PaymentStatus = types.PaymentUnpaid
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	url := s.paymentURL(out, txnRef, clientIP, bankCode)
	if url == "" {
		return nil, unavailable("payment_unavailable", "could not create a payment link")
	}
	return &PlacedOrder{Order: out, PaymentURL: url}, nil
}

func (s *orderService) ExpireUnpaid(ctx context.Context, orderID uuid.UUID, trigger string) (bool, error) {
	var out *types.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		o, err := s.orderRepo.GetByID(dbc, orderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if o == nil || !o.AwaitingPayment() {
			return nil
		}
		if s.now().Sub(o.CreatedAt) < s.cfg.PaymentTimeout {
			return nil
		}
		ok, err := s.cancelTx(dbc, o, types.CancelReasonPaymentTimeout, false)
		if err != nil {
			return err
		}
		if ok {
			out = o
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if out == nil {
		return false, nil
	}
	s.log.Info("Order expired", "order_id", out.ID, "code", out.Code, "trigger", trigger)
	s.invalidateRestocked(ctx, out)
	observability.Current().OrderExpired(trigger)
	observability.Current().OrderTransition(string(types.OrderStatusCancelled), ActorSystem)
	s.notify(ctx, out, false)
	return true, nil
}

func (s *orderService) ExpireOverdue(ctx context.Context, trigger string) (int, error) {
	cutoff := s.now().Add(-s.cfg.PaymentTimeout)
	due, err := s.orderRepo.ListAwaitingPayment(dbctx.New(ctx), cutoff, expireBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list overdue orders: %w", err)
	}
	n := 0
	for _, o := range due {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		ok, err := s.ExpireUnpaid(ctx, o.ID, trigger)
		if err != nil {
			s.log.Warn("Failed to expire order", "order_id", o.ID, "error", err)
			continue
		}
		if ok {
			n++
		}
	}
	return n, nil
}
