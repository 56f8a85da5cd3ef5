package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/shopfront-backend/internal/data/repos"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/observability"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
	"github.com/yungbote/shopfront-backend/internal/platform/mongolog"
	"github.com/yungbote/shopfront-backend/internal/platform/vnpay"
)

const providerVNPay = "vnpay"

// Callback outcomes, used for metrics and the payment event log.
const (
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeNotFound         = "not_found"
	OutcomeInvalidAmount    = "invalid_amount"
	OutcomeDuplicate        = "duplicate"
	OutcomePaid             = "paid"
	OutcomeFailed           = "failed"
	OutcomeLateSuccess      = "late_success"
	OutcomeError            = "error"
)

type ReturnResult struct {
	Success      bool      `json:"success"`
	OrderID      uuid.UUID `json:"order_id"`
	OrderCode    string    `json:"order_code"`
	ResponseCode string    `json:"response_code"`
	Message      string    `json:"message"`
}

type PaymentService interface {
	// HandleReturn processes the browser redirect back from the gateway.
	HandleReturn(ctx context.Context, params url.Values) (*ReturnResult, error)
	// HandleIPN processes the server-to-server notification. It never fails;
	// every problem maps to an RspCode.
	HandleIPN(ctx context.Context, params url.Values) vnpay.IPNResponse
}

type paymentService struct {
	db          *gorm.DB
	log         *logger.Logger
	orderRepo   repos.OrderRepo
	paymentRepo repos.PaymentRepo
	userRepo    repos.UserRepo
	gateway     PaymentGateway
	events      PaymentEventLog
	notifier    Notifier
	now         func() time.Time
}

func NewPaymentService(
	db *gorm.DB,
	log *logger.Logger,
	orderRepo repos.OrderRepo,
	paymentRepo repos.PaymentRepo,
	userRepo repos.UserRepo,
	gateway PaymentGateway,
	events PaymentEventLog,
	notifier Notifier,
) PaymentService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	return &paymentService{
		db:          db,
		log:         log.With("service", "PaymentService"),
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		events:      events,
		notifier:    notifier,
		now:         time.Now,
	}
}

type processed struct {
	rspCode string
	outcome string
	result  vnpay.Result
	payment *types.Payment
	order   *types.Order
}

func (ps *paymentService) HandleReturn(ctx context.Context, params url.Values) (*ReturnResult, error) {
	p, err := ps.process(ctx, mongolog.SourceReturn, params)
	if err != nil {
		return nil, err
	}
	switch p.rspCode {
	case vnpay.RspInvalidSignature:
		return nil, invalidArg("invalid_signature", "payment signature mismatch")
	case vnpay.RspOrderNotFound:
		return nil, notFound("order_not_found", "no order for this payment")
	case vnpay.RspInvalidAmount:
		return nil, invalidArg("invalid_amount", "payment amount does not match the order")
	}
	msg := vnpay.ResponseMessage(p.result.ResponseCode)
	if p.outcome == OutcomeLateSuccess {
		msg = "The order was cancelled before payment completed; the amount will be refunded"
	}
	return &ReturnResult{
		Success:      p.result.Success() && p.order.PaymentStatus == types.PaymentPaid,
		OrderID:      p.order.ID,
		OrderCode:    p.order.Code,
		ResponseCode: p.result.ResponseCode,
		Message:      msg,
	}, nil
}

func (ps *paymentService) HandleIPN(ctx context.Context, params url.Values) vnpay.IPNResponse {
	p, err := ps.process(ctx, mongolog.SourceIPN, params)
	if err != nil {
		ps.log.Error("IPN processing failed", "txn_ref", params.Get("vnp_TxnRef"), "error", err)
		return vnpay.NewIPNResponse(vnpay.RspUnknownError)
	}
	return vnpay.NewIPNResponse(p.rspCode)
}

func (ps *paymentService) process(ctx context.Context, source string, params url.Values) (p processed, err error) {
	ctx, span := observability.StartSpan(ctx, "payment.callback",
		attribute.String("source", source),
		attribute.String("txn_ref", params.Get("vnp_TxnRef")),
	)
	defer span.End()

	p.result = vnpay.ParseResult(params)
	valid := ps.gateway != nil && ps.gateway.Verify(params)
	defer func() {
		outcome := p.outcome
		if err != nil {
			outcome = OutcomeError
			span.RecordError(err)
		}
		observability.Current().PaymentCallback(providerVNPay, source, outcome)
		ps.record(ctx, source, valid, outcome, p)
	}()

	if !valid {
		p.rspCode, p.outcome = vnpay.RspInvalidSignature, OutcomeInvalidSignature
		ps.log.Warn("Payment callback with invalid signature", "source", source, "txn_ref", p.result.TxnRef)
		return p, nil
	}

	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		return ps.apply(dbc, &p)
	})
	if err != nil {
		return p, err
	}

	switch p.outcome {
	case OutcomePaid:
		ps.log.Info("Order paid", "order_id", p.order.ID, "txn_ref", p.payment.TxnRef, "source", source)
		observability.Current().OrderTransition(string(p.order.Status), ActorPayment)
		ps.notify(ctx, p.order)
	case OutcomeFailed:
		ps.log.Info("Payment failed", "order_id", p.order.ID, "txn_ref", p.payment.TxnRef, "response_code", p.result.ResponseCode)
	case OutcomeLateSuccess:
		ps.log.Error("Payment succeeded for a cancelled order, refund manually",
			"order_id", p.order.ID, "code", p.order.Code, "txn_ref", p.payment.TxnRef, "amount", p.payment.Amount)
	}
	return p, nil
}

// apply runs inside the callback transaction. Payment rows move out of
// pending exactly once; repeats fall through to RspAlreadyConfirmed.
func (ps *paymentService) apply(dbc dbctx.Context, p *processed) error {
	payment, err := ps.paymentRepo.GetByTxnRef(dbc, p.result.TxnRef)
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		p.rspCode, p.outcome = vnpay.RspOrderNotFound, OutcomeNotFound
		return nil
	}
	order, err := ps.orderRepo.GetByID(dbc, payment.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		p.rspCode, p.outcome = vnpay.RspOrderNotFound, OutcomeNotFound
		return nil
	}
	p.payment, p.order = payment, order

	if p.result.Amount != payment.Amount {
		p.rspCode, p.outcome = vnpay.RspInvalidAmount, OutcomeInvalidAmount
		return nil
	}
	if payment.Status != types.PaymentStatePending {
		p.rspCode, p.outcome = vnpay.RspAlreadyConfirmed, OutcomeDuplicate
		return nil
	}

	next := types.PaymentStateFailed
	if p.result.Success() {
		next = types.PaymentStateSucceeded
	}
	ok, err := ps.paymentRepo.UpdateIfStatus(dbc, payment.ID, types.PaymentStatePending, map[string]any{
		"status":             next,
		"transaction_no":     p.result.TransactionNo,
		"response_code":      p.result.ResponseCode,
		"transaction_status": p.result.TransactionStatus,
		"bank_code":          p.result.BankCode,
		"pay_date":           p.result.PayDate,
		"raw_params":         datatypes.NewJSONType(p.result.Raw),
	})
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if !ok {
		p.rspCode, p.outcome = vnpay.RspAlreadyConfirmed, OutcomeDuplicate
		return nil
	}
	payment.Status = next
	p.rspCode = vnpay.RspConfirmSuccess

	if next == types.PaymentStateFailed {
		p.outcome = OutcomeFailed
		// A failure on a superseded attempt must not touch the order.
		if order.PaymentTxnRef != payment.TxnRef || !order.AwaitingPayment() {
			return nil
		}
		ok, err := ps.orderRepo.UpdateGuarded(dbc, order.ID, repos.OrderGuard{
			Statuses:        []types.OrderStatus{types.OrderStatusPending},
			PaymentStatuses: []types.PaymentStatus{types.PaymentUnpaid},
		}, map[string]any{"payment_status": types.PaymentFailed})
		if err != nil {
			return fmt.Errorf("mark order payment failed: %w", err)
		}
		if ok {
			order.PaymentStatus = types.PaymentFailed
		}
		return nil
	}

	if order.Status == types.OrderStatusCancelled {
		p.outcome = OutcomeLateSuccess
		return nil
	}
	if order.PaymentStatus == types.PaymentPaid {
		// Another attempt already paid this order.
		p.outcome = OutcomeDuplicate
		return nil
	}

	now := ps.now().UTC()
	updates := map[string]any{
		"payment_status":  types.PaymentPaid,
		"paid_at":         now,
		"payment_txn_ref": payment.TxnRef,
	}
	if order.Status == types.OrderStatusPending {
		updates["status"] = types.OrderStatusConfirmed
		updates["confirmed_at"] = now
	}
	ok, err = ps.orderRepo.UpdateGuarded(dbc, order.ID, repos.OrderGuard{
		Statuses:        []types.OrderStatus{order.Status},
		PaymentStatuses: []types.PaymentStatus{types.PaymentUnpaid, types.PaymentFailed},
	}, updates)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if !ok {
		return errors.New("order changed while applying payment")
	}
	order.PaymentStatus = types.PaymentPaid
	order.PaidAt = &now
	order.PaymentTxnRef = payment.TxnRef
	if order.Status == types.OrderStatusPending {
		order.Status = types.OrderStatusConfirmed
		order.ConfirmedAt = &now
	}
	p.outcome = OutcomePaid
	return nil
}

func (ps *paymentService) record(ctx context.Context, source string, valid bool, outcome string, p processed) {
	if ps.events == nil {
		return
	}
	evt := mongolog.PaymentEvent{
		Source:       source,
		TxnRef:       p.result.TxnRef,
		Amount:       p.result.Amount,
		ResponseCode: p.result.ResponseCode,
		Outcome:      outcome,
		ValidSig:     valid,
		Params:       p.result.Raw,
		Timestamp:    ps.now().UTC(),
	}
	if p.order != nil {
		evt.OrderID = p.order.ID.String()
		evt.OrderCode = p.order.Code
	}
	if err := ps.events.Append(context.WithoutCancel(ctx), evt); err != nil {
		ps.log.Warn("Failed to append payment event", "txn_ref", evt.TxnRef, "error", err)
	}
}

func (ps *paymentService) notify(ctx context.Context, order *types.Order) {
	users, err := ps.userRepo.GetByIDs(dbctx.New(ctx), []uuid.UUID{order.UserID})
	if err != nil || len(users) == 0 {
		ps.log.Warn("Skipping payment notification, user not loaded", "order_id", order.ID, "error", err)
		return
	}
	ps.notifier.OrderStatusChanged(ctx, order, users[0])
}
