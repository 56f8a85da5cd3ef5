package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/observability"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
	"github.com/yungbote/shopfront-backend/internal/platform/sendgrid"
)

const (
	templateOrderPlaced        = "order_placed"
	templateOrderStatusChanged = "order_status_changed"
)

// Notifier reports order events to the customer. Implementations never fail
// the caller.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *types.Order, user *types.User)
	OrderStatusChanged(ctx context.Context, order *types.Order, user *types.User)
}

type noopNotifier struct{}

func NewNoopNotifier() Notifier { return noopNotifier{} }

func (noopNotifier) OrderPlaced(context.Context, *types.Order, *types.User)        {}
func (noopNotifier) OrderStatusChanged(context.Context, *types.Order, *types.User) {}

type Mailer interface {
	Send(ctx context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error)
}

type emailNotifier struct {
	log     *logger.Logger
	mailer  Mailer
	async   bool
	timeout time.Duration
}

// NewEmailNotifier sends through mailer. With async set each email is sent on
// its own goroutine so request latency does not include the provider.
func NewEmailNotifier(log *logger.Logger, mailer Mailer, async bool) Notifier {
	if mailer == nil {
		return NewNoopNotifier()
	}
	return &emailNotifier{
		log:     log.With("service", "EmailNotifier"),
		mailer:  mailer,
		async:   async,
		timeout: 15 * time.Second,
	}
}

func (n *emailNotifier) OrderPlaced(ctx context.Context, order *types.Order, user *types.User) {
	if order == nil || user == nil || user.Email == "" {
		return
	}
	subject := fmt.Sprintf("Order %s received", order.Code)
	intro := fmt.Sprintf("Thank you for your order, %s. We have received order %s.", displayName(user), order.Code)
	n.dispatch(ctx, templateOrderPlaced, user, order, subject, intro)
}

func (n *emailNotifier) OrderStatusChanged(ctx context.Context, order *types.Order, user *types.User) {
	if order == nil || user == nil || user.Email == "" {
		return
	}
	subject := fmt.Sprintf("Order %s is now %s", order.Code, order.Status)
	intro := fmt.Sprintf("Hi %s, order %s is now %s.", displayName(user), order.Code, statusPhrase(order))
	n.dispatch(ctx, templateOrderStatusChanged, user, order, subject, intro)
}

func (n *emailNotifier) dispatch(ctx context.Context, template string, user *types.User, order *types.Order, subject, intro string) {
	req := sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: user.Email, Name: user.FullName()}},
		Subject:    subject,
		Text:       renderOrderText(intro, order),
		HTML:       renderOrderHTML(intro, order),
		Categories: []string{template},
		CustomArgs: map[string]string{"order_code": order.Code},
	}
	send := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()
		_, err := n.mailer.Send(ctx, req)
		observability.Current().EmailSent(template, err)
		if err != nil {
			n.log.Warn("Email send failed", "template", template, "order_code", order.Code, "error", err)
		}
	}
	if !n.async {
		send(ctx)
		return
	}
	go send(context.WithoutCancel(ctx))
}

func displayName(u *types.User) string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}

func statusPhrase(o *types.Order) string {
	switch o.Status {
	case types.OrderStatusCancelled:
		if o.CancelReason == types.CancelReasonPaymentTimeout {
			return "cancelled because payment was not completed in time"
		}
		if o.PaymentStatus == types.PaymentRefunded {
			return "cancelled; your payment will be refunded"
		}
		return "cancelled"
	case types.OrderStatusShipping:
		return "on its way"
	default:
		return string(o.Status)
	}
}

func formatVND(v int64) string {
	s := fmt.Sprintf("%d", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := b.String() + " ₫"
	if neg {
		return "-" + out
	}
	return out
}

func renderOrderText(intro string, o *types.Order) string {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d: %s\n", it.Name, it.Quantity, formatVND(it.Subtotal))
	}
	fmt.Fprintf(&b, "\nItems: %s\nShipping: %s\nTotal: %s\n", formatVND(o.ItemsPrice), formatVND(o.ShippingPrice), formatVND(o.TotalPrice))
	fmt.Fprintf(&b, "Payment: %s (%s)\n", o.PaymentMethod, o.PaymentStatus)
	return b.String()
}

func renderOrderHTML(intro string, o *types.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s</p><table>", html.EscapeString(intro))
	for _, it := range o.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>x%d</td><td>%s</td></tr>",
			html.EscapeString(it.Name), it.Quantity, formatVND(it.Subtotal))
	}
	fmt.Fprintf(&b, "</table><p>Items: %s<br>Shipping: %s<br><strong>Total: %s</strong></p>",
		formatVND(o.ItemsPrice), formatVND(o.ShippingPrice), formatVND(o.TotalPrice))
	return b.String()
}
