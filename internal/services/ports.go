package services

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/gcp"
	"github.com/yungbote/shopfront-backend/internal/platform/mongolog"
	"github.com/yungbote/shopfront-backend/internal/platform/vnpay"
)

// Collaborators owned by other packages. Each is optional: a nil value turns
// the related feature off (or into a 503 where a request depends on it).

type CatalogCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
	Generation(ctx context.Context, scope string) (int64, error)
	Bump(ctx context.Context, scope string) error
}

type PaymentGateway interface {
	PaymentURL(req vnpay.PaymentRequest) (string, error)
	Verify(params url.Values) bool
}

type PaymentEventLog interface {
	Append(ctx context.Context, evt mongolog.PaymentEvent) error
}

// PaymentTimeoutScheduler arranges for ExpireUnpaid to run once the payment
// window of an order has elapsed.
type PaymentTimeoutScheduler interface {
	SchedulePaymentTimeout(ctx context.Context, orderID uuid.UUID, orderCode string, after time.Duration) error
}

type ObjectStore interface {
	UploadFile(dbc dbctx.Context, category gcp.BucketCategory, key, contentType string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, category gcp.BucketCategory, key string) error
	GetPublicURL(category gcp.BucketCategory, key string) string
}
