package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/shopfront-backend/internal/data/db"
	"github.com/yungbote/shopfront-backend/internal/platform/apierr"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrOutOfStock        = errors.New("out of stock")
	ErrInvalidTransition = errors.New("invalid order transition")
	ErrUnavailable       = errors.New("dependency unavailable")
)

// The helpers below attach both an HTTP mapping (apierr) and a sentinel, so
// callers can use either errors.Is or apierr.As.

func invalidArg(code, format string, args ...any) error {
	return apierr.New(http.StatusBadRequest, code, fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument))
}

func notFound(code, what string) error {
	return apierr.New(http.StatusNotFound, code, fmt.Errorf("%s: %w", what, ErrNotFound))
}

func conflict(code, format string, args ...any) error {
	return apierr.New(http.StatusConflict, code, fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict))
}

func outOfStock(name string) error {
	return apierr.New(http.StatusConflict, "out_of_stock", fmt.Errorf("%q: %w", name, ErrOutOfStock))
}

func invalidTransition(format string, args ...any) error {
	return apierr.New(http.StatusConflict, "invalid_transition", fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidTransition))
}

func unauthorized(code, msg string) error {
	return apierr.New(http.StatusUnauthorized, code, fmt.Errorf("%s: %w", msg, ErrUnauthorized))
}

func forbidden(code, msg string) error {
	return apierr.New(http.StatusForbidden, code, fmt.Errorf("%s: %w", msg, ErrForbidden))
}

func unavailable(code, msg string) error {
	return apierr.New(http.StatusServiceUnavailable, code, fmt.Errorf("%s: %w", msg, ErrUnavailable))
}

// storeConflict reports a unique-index violation as a 409 with code and a
// transient store failure as a 409 retry_later. Other errors are wrapped
// with op.
func storeConflict(err error, op, code, msg string) error {
	switch {
	case db.IsUniqueViolation(err):
		return conflict(code, "%s", msg)
	case db.IsRetryable(err):
		return conflict("retry_later", "%s: concurrent update, retry the request", op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
