package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrUniqueViolation marks an insert or update rejected by a unique index.
	ErrUniqueViolation = errors.New("unique violation")
	// ErrRetryable marks a transient failure the caller may retry.
	ErrRetryable = errors.New("retryable database failure")
)

// MapError tags driver errors with ErrUniqueViolation or ErrRetryable so
// services can branch with errors.Is. The original error stays in the chain.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUniqueViolation) || errors.Is(err, ErrRetryable) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return fmt.Errorf("%w: %w", ErrUniqueViolation, err) // unique_violation
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %w", ErrRetryable, err) // serialization/deadlock/lock_not_available
		}
		return err
	}

	// sqlite reports constraint failures only through the message.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed"), strings.Contains(msg, "duplicate key"):
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "deadlock"):
		return fmt.Errorf("%w: %w", ErrRetryable, err)
	}
	return err
}

func IsUniqueViolation(err error) bool { return errors.Is(MapError(err), ErrUniqueViolation) }

func IsRetryable(err error) bool { return errors.Is(MapError(err), ErrRetryable) }
