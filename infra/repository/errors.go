package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the ledger reacts to.
const (
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// MapGormErrorToDomain converts GORM and Postgres errors to ledger errors so
// callers can tell lost races apart from real failures. Unknown errors are
// returned unchanged.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgQueryCanceled:
			return fmt.Errorf("%w: %s", account.ErrLockTimeout, pgErr.Message)
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %s", account.ErrVersionConflict, pgErr.Message)
		case pgUniqueViolation:
			return account.ErrAccountExists
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// the caller stopped waiting, which the memory store reports the same way
		return fmt.Errorf("%w: %w", account.ErrLockTimeout, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return account.ErrAccountExists
	case errors.Is(err, gorm.ErrRecordNotFound):
		return account.ErrAccountNotFound
	}
	return err
}

// WrapError runs a GORM operation and maps its error.
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
