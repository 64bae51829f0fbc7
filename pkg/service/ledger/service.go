// Package ledger implements the mutating operations of the ledger: deposits,
// withdrawals, transfers, and account opening and closing.
//
// Every operation runs as exactly one unit of work. Locks are always taken in
// the same global order: the caller's DailyLimit row first, then Account rows
// in ascending ID order. Any error aborts the unit of work, so a failed attempt
// leaves balances, limit counters and the journal as they were. Lost races
// (account.ErrVersionConflict, account.ErrLockTimeout) are returned to the
// caller untouched; use RetryOnConflict to re-run a whole operation.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/shopspring/decimal"
)

// Service runs ledger operations against a unit of work.
type Service struct {
	uow           repository.UnitOfWork
	bus           eventbus.Publisher
	logger        *slog.Logger
	loc           *time.Location
	now           func() time.Time
	withdrawLimit decimal.Decimal
	transferLimit decimal.Decimal
}

// Option customizes a Service.
type Option func(*Service)

// WithLocation sets the time zone that decides where a calendar day starts
// for daily limits. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLimits overrides the daily ceilings. Non-positive values keep the defaults.
func WithLimits(withdraw, transfer decimal.Decimal) Option {
	return func(s *Service) {
		if withdraw.IsPositive() {
			s.withdrawLimit = withdraw
		}
		if transfer.IsPositive() {
			s.transferLimit = transfer
		}
	}
}

// New creates a Service. bus may be nil, in which case nothing is published.
func New(uow repository.UnitOfWork, bus eventbus.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		uow:           uow,
		bus:           bus,
		logger:        logger.With("service", "ledger"),
		loc:           time.UTC,
		now:           time.Now,
		withdrawLimit: account.DailyWithdrawLimit,
		transferLimit: account.DailyTransferLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type repos struct {
	accounts     repository.AccountRepository
	limits       repository.DailyLimitRepository
	transactions repository.TransactionRepository
}

func reposOf(uow repository.UnitOfWork) (r repos, err error) {
	if r.accounts, err = uow.AccountRepository(); err != nil {
		return
	}
	if r.limits, err = uow.DailyLimitRepository(); err != nil {
		return
	}
	r.transactions, err = uow.TransactionRepository()
	return
}

// stage tracks how far an attempt got, for diagnostics of aborted attempts.
type stage string

const (
	stageStarted        stage = "started"
	stageLimitReserved  stage = "limit_reserved"
	stageAccountsLocked stage = "accounts_locked"
	stageMutated        stage = "mutated"
	stageCommitted      stage = "committed"
)

// abort logs a failed attempt at a level matching how surprising it is.
func (s *Service) abort(logger *slog.Logger, at stage, err error) {
	switch {
	case errors.Is(err, account.ErrLedgerInconsistent):
		logger.Error("ledger inconsistency, attempt aborted", "stage", at, "error", err)
	case account.IsRetryable(err):
		logger.Warn("attempt lost a race and was aborted", "stage", at, "error", err)
	case isBusinessError(err):
		logger.Info("attempt rejected", "stage", at, "error", err)
	default:
		logger.Error("attempt failed", "stage", at, "error", err)
	}
}

func isBusinessError(err error) bool {
	for _, target := range []error{
		account.ErrAccountNotFound,
		account.ErrTargetAccountNotFound,
		account.ErrInactiveAccount,
		account.ErrInvalidAmount,
		account.ErrInsufficientBalance,
		account.ErrSameAccountTransfer,
		account.ErrDailyWithdrawLimitExceeded,
		account.ErrDailyTransferLimitExceeded,
		account.ErrAlreadyDeactivated,
		account.ErrAccountHasBalance,
		account.ErrAccountExists,
		account.ErrInvalidBankCode,
		account.ErrInvalidAccountNumber,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// publish announces committed transactions. The commit is authoritative, so
// a failing bus is logged and otherwise ignored.
func (s *Service) publish(ctx context.Context, txs ...*account.Transaction) {
	if s.bus == nil {
		return
	}
	for _, tx := range txs {
		if err := s.bus.Emit(ctx, account.NewTransactionRecorded(tx)); err != nil {
			s.logger.Error("failed to publish transaction", "transaction_id", tx.ID, "kind", tx.Kind, "error", err)
		}
	}
}
