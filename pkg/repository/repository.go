package repository

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain/account"
)

// AccountRepository stores accounts. Within a unit of work, Lock blocks
// until the caller holds the account exclusively for the rest of the unit.
type AccountRepository interface {
	// Find resolves an account by bank code and normalized number without
	// locking it. Returns account.ErrAccountNotFound when absent.
	Find(ctx context.Context, bankCode, accountNumber string) (*account.Account, error)
	// Get reads an account by id without locking it.
	Get(ctx context.Context, id int64) (*account.Account, error)
	// Lock takes the exclusive row lock and returns the current state.
	// Returns account.ErrLockTimeout when the wait is abandoned.
	Lock(ctx context.Context, id int64) (*account.Account, error)
	// Save writes a back only if nobody saved it since it was read, then
	// bumps a.Version. Returns account.ErrVersionConflict otherwise.
	Save(ctx context.Context, a *account.Account) error
	// Create inserts a new account and assigns its ID.
	// Returns account.ErrAccountExists on a duplicate bank code and number.
	Create(ctx context.Context, a *account.Account) error
}

// DailyLimitRepository stores per-account, per-day limit counters.
type DailyLimitRepository interface {
	// Lock takes the exclusive lock on the (accountID, day) counter,
	// creating a zeroed counter if absent, and returns its current state.
	Lock(ctx context.Context, accountID int64, day string) (*account.DailyLimit, error)
	// Save writes the counter back.
	Save(ctx context.Context, l *account.DailyLimit) error
}

// TransactionRepository is the append-only transaction journal.
type TransactionRepository interface {
	// Append persists tx and assigns its ID.
	Append(ctx context.Context, tx *account.Transaction) error
	// ListByAccount returns up to limit records of an account, newest first.
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]*account.Transaction, error)
}
