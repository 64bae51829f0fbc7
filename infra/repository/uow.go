package repository

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/amirasaad/ledger/pkg/repository"
	"gorm.io/gorm"
)

// UoW runs ledger units of work as Postgres transactions. Repositories
// handed out inside Do share the transaction's session.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	lockTimeout  time.Duration
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for db. A positive lockTimeout is applied to
// every transaction with SET LOCAL lock_timeout.
func NewUoW(db *gorm.DB, lockTimeout time.Duration) *UoW {
	return &UoW{
		db:          db,
		lockTimeout: lockTimeout,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			repository.AccountRepositoryType:     func(db *gorm.DB) any { return NewAccountRepository(db) },
			repository.DailyLimitRepositoryType:  func(db *gorm.DB) any { return NewDailyLimitRepository(db) },
			repository.TransactionRepositoryType: func(db *gorm.DB) any { return NewTransactionRepository(db) },
		},
	}
}

// Do runs fn in a transaction. Returning an error from fn rolls everything
// back; a failed commit is mapped like any other database error.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&UoW{db: u.db, tx: tx, lockTimeout: u.lockTimeout, repoRegistry: u.repoRegistry})
	})
	return MapGormErrorToDomain(err)
}

// GetRepository returns a repository bound to the running transaction, or
// to the plain connection outside Do.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	session := u.tx
	if session == nil {
		session = u.db
	}
	return constructor(session), nil
}

func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	repoAny, err := u.GetRepository(repository.AccountRepositoryType)
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.AccountRepository), nil
}

func (u *UoW) DailyLimitRepository() (repository.DailyLimitRepository, error) {
	repoAny, err := u.GetRepository(repository.DailyLimitRepositoryType)
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.DailyLimitRepository), nil
}

func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	repoAny, err := u.GetRepository(repository.TransactionRepositoryType)
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.TransactionRepository), nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
