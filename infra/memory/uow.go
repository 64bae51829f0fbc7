package memory

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
)

var errOutsideUnit = errors.New("memory store: repositories are only available inside Do")

type pendingAccount struct {
	base int64 // committed version the first staged write was based on
	acc  *account.Account
}

// unit is one unit of work: the locks it holds plus its private arena of
// writes. Nothing in the arena is visible to other units before commit.
type unit struct {
	store *Store

	held    []string
	heldSet map[string]struct{}

	accounts map[int64]*pendingAccount
	created  []*account.Account
	limits   map[dayKey]*account.DailyLimit
	journal  []*account.Transaction

	repoRegistry map[reflect.Type]func(*unit) any
}

func newUnit(s *Store) *unit {
	return &unit{
		store:    s,
		heldSet:  make(map[string]struct{}),
		accounts: make(map[int64]*pendingAccount),
		limits:   make(map[dayKey]*account.DailyLimit),
		repoRegistry: map[reflect.Type]func(*unit) any{
			repository.AccountRepositoryType:     func(u *unit) any { return &accountRepository{u: u} },
			repository.DailyLimitRepositoryType:  func(u *unit) any { return &dailyLimitRepository{u: u} },
			repository.TransactionRepositoryType: func(u *unit) any { return &transactionRepository{u: u} },
		},
	}
}

// Do joins the running unit of work.
func (u *unit) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return fn(u)
}

func (u *unit) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u), nil
}

func (u *unit) AccountRepository() (repository.AccountRepository, error) {
	repoAny, err := u.GetRepository(repository.AccountRepositoryType)
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.AccountRepository), nil
}

func (u *unit) DailyLimitRepository() (repository.DailyLimitRepository, error) {
	repoAny, err := u.GetRepository(repository.DailyLimitRepositoryType)
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.DailyLimitRepository), nil
}

func (u *unit) TransactionRepository() (repository.TransactionRepository, error) {
	repoAny, err := u.GetRepository(repository.TransactionRepositoryType)
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.TransactionRepository), nil
}

// lock acquires key once per unit; re-locking a held key is a no-op.
func (u *unit) lock(ctx context.Context, key string) error {
	if _, ok := u.heldSet[key]; ok {
		return nil
	}
	if err := u.store.locks.acquire(ctx, key, u.store.lockTimeout); err != nil {
		return err
	}
	u.heldSet[key] = struct{}{}
	u.held = append(u.held, key)
	return nil
}

// releaseAll frees held locks in reverse acquisition order.
func (u *unit) releaseAll() {
	for i := len(u.held) - 1; i >= 0; i-- {
		u.store.locks.release(u.held[i])
	}
	u.held = nil
	clear(u.heldSet)
}

// account returns the unit's view of an account: its own staged or created
// copy if any, else the committed one.
func (u *unit) account(id int64) (*account.Account, bool) {
	if p, ok := u.accounts[id]; ok {
		return p.acc, true
	}
	for _, a := range u.created {
		if a.ID == id {
			return a, true
		}
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	a, ok := u.store.accounts[id]
	return a, ok
}

func (u *unit) accountIDByNumber(bank, number string) (int64, bool) {
	for _, a := range u.created {
		if a.BankCode == bank && a.AccountNumber == number {
			return a.ID, true
		}
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	id, ok := u.store.byNumber[numberKey{bank, number}]
	return id, ok
}

var _ repository.UnitOfWork = (*unit)(nil)
