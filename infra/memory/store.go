// Package memory is an in-process Ledger Store. Row locks are keyed mutexes
// that respect context deadlines; writes made inside a unit of work are kept
// in a private arena and applied all at once on commit, after the account
// versions they were based on are checked again.
package memory

import (
	"context"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
)

type numberKey struct {
	bank   string
	number string
}

type dayKey struct {
	accountID int64
	day       string
}

// Store holds committed ledger state.
type Store struct {
	mu       sync.RWMutex
	accounts map[int64]*account.Account
	byNumber map[numberKey]int64
	limits   map[dayKey]*account.DailyLimit
	journal  []*account.Transaction

	nextAccountID atomic.Int64
	nextTxID      atomic.Int64

	locks       *lockTable
	lockTimeout time.Duration
	logger      *slog.Logger
}

// New creates an empty Store. A positive lockTimeout bounds every lock wait
// in addition to the caller's context.
func New(lockTimeout time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		accounts:    make(map[int64]*account.Account),
		byNumber:    make(map[numberKey]int64),
		limits:      make(map[dayKey]*account.DailyLimit),
		locks:       newLockTable(),
		lockTimeout: lockTimeout,
		logger:      logger.With("store", "memory"),
	}
}

// Do runs fn in a new unit of work and commits its arena if fn succeeds.
func (s *Store) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	u := newUnit(s)
	defer u.releaseAll()

	if err := fn(u); err != nil {
		s.logger.Debug("unit of work rolled back", "error", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(u)
}

// GetRepository is only meaningful inside Do.
func (s *Store) GetRepository(repoType reflect.Type) (any, error) {
	return nil, errOutsideUnit
}

func (s *Store) AccountRepository() (repository.AccountRepository, error) {
	return nil, errOutsideUnit
}

func (s *Store) DailyLimitRepository() (repository.DailyLimitRepository, error) {
	return nil, errOutsideUnit
}

func (s *Store) TransactionRepository() (repository.TransactionRepository, error) {
	return nil, errOutsideUnit
}

// commit applies u's arena atomically or not at all.
func (s *Store) commit(u *unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range u.accounts {
		cur, ok := s.accounts[id]
		if !ok || cur.Version != p.base {
			return account.ErrVersionConflict
		}
	}
	for _, a := range u.created {
		if _, taken := s.byNumber[numberKey{a.BankCode, a.AccountNumber}]; taken {
			return account.ErrAccountExists
		}
	}

	for _, a := range u.created {
		s.accounts[a.ID] = a
		s.byNumber[numberKey{a.BankCode, a.AccountNumber}] = a.ID
	}
	for id, p := range u.accounts {
		s.accounts[id] = p.acc
	}
	for k, l := range u.limits {
		s.limits[k] = l
	}
	s.journal = append(s.journal, u.journal...)
	return nil
}

// DailyLimit returns the committed counter of an account for a day.
func (s *Store) DailyLimit(accountID int64, day string) (*account.DailyLimit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.limits[dayKey{accountID, day}]
	return l.Clone(), ok
}

// Transactions returns every committed transaction in ID order.
func (s *Store) Transactions() []*account.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*account.Transaction, 0, len(s.journal))
	for _, tx := range s.journal {
		out = append(out, tx.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ repository.UnitOfWork = (*Store)(nil)
