package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(lockTimeout time.Duration) *Store {
	return New(lockTimeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seed(t *testing.T, s *Store, number string, balance int64) *account.Account {
	t.Helper()
	acc, err := account.New().
		WithBankCode("088").
		WithAccountNumber(number).
		WithBalance(decimal.NewFromInt(balance)).
		Build()
	require.NoError(t, err)
	err = s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		return repo.Create(context.Background(), acc)
	})
	require.NoError(t, err)
	return acc
}

func get(t *testing.T, s *Store, id int64) *account.Account {
	t.Helper()
	var acc *account.Account
	err := s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acc, err = repo.Get(context.Background(), id)
		return err
	})
	require.NoError(t, err)
	return acc
}

func TestStore_RepositoriesOnlyInsideDo(t *testing.T) {
	s := newTestStore(0)
	_, err := s.AccountRepository()
	assert.ErrorIs(t, err, errOutsideUnit)
	_, err = s.GetRepository(repository.AccountRepositoryType)
	assert.ErrorIs(t, err, errOutsideUnit)
}

func TestStore_CreateAndFind(t *testing.T) {
	require := require.New(t)
	s := newTestStore(0)
	a := seed(t, s, "110-123-4567", 0)
	b := seed(t, s, "110-999-0000", 0)
	assert.NotEqual(t, a.ID, b.ID)

	err := s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		require.NoError(err)

		found, err := repo.Find(context.Background(), "088", "1101234567")
		require.NoError(err)
		assert.Equal(t, a.ID, found.ID)
		assert.Equal(t, "110-123-4567", found.DisplayNumber)

		_, err = repo.Find(context.Background(), "004", "1101234567")
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
		return nil
	})
	require.NoError(err)
}

func TestStore_CreateDuplicate(t *testing.T) {
	s := newTestStore(0)
	seed(t, s, "1234", 0)

	dup, err := account.New().WithBankCode("088").WithAccountNumber("12-34").Build()
	require.NoError(t, err)
	err = s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		repo, _ := uow.AccountRepository()
		return repo.Create(context.Background(), dup)
	})
	assert.ErrorIs(t, err, account.ErrAccountExists)
}

func TestStore_RollbackDiscardsArenaAndReleasesLocks(t *testing.T) {
	s := newTestStore(50 * time.Millisecond)
	acc := seed(t, s, "1", 100)
	boom := errors.New("boom")

	err := s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		accounts, _ := uow.AccountRepository()
		limits, _ := uow.DailyLimitRepository()
		journal, _ := uow.TransactionRepository()

		l, err := limits.Lock(context.Background(), acc.ID, "2024-03-01")
		require.NoError(t, err)
		_, err = l.AddWithdrawUsed(decimal.NewFromInt(40))
		require.NoError(t, err)
		require.NoError(t, limits.Save(context.Background(), l))

		locked, err := accounts.Lock(context.Background(), acc.ID)
		require.NoError(t, err)
		require.NoError(t, locked.Withdraw(decimal.NewFromInt(40)))
		require.NoError(t, accounts.Save(context.Background(), locked))
		require.NoError(t, journal.Append(context.Background(), account.NewWithdrawal(locked, decimal.NewFromInt(40), "", time.Now())))
		return boom
	})
	require.ErrorIs(t, err, boom)

	after := get(t, s, acc.ID)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(100)))
	assert.Zero(t, after.Version)
	_, ok := s.DailyLimit(acc.ID, "2024-03-01")
	assert.False(t, ok)
	assert.Empty(t, s.Transactions())

	// locks were released: a new unit can take them without waiting
	err = s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		limits, _ := uow.DailyLimitRepository()
		if _, err := limits.Lock(context.Background(), acc.ID, "2024-03-01"); err != nil {
			return err
		}
		accounts, _ := uow.AccountRepository()
		_, err := accounts.Lock(context.Background(), acc.ID)
		return err
	})
	assert.NoError(t, err)
}

func TestStore_CommitAppliesEverything(t *testing.T) {
	s := newTestStore(0)
	acc := seed(t, s, "1", 100)

	err := s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		accounts, _ := uow.AccountRepository()
		limits, _ := uow.DailyLimitRepository()
		journal, _ := uow.TransactionRepository()

		l, err := limits.Lock(context.Background(), acc.ID, "2024-03-01")
		if err != nil {
			return err
		}
		if _, err := l.AddWithdrawUsed(decimal.NewFromInt(30)); err != nil {
			return err
		}
		if err := limits.Save(context.Background(), l); err != nil {
			return err
		}
		locked, err := accounts.Lock(context.Background(), acc.ID)
		if err != nil {
			return err
		}
		if err := locked.Withdraw(decimal.NewFromInt(30)); err != nil {
			return err
		}
		if err := accounts.Save(context.Background(), locked); err != nil {
			return err
		}
		assert.Equal(t, int64(1), locked.Version)

		// read-your-writes inside the unit
		again, err := accounts.Get(context.Background(), acc.ID)
		require.NoError(t, err)
		assert.True(t, again.Balance.Equal(decimal.NewFromInt(70)))

		return journal.Append(context.Background(), account.NewWithdrawal(locked, decimal.NewFromInt(30), "atm", time.Now()))
	})
	require.NoError(t, err)

	after := get(t, s, acc.ID)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, int64(1), after.Version)

	l, ok := s.DailyLimit(acc.ID, "2024-03-01")
	require.True(t, ok)
	assert.True(t, l.WithdrawUsed.Equal(decimal.NewFromInt(30)))

	txs := s.Transactions()
	require.Len(t, txs, 1)
	assert.Positive(t, txs[0].ID)
}

func TestStore_SaveStaleVersion(t *testing.T) {
	s := newTestStore(0)
	acc := seed(t, s, "1", 100)

	err := s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		accounts, _ := uow.AccountRepository()
		stale, err := accounts.Get(context.Background(), acc.ID)
		require.NoError(t, err)

		// another writer commits first
		require.NoError(t, s.Do(context.Background(), func(other repository.UnitOfWork) error {
			repo, _ := other.AccountRepository()
			a, err := repo.Lock(context.Background(), acc.ID)
			if err != nil {
				return err
			}
			if err := a.Deposit(decimal.NewFromInt(1)); err != nil {
				return err
			}
			return repo.Save(context.Background(), a)
		}))

		require.NoError(t, stale.Deposit(decimal.NewFromInt(5)))
		return accounts.Save(context.Background(), stale)
	})
	assert.ErrorIs(t, err, account.ErrVersionConflict)
	assert.True(t, get(t, s, acc.ID).Balance.Equal(decimal.NewFromInt(101)))
}

func TestStore_CommitTimeConflict(t *testing.T) {
	s := newTestStore(0)
	acc := seed(t, s, "1", 100)

	err := s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		accounts, _ := uow.AccountRepository()
		a, err := accounts.Get(context.Background(), acc.ID)
		require.NoError(t, err)
		require.NoError(t, a.Deposit(decimal.NewFromInt(5)))
		require.NoError(t, accounts.Save(context.Background(), a))

		return s.Do(context.Background(), func(other repository.UnitOfWork) error {
			repo, _ := other.AccountRepository()
			b, err := repo.Get(context.Background(), acc.ID)
			if err != nil {
				return err
			}
			if err := b.Deposit(decimal.NewFromInt(1)); err != nil {
				return err
			}
			return repo.Save(context.Background(), b)
		})
	})
	assert.ErrorIs(t, err, account.ErrVersionConflict)
	assert.True(t, get(t, s, acc.ID).Balance.Equal(decimal.NewFromInt(101)))
}

func TestStore_LockTimeout(t *testing.T) {
	s := newTestStore(30 * time.Millisecond)
	acc := seed(t, s, "1", 100)

	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Do(context.Background(), func(uow repository.UnitOfWork) error {
			repo, _ := uow.AccountRepository()
			if _, err := repo.Lock(context.Background(), acc.ID); err != nil {
				return err
			}
			close(holding)
			time.Sleep(200 * time.Millisecond)
			return nil
		})
	}()
	<-holding

	start := time.Now()
	err := s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		repo, _ := uow.AccountRepository()
		_, err := repo.Lock(context.Background(), acc.ID)
		return err
	})
	assert.ErrorIs(t, err, account.ErrLockTimeout)
	assert.True(t, account.IsRetryable(err))
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	<-done
	assert.Zero(t, s.locks.size(), "timed out waiter and holder leave no slot behind")
}

func TestStore_LockTableForgetsReleasedKeys(t *testing.T) {
	s := newTestStore(time.Second)
	acc := seed(t, s, "1", 100)

	for day := 1; day <= 30; day++ {
		err := s.Do(context.Background(), func(uow repository.UnitOfWork) error {
			limits, _ := uow.DailyLimitRepository()
			if _, err := limits.Lock(context.Background(), acc.ID, fmt.Sprintf("2024-03-%02d", day)); err != nil {
				return err
			}
			accounts, _ := uow.AccountRepository()
			_, err := accounts.Lock(context.Background(), acc.ID)
			return err
		})
		require.NoError(t, err)
	}
	assert.Zero(t, s.locks.size())
}

func TestStore_LockHonoursContext(t *testing.T) {
	s := newTestStore(0)
	acc := seed(t, s, "1", 100)

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Do(context.Background(), func(uow repository.UnitOfWork) error {
			repo, _ := uow.AccountRepository()
			if _, err := repo.Lock(context.Background(), acc.ID); err != nil {
				return err
			}
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, _ := uow.AccountRepository()
		_, err := repo.Lock(ctx, acc.ID)
		return err
	})
	assert.ErrorIs(t, err, account.ErrLockTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
	<-done
}

func TestStore_ListByAccountNewestFirst(t *testing.T) {
	s := newTestStore(0)
	a := seed(t, s, "1", 0)
	b := seed(t, s, "2", 0)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Do(context.Background(), func(uow repository.UnitOfWork) error {
			journal, _ := uow.TransactionRepository()
			if err := journal.Append(context.Background(), account.NewDeposit(a, decimal.NewFromInt(int64(i)), "", time.Now())); err != nil {
				return err
			}
			return journal.Append(context.Background(), account.NewDeposit(b, decimal.NewFromInt(1), "", time.Now()))
		}))
	}

	var txs []*account.Transaction
	require.NoError(t, s.Do(context.Background(), func(uow repository.UnitOfWork) error {
		journal, _ := uow.TransactionRepository()
		var err error
		txs, err = journal.ListByAccount(context.Background(), a.ID, 2)
		return err
	}))
	require.Len(t, txs, 2)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(3)))
	assert.True(t, txs[1].Amount.Equal(decimal.NewFromInt(2)))
	assert.Greater(t, txs[0].ID, txs[1].ID)
}
