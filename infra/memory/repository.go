package memory

import (
	"context"
	"sort"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
)

type accountRepository struct {
	u *unit
}

func (r *accountRepository) Find(ctx context.Context, bankCode, accountNumber string) (*account.Account, error) {
	id, ok := r.u.accountIDByNumber(bankCode, accountNumber)
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return r.Get(ctx, id)
}

func (r *accountRepository) Get(_ context.Context, id int64) (*account.Account, error) {
	a, ok := r.u.account(id)
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (r *accountRepository) Lock(ctx context.Context, id int64) (*account.Account, error) {
	if err := r.u.lock(ctx, accountKey(id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *accountRepository) Save(_ context.Context, a *account.Account) error {
	cur, ok := r.u.account(a.ID)
	if !ok {
		return account.ErrAccountNotFound
	}
	if cur.Version != a.Version {
		return account.ErrVersionConflict
	}
	next := a.Clone()
	next.Version++
	next.UpdatedAt = time.Now().UTC()

	for i, c := range r.u.created {
		if c.ID == a.ID {
			r.u.created[i] = next
			a.Version, a.UpdatedAt = next.Version, next.UpdatedAt
			return nil
		}
	}
	if p, staged := r.u.accounts[a.ID]; staged {
		p.acc = next
	} else {
		r.u.accounts[a.ID] = &pendingAccount{base: cur.Version, acc: next}
	}
	a.Version, a.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (r *accountRepository) Create(_ context.Context, a *account.Account) error {
	if _, taken := r.u.accountIDByNumber(a.BankCode, a.AccountNumber); taken {
		return account.ErrAccountExists
	}
	a.ID = r.u.store.nextAccountID.Add(1)
	a.Version = 0
	r.u.created = append(r.u.created, a.Clone())
	return nil
}

type dailyLimitRepository struct {
	u *unit
}

func (r *dailyLimitRepository) Lock(ctx context.Context, accountID int64, day string) (*account.DailyLimit, error) {
	if err := r.u.lock(ctx, limitKey(accountID, day)); err != nil {
		return nil, err
	}
	k := dayKey{accountID, day}
	if l, ok := r.u.limits[k]; ok {
		return l.Clone(), nil
	}
	r.u.store.mu.RLock()
	l, ok := r.u.store.limits[k]
	r.u.store.mu.RUnlock()
	if ok {
		return l.Clone(), nil
	}
	return account.NewDailyLimit(accountID, day), nil
}

func (r *dailyLimitRepository) Save(_ context.Context, l *account.DailyLimit) error {
	l.UpdatedAt = time.Now().UTC()
	r.u.limits[dayKey{l.AccountID, l.Day}] = l.Clone()
	return nil
}

type transactionRepository struct {
	u *unit
}

func (r *transactionRepository) Append(_ context.Context, tx *account.Transaction) error {
	tx.ID = r.u.store.nextTxID.Add(1)
	r.u.journal = append(r.u.journal, tx.Clone())
	return nil
}

func (r *transactionRepository) ListByAccount(_ context.Context, accountID int64, limit int) ([]*account.Transaction, error) {
	var out []*account.Transaction
	collect := func(txs []*account.Transaction) {
		for _, tx := range txs {
			if tx.AccountID == accountID {
				out = append(out, tx.Clone())
			}
		}
	}
	r.u.store.mu.RLock()
	collect(r.u.store.journal)
	r.u.store.mu.RUnlock()
	collect(r.u.journal)

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ repository.AccountRepository     = (*accountRepository)(nil)
	_ repository.DailyLimitRepository  = (*dailyLimitRepository)(nil)
	_ repository.TransactionRepository = (*transactionRepository)(nil)
)
