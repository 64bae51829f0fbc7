package repository

import (
	"context"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an account repository on db, which should be
// the session of a running transaction.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Find(ctx context.Context, bankCode, accountNumber string) (*account.Account, error) {
	var m Account
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("bank_code = ? AND account_number = ?", bankCode, accountNumber).
			Take(&m).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToAccount(&m)
}

func (r *accountRepository) Get(ctx context.Context, id int64) (*account.Account, error) {
	var m Account
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToAccount(&m)
}

// Lock reads the row with SELECT ... FOR NO KEY UPDATE. The lock lasts until
// the enclosing transaction ends. The weaker strength leaves the row open to
// the KEY SHARE locks that foreign key checks on daily_limits and
// transactions take, so those checks never wait on a held account.
func (r *accountRepository) Lock(ctx context.Context, id int64) (*account.Account, error) {
	var m Account
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "NO KEY UPDATE"}).
			Where("id = ?", id).
			Take(&m).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToAccount(&m)
}

// Save writes a's mutable state if the stored version still equals
// a.Version, then advances a.Version.
func (r *accountRepository) Save(ctx context.Context, a *account.Account) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ? AND version = ?", a.ID, a.Version).
		Updates(map[string]any{
			"balance":        a.Balance,
			"status":         string(a.Status),
			"deactivated_at": a.DeactivatedAt,
			"version":        a.Version + 1,
			"updated_at":     now,
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return account.ErrVersionConflict
	}
	a.Version++
	a.UpdatedAt = now
	return nil
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	m := mapAccountToModel(a)
	m.Version = 0
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	}); err != nil {
		return err
	}
	a.ID, a.Version, a.CreatedAt, a.UpdatedAt = m.ID, m.Version, m.CreatedAt, m.UpdatedAt
	return nil
}
