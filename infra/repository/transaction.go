package repository

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a journal repository on db.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Append(ctx context.Context, tx *account.Transaction) error {
	m := mapTransactionToModel(tx)
	m.ID = 0
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	}); err != nil {
		return err
	}
	tx.ID = m.ID
	return nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*account.Transaction, error) {
	var ms []Transaction
	q := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := WrapError(func() error { return q.Find(&ms).Error }); err != nil {
		return nil, err
	}
	out := make([]*account.Transaction, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToTransaction(&ms[i]))
	}
	return out, nil
}
