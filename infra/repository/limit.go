package repository

import (
	"context"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type dailyLimitRepository struct {
	db *gorm.DB
}

// NewDailyLimitRepository creates a daily limit repository on db.
func NewDailyLimitRepository(db *gorm.DB) repository.DailyLimitRepository {
	return &dailyLimitRepository{db: db}
}

// Lock makes sure the (account, day) row exists, then locks it. Concurrent
// first-of-the-day callers race on the insert; ON CONFLICT DO NOTHING lets
// the loser fall through to the locking read.
func (r *dailyLimitRepository) Lock(ctx context.Context, accountID int64, day string) (*account.DailyLimit, error) {
	db := r.db.WithContext(ctx)
	seed := DailyLimit{AccountID: accountID, Day: day, UpdatedAt: time.Now().UTC()}
	if err := WrapError(func() error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "day"}},
			DoNothing: true,
		}).Create(&seed).Error
	}); err != nil {
		return nil, err
	}

	var m DailyLimit
	if err := WrapError(func() error {
		return db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account_id = ? AND day = ?", accountID, day).
			Take(&m).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToDailyLimit(&m), nil
}

func (r *dailyLimitRepository) Save(ctx context.Context, l *account.DailyLimit) error {
	l.UpdatedAt = time.Now().UTC()
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Model(&DailyLimit{}).
			Where("account_id = ? AND day = ?", l.AccountID, l.Day).
			Updates(map[string]any{
				"withdraw_used": l.WithdrawUsed,
				"transfer_used": l.TransferUsed,
				"updated_at":    l.UpdatedAt,
			}).Error
	})
}
