package repository

import (
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents an account row.
type Account struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	BankCode      string          `gorm:"type:varchar(16);not null;uniqueIndex:idx_accounts_bank_number"`
	AccountNumber string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_accounts_bank_number"`
	DisplayNumber string          `gorm:"type:varchar(64);not null"`
	Balance       decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Status        string          `gorm:"type:varchar(16);not null"`
	DeactivatedAt *time.Time
	Version       int64 `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string { return "accounts" }

// DailyLimit is the per-account, per-day usage row.
type DailyLimit struct {
	AccountID    int64           `gorm:"primaryKey"`
	Day          string          `gorm:"primaryKey;type:varchar(10)"`
	WithdrawUsed decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	TransferUsed decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	UpdatedAt    time.Time
}

// TableName specifies the table name for the DailyLimit model.
func (DailyLimit) TableName() string { return "daily_limits" }

// Transaction represents an immutable journal row.
type Transaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	Reference     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind          string          `gorm:"type:varchar(16);not null"`
	AccountID     int64           `gorm:"not null;index:idx_transactions_account_id"`
	CounterpartID *int64
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Fee           decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Description   string          `gorm:"type:varchar(255);not null"`
	CreatedAt     time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string { return "transactions" }

func mapAccountToModel(a *account.Account) Account {
	return Account{
		ID:            a.ID,
		BankCode:      a.BankCode,
		AccountNumber: a.AccountNumber,
		DisplayNumber: a.DisplayNumber,
		Balance:       a.Balance,
		Status:        string(a.Status),
		DeactivatedAt: a.DeactivatedAt,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func mapModelToAccount(m *Account) (*account.Account, error) {
	return account.New().
		WithID(m.ID).
		WithBankCode(m.BankCode).
		WithAccountNumber(m.DisplayNumber).
		WithBalance(m.Balance).
		WithStatus(account.Status(m.Status)).
		WithDeactivatedAt(m.DeactivatedAt).
		WithVersion(m.Version).
		WithCreatedAt(m.CreatedAt).
		WithUpdatedAt(m.UpdatedAt).
		Build()
}

func mapModelToDailyLimit(m *DailyLimit) *account.DailyLimit {
	return &account.DailyLimit{
		AccountID:    m.AccountID,
		Day:          m.Day,
		WithdrawUsed: m.WithdrawUsed,
		TransferUsed: m.TransferUsed,
		UpdatedAt:    m.UpdatedAt,
	}
}

func mapTransactionToModel(tx *account.Transaction) Transaction {
	return Transaction{
		ID:            tx.ID,
		Reference:     tx.Reference,
		Kind:          string(tx.Kind),
		AccountID:     tx.AccountID,
		CounterpartID: tx.CounterpartID,
		Amount:        tx.Amount,
		Fee:           tx.Fee,
		BalanceAfter:  tx.BalanceAfter,
		Description:   tx.Description,
		CreatedAt:     tx.CreatedAt,
	}
}

func mapModelToTransaction(m *Transaction) *account.Transaction {
	return &account.Transaction{
		ID:            m.ID,
		Reference:     m.Reference,
		Kind:          account.Kind(m.Kind),
		AccountID:     m.AccountID,
		CounterpartID: m.CounterpartID,
		Amount:        m.Amount,
		Fee:           m.Fee,
		BalanceAfter:  m.BalanceAfter,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
}
