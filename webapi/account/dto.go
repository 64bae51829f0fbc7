package account

import (
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/shopspring/decimal"
)

//revive:disable

// OpenAccountRequest represents the request body for opening an account.
type OpenAccountRequest struct {
	BankCode      string `json:"bank_code" validate:"required,numeric,min=2,max=8"`
	AccountNumber string `json:"account_number" validate:"required,min=1,max=32"`
}

// AmountRequest represents the request body of a deposit or withdrawal.
// Amount accepts a JSON number or string; the ledger rejects non-positive
// values and more than two fractional digits.
type AmountRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=140"`
}

// TransferRequest represents the request body for transferring funds between accounts.
type TransferRequest struct {
	FromBankCode      string          `json:"from_bank_code" validate:"required,numeric,min=2,max=8"`
	FromAccountNumber string          `json:"from_account_number" validate:"required,max=32"`
	ToBankCode        string          `json:"to_bank_code" validate:"required,numeric,min=2,max=8"`
	ToAccountNumber   string          `json:"to_account_number" validate:"required,max=32"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description" validate:"max=140"`
}

// AccountDTO is the API representation of an account.
type AccountDTO struct {
	ID            int64   `json:"id"`
	BankCode      string  `json:"bank_code"`
	AccountNumber string  `json:"account_number"`
	Balance       string  `json:"balance"`
	Status        string  `json:"status"`
	Version       int64   `json:"version"`
	CreatedAt     string  `json:"created_at"`
	DeactivatedAt *string `json:"deactivated_at,omitempty"`
}

// TransactionDTO is the API representation of a transaction.
type TransactionDTO struct {
	ID            int64  `json:"id"`
	Reference     string `json:"reference"`
	Kind          string `json:"kind"`
	AccountID     int64  `json:"account_id"`
	CounterpartID *int64 `json:"counterpart_id,omitempty"`
	Amount        string `json:"amount"`
	Fee           string `json:"fee"`
	BalanceAfter  string `json:"balance_after"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"created_at"`
}

//revive:enable

func ToAccountDTO(a *account.Account) *AccountDTO {
	if a == nil {
		return nil
	}
	out := &AccountDTO{
		ID:            a.ID,
		BankCode:      a.BankCode,
		AccountNumber: a.DisplayNumber,
		Balance:       a.Balance.StringFixed(account.AmountScale),
		Status:        string(a.Status),
		Version:       a.Version,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
	if a.DeactivatedAt != nil {
		at := a.DeactivatedAt.Format(time.RFC3339)
		out.DeactivatedAt = &at
	}
	return out
}

func ToTransactionDTO(tx *account.Transaction) *TransactionDTO {
	if tx == nil {
		return nil
	}
	return &TransactionDTO{
		ID:            tx.ID,
		Reference:     tx.Reference.String(),
		Kind:          string(tx.Kind),
		AccountID:     tx.AccountID,
		CounterpartID: tx.CounterpartID,
		Amount:        tx.Amount.StringFixed(account.AmountScale),
		Fee:           tx.Fee.StringFixed(account.AmountScale),
		BalanceAfter:  tx.BalanceAfter.StringFixed(account.AmountScale),
		Description:   tx.Description,
		CreatedAt:     tx.CreatedAt.Format(time.RFC3339),
	}
}
