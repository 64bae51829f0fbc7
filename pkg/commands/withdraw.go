package commands

import "github.com/shopspring/decimal"

// Withdraw debits an account, subject to the daily withdraw ceiling.
type Withdraw struct {
	BankCode      string
	AccountNumber string
	Amount        decimal.Decimal
	Description   string
}
