// Package commands contains the inputs of the ledger operations.
package commands

import "github.com/shopspring/decimal"

// Deposit credits an account identified by bank code and account number.
// AccountNumber may be in display form; it is normalized before lookup.
type Deposit struct {
	BankCode      string
	AccountNumber string
	Amount        decimal.Decimal
	Description   string
}
