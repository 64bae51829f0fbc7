package commands

import "github.com/shopspring/decimal"

// Transfer moves Amount from one account to another. The sender also pays
// the transfer fee.
type Transfer struct {
	FromBankCode      string
	FromAccountNumber string
	ToBankCode        string
	ToAccountNumber   string
	Amount            decimal.Decimal
	Description       string
}
