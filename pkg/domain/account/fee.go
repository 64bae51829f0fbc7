package account

import "github.com/shopspring/decimal"

// TransferFeeRate is the share of a transfer charged to the sender.
var TransferFeeRate = decimal.New(1, -2)

// TransferFee returns amount × TransferFeeRate rounded half up to a whole unit.
// Amounts are positive, so decimal's half-away-from-zero rounding is half up.
func TransferFee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(TransferFeeRate).Round(0)
}
