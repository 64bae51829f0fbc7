package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the direction of a money movement.
type Kind string

const (
	KindDeposit     Kind = "DEPOSIT"
	KindWithdraw    Kind = "WITHDRAW"
	KindTransferOut Kind = "TRANSFER_OUT"
	KindTransferIn  Kind = "TRANSFER_IN"
)

// Transaction is the immutable record of one committed movement on one
// account. ID is assigned by the store on append and ascends. The two legs
// of a transfer share Reference and point at each other through
// CounterpartID.
type Transaction struct {
	ID            int64
	Reference     uuid.UUID
	Kind          Kind
	AccountID     int64
	CounterpartID *int64
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	BalanceAfter  decimal.Decimal // balance of AccountID right after this movement
	Description   string
	CreatedAt     time.Time
}

// NewDeposit records a deposit into a.
func NewDeposit(a *Account, amount decimal.Decimal, description string, at time.Time) *Transaction {
	return &Transaction{
		Reference:    uuid.New(),
		Kind:         KindDeposit,
		AccountID:    a.ID,
		Amount:       amount,
		Fee:          decimal.Zero,
		BalanceAfter: a.Balance,
		Description:  description,
		CreatedAt:    at,
	}
}

// NewWithdrawal records a withdrawal from a.
func NewWithdrawal(a *Account, amount decimal.Decimal, description string, at time.Time) *Transaction {
	return &Transaction{
		Reference:    uuid.New(),
		Kind:         KindWithdraw,
		AccountID:    a.ID,
		Amount:       amount,
		Fee:          decimal.Zero,
		BalanceAfter: a.Balance,
		Description:  description,
		CreatedAt:    at,
	}
}

// NewTransferPair records both legs of a transfer that has already been
// applied to from and to. The fee is carried on the outgoing leg only.
func NewTransferPair(
	from, to *Account,
	amount, fee decimal.Decimal,
	description string,
	at time.Time,
) (out *Transaction, in *Transaction) {
	ref := uuid.New()
	fromID, toID := from.ID, to.ID
	out = &Transaction{
		Reference:     ref,
		Kind:          KindTransferOut,
		AccountID:     from.ID,
		CounterpartID: &toID,
		Amount:        amount,
		Fee:           fee,
		BalanceAfter:  from.Balance,
		Description:   description,
		CreatedAt:     at,
	}
	in = &Transaction{
		Reference:     ref,
		Kind:          KindTransferIn,
		AccountID:     to.ID,
		CounterpartID: &fromID,
		Amount:        amount,
		Fee:           decimal.Zero,
		BalanceAfter:  to.Balance,
		Description:   description,
		CreatedAt:     at,
	}
	return out, in
}

// Clone returns a deep copy.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	if t.CounterpartID != nil {
		id := *t.CounterpartID
		c.CounterpartID = &id
	}
	return &c
}
