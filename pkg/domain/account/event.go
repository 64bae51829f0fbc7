package account

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventTransactionRecorded is the type of TransactionRecorded.
const EventTransactionRecorded = "ledger.transaction.recorded"

// TransactionRecorded announces a transaction that has been committed.
type TransactionRecorded struct {
	TransactionID int64           `json:"transaction_id"`
	Reference     uuid.UUID       `json:"reference"`
	Kind          Kind            `json:"kind"`
	AccountID     int64           `json:"account_id"`
	CounterpartID *int64          `json:"counterpart_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Type implements eventbus.Event.
func (e TransactionRecorded) Type() string { return EventTransactionRecorded }

// PartitionKey keeps events of one account in order on partitioned buses.
func (e TransactionRecorded) PartitionKey() string {
	return strconv.FormatInt(e.AccountID, 10)
}

// NewTransactionRecorded builds the event for a committed transaction.
func NewTransactionRecorded(tx *Transaction) TransactionRecorded {
	return TransactionRecorded{
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		Kind:          tx.Kind,
		AccountID:     tx.AccountID,
		CounterpartID: tx.CounterpartID,
		Amount:        tx.Amount,
		Fee:           tx.Fee,
		BalanceAfter:  tx.BalanceAfter,
		OccurredAt:    tx.CreatedAt,
	}
}
