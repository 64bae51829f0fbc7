package account

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	// DailyWithdrawLimit caps the sum of withdrawals per account per calendar day.
	DailyWithdrawLimit = decimal.NewFromInt(1_000_000)
	// DailyTransferLimit caps the sum of transferred amounts (fees excluded) per account per calendar day.
	DailyTransferLimit = decimal.NewFromInt(3_000_000)
)

// DayLayout is the calendar-day key format of DailyLimit.
const DayLayout = "2006-01-02"

// Day returns the calendar-day key of t in loc.
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayLayout)
}

// DailyLimit accumulates what an account has withdrawn and transferred on one
// calendar day. Both totals only grow within the day. It knows nothing about
// ceilings; callers compare against them before reserving.
type DailyLimit struct {
	AccountID    int64
	Day          string
	WithdrawUsed decimal.Decimal
	TransferUsed decimal.Decimal
	UpdatedAt    time.Time
}

// NewDailyLimit returns a zeroed counter.
func NewDailyLimit(accountID int64, day string) *DailyLimit {
	return &DailyLimit{
		AccountID:    accountID,
		Day:          day,
		WithdrawUsed: decimal.Zero,
		TransferUsed: decimal.Zero,
	}
}

// AddWithdrawUsed reserves amount against the withdraw total.
func (l *DailyLimit) AddWithdrawUsed(amount decimal.Decimal) (*DailyLimit, error) {
	if !amount.IsPositive() {
		return l, ErrInvalidAmount
	}
	l.WithdrawUsed = l.WithdrawUsed.Add(amount)
	return l, nil
}

// AddTransferUsed reserves amount against the transfer total.
func (l *DailyLimit) AddTransferUsed(amount decimal.Decimal) (*DailyLimit, error) {
	if !amount.IsPositive() {
		return l, ErrInvalidAmount
	}
	l.TransferUsed = l.TransferUsed.Add(amount)
	return l, nil
}

// WithdrawAllowed reports whether amount still fits under ceiling today.
func (l *DailyLimit) WithdrawAllowed(amount, ceiling decimal.Decimal) bool {
	return l.WithdrawUsed.Add(amount).LessThanOrEqual(ceiling)
}

// TransferAllowed reports whether amount still fits under ceiling today.
func (l *DailyLimit) TransferAllowed(amount, ceiling decimal.Decimal) bool {
	return l.TransferUsed.Add(amount).LessThanOrEqual(ceiling)
}

// Clone returns a copy.
func (l *DailyLimit) Clone() *DailyLimit {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}
