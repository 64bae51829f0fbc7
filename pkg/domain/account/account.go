package account

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an account.
type Status string

const (
	// StatusActive accounts accept balance changes.
	StatusActive Status = "ACTIVE"
	// StatusDeactivated is terminal. A deactivated account never reactivates.
	StatusDeactivated Status = "DEACTIVATED"
)

// AmountScale is the number of fractional digits money amounts may carry.
const AmountScale = 2

// Account is the balance-holding aggregate of the ledger.
//
// Invariants:
//   - Balance is never negative.
//   - Balance changes only while Status is StatusActive.
//   - Deactivation happens at most once and only at a zero balance.
//
// An Account obtained from a repository is a checked-out copy. It must be
// saved back before the lock that guards it is released.
type Account struct {
	ID            int64
	BankCode      string
	AccountNumber string // digits only, lookup key
	DisplayNumber string // as supplied at opening
	Balance       decimal.Decimal
	Status        Status
	DeactivatedAt *time.Time
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	id            int64
	bankCode      string
	displayNumber string
	balance       decimal.Decimal
	status        Status
	deactivatedAt *time.Time
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// New creates a Builder for an active account with a zero balance.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{
		balance:   decimal.Zero,
		status:    StatusActive,
		createdAt: now,
		updatedAt: now,
	}
}

// WithID sets the identifier. Stores assign it on create, so this is only
// needed when hydrating.
func (b *Builder) WithID(id int64) *Builder {
	b.id = id
	return b
}

// WithBankCode sets the bank code. Mandatory.
func (b *Builder) WithBankCode(code string) *Builder {
	b.bankCode = strings.TrimSpace(code)
	return b
}

// WithAccountNumber sets the account number in its display form. The lookup
// key is derived from it with NormalizeAccountNumber.
func (b *Builder) WithAccountNumber(number string) *Builder {
	b.displayNumber = strings.TrimSpace(number)
	return b
}

// WithBalance is for hydrating an existing account or for test setup.
func (b *Builder) WithBalance(balance decimal.Decimal) *Builder {
	b.balance = balance
	return b
}

func (b *Builder) WithStatus(status Status) *Builder {
	b.status = status
	return b
}

func (b *Builder) WithDeactivatedAt(t *time.Time) *Builder {
	b.deactivatedAt = t
	return b
}

func (b *Builder) WithVersion(v int64) *Builder {
	b.version = v
	return b
}

func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Build validates identity and state invariants and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if b.bankCode == "" {
		return nil, ErrInvalidBankCode
	}
	normalized := NormalizeAccountNumber(b.displayNumber)
	if normalized == "" {
		return nil, ErrInvalidAccountNumber
	}
	if b.balance.IsNegative() {
		return nil, ErrInsufficientBalance
	}
	switch b.status {
	case StatusActive, StatusDeactivated:
	default:
		return nil, errors.New("unknown account status: " + string(b.status))
	}
	return &Account{
		ID:            b.id,
		BankCode:      b.bankCode,
		AccountNumber: normalized,
		DisplayNumber: b.displayNumber,
		Balance:       b.balance,
		Status:        b.status,
		DeactivatedAt: b.deactivatedAt,
		Version:       b.version,
		CreatedAt:     b.createdAt,
		UpdatedAt:     b.updatedAt,
	}, nil
}

// NormalizeAccountNumber strips every non-digit character.
func NormalizeAccountNumber(number string) string {
	var sb strings.Builder
	sb.Grow(len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// IsActive reports whether the account accepts balance changes.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// ValidateAmount checks that amount is strictly positive and fits the
// ledger's fixed-point scale.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return ErrInvalidAmount
	}
	return nil
}

// Deposit credits amount to the balance.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if !a.IsActive() {
		return ErrInactiveAccount
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw debits amount from the balance. The balance never goes negative.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if !a.IsActive() {
		return ErrInactiveAccount
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// CanWithdraw reports whether amount is positive and covered by the balance.
// It does not look at the account status.
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	return amount.IsPositive() && a.Balance.GreaterThanOrEqual(amount)
}

// Deactivate moves an active account to its terminal state. Callers check
// ErrAlreadyDeactivated and ErrAccountHasBalance before calling it; the
// primitive itself only refuses accounts that are not active.
func (a *Account) Deactivate(at time.Time) error {
	if !a.IsActive() {
		return ErrInactiveAccount
	}
	at = at.UTC()
	a.Status = StatusDeactivated
	a.DeactivatedAt = &at
	return nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.DeactivatedAt != nil {
		t := *a.DeactivatedAt
		c.DeactivatedAt = &t
	}
	return &c
}
