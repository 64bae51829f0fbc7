package account

import "errors"

var (
	// ErrAccountNotFound is returned when the source (or only) account of an operation cannot be resolved.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTargetAccountNotFound is returned when the destination of a transfer cannot be resolved.
	ErrTargetAccountNotFound = errors.New("target account not found")

	// ErrInactiveAccount is returned when a balance change is attempted on a deactivated account.
	ErrInactiveAccount = errors.New("account is not active")

	// ErrInvalidAmount is returned when an amount is not strictly positive or carries too many fractional digits.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance is returned when a debit would make the balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSameAccountTransfer is returned when source and destination resolve to the same account.
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")

	// ErrDailyWithdrawLimitExceeded is returned when a withdrawal would push today's total over the ceiling.
	ErrDailyWithdrawLimitExceeded = errors.New("daily withdraw limit exceeded")

	// ErrDailyTransferLimitExceeded is returned when a transfer would push today's total over the ceiling.
	ErrDailyTransferLimitExceeded = errors.New("daily transfer limit exceeded")

	// ErrAlreadyDeactivated is returned when closing an account that is already closed.
	ErrAlreadyDeactivated = errors.New("account already deactivated")

	// ErrAccountHasBalance is returned when closing an account whose balance is not zero.
	ErrAccountHasBalance = errors.New("account balance must be zero to deactivate")

	// ErrVersionConflict is returned when another writer committed the same account first.
	// The whole operation may be retried.
	ErrVersionConflict = errors.New("version conflict")

	// ErrLockTimeout is returned when a row lock could not be acquired in time.
	// The whole operation may be retried.
	ErrLockTimeout = errors.New("lock wait timeout")

	// ErrAccountExists is returned when opening an account whose bank code and number are taken.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidBankCode is returned when an account is built without a bank code.
	ErrInvalidBankCode = errors.New("invalid bank code")

	// ErrInvalidAccountNumber is returned when an account number has no digits.
	ErrInvalidAccountNumber = errors.New("invalid account number")

	// ErrLedgerInconsistent signals a defect: state the ledger relies on vanished mid-operation.
	// It is never expected and must not be retried.
	ErrLedgerInconsistent = errors.New("ledger inconsistent")
)

// IsRetryable reports whether err is a lost race that a caller may retry
// by re-running the whole operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrLockTimeout)
}
