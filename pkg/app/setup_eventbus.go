// Package app assembles the ledger service and registers the event handlers
// that run after transactions commit.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/eventbus"
)

// Dependencies contains all the dependencies needed by the SetupBus function
type Dependencies struct {
	Bus    eventbus.Bus
	Logger *slog.Logger
}

// SetupBus registers all event handlers with the provided event Bus.
func SetupBus(deps Dependencies) {
	deps.Bus.Register(
		account.EventTransactionRecorded,
		HandleTransactionRecorded(deps.Logger),
	)
}

// HandleTransactionRecorded writes an audit line for every committed
// transaction.
func HandleTransactionRecorded(logger *slog.Logger) eventbus.HandlerFunc {
	logger = logger.With("handler", "transaction_recorded")
	return func(ctx context.Context, e eventbus.Event) error {
		var ev account.TransactionRecorded
		switch v := e.(type) {
		case account.TransactionRecorded:
			ev = v
		case *account.TransactionRecorded:
			ev = *v
		default:
			return fmt.Errorf("unexpected event %T", e)
		}
		logger.InfoContext(ctx, "transaction recorded",
			"transaction_id", ev.TransactionID,
			"reference", ev.Reference,
			"kind", ev.Kind,
			"account_id", ev.AccountID,
			"amount", ev.Amount.StringFixed(2),
			"fee", ev.Fee.StringFixed(2),
			"balance_after", ev.BalanceAfter.StringFixed(2),
		)
		return nil
	}
}
