package ledger

import (
	"context"

	"github.com/amirasaad/ledger/pkg/commands"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
)

// Deposit credits an account and records one DEPOSIT transaction.
// Deposits are not subject to any daily limit.
func (s *Service) Deposit(ctx context.Context, cmd commands.Deposit) (*account.Transaction, error) {
	logger := s.logger.With(
		"op", "deposit",
		"bank_code", cmd.BankCode,
		"account_number", cmd.AccountNumber,
		"amount", cmd.Amount.String(),
	)
	if err := account.ValidateAmount(cmd.Amount); err != nil {
		s.abort(logger, stageStarted, err)
		return nil, err
	}

	var (
		tx *account.Transaction
		at = stageStarted
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		r, err := reposOf(uow)
		if err != nil {
			return err
		}
		acc, err := r.accounts.Find(ctx, cmd.BankCode, account.NormalizeAccountNumber(cmd.AccountNumber))
		if err != nil {
			return err
		}
		locked, err := lockAccounts(ctx, r.accounts, acc.ID)
		if err != nil {
			return err
		}
		at = stageAccountsLocked
		acc = locked[acc.ID]

		if err := acc.Deposit(cmd.Amount); err != nil {
			return err
		}
		if err := r.accounts.Save(ctx, acc); err != nil {
			return err
		}
		tx = account.NewDeposit(acc, cmd.Amount, cmd.Description, s.now().UTC())
		if err := r.transactions.Append(ctx, tx); err != nil {
			return err
		}
		at = stageMutated
		return nil
	})
	if err != nil {
		s.abort(logger, at, err)
		return nil, err
	}

	logger.Info("deposit committed", "stage", stageCommitted, "account_id", tx.AccountID, "transaction_id", tx.ID, "balance", tx.BalanceAfter.String())
	s.publish(ctx, tx)
	return tx, nil
}
