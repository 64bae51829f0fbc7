package ledger

import (
	"context"

	"github.com/amirasaad/ledger/pkg/commands"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
)

// Withdraw debits an account and records one WITHDRAW transaction.
//
// Today's withdraw quota is reserved under the DailyLimit lock before the
// account is locked and its balance checked, so concurrent withdrawals see
// each other's reservations. A withdrawal that then fails on the balance
// rolls its reservation back with the rest of the unit of work.
func (s *Service) Withdraw(ctx context.Context, cmd commands.Withdraw) (*account.Transaction, error) {
	logger := s.logger.With(
		"op", "withdraw",
		"bank_code", cmd.BankCode,
		"account_number", cmd.AccountNumber,
		"amount", cmd.Amount.String(),
	)
	if err := account.ValidateAmount(cmd.Amount); err != nil {
		s.abort(logger, stageStarted, err)
		return nil, err
	}
	day := account.Day(s.now(), s.loc)

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

		limit, err := r.limits.Lock(ctx, acc.ID, day)
		if err != nil {
			return err
		}
		if !limit.WithdrawAllowed(cmd.Amount, s.withdrawLimit) {
			return account.ErrDailyWithdrawLimitExceeded
		}
		if _, err := limit.AddWithdrawUsed(cmd.Amount); err != nil {
			return err
		}
		if err := r.limits.Save(ctx, limit); err != nil {
			return err
		}
		at = stageLimitReserved

		locked, err := lockAccounts(ctx, r.accounts, acc.ID)
		if err != nil {
			return err
		}
		at = stageAccountsLocked
		acc = locked[acc.ID]

		if err := acc.Withdraw(cmd.Amount); err != nil {
			return err
		}
		if err := r.accounts.Save(ctx, acc); err != nil {
			return err
		}
		tx = account.NewWithdrawal(acc, cmd.Amount, cmd.Description, s.now().UTC())
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

	logger.Info("withdraw committed", "stage", stageCommitted, "account_id", tx.AccountID, "transaction_id", tx.ID, "balance", tx.BalanceAfter.String(), "day", day)
	s.publish(ctx, tx)
	return tx, nil
}
