package ledger

import (
	"context"
	"errors"

	"github.com/amirasaad/ledger/pkg/commands"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
)

// TransferResult holds both legs of a committed transfer.
type TransferResult struct {
	Out *account.Transaction
	In  *account.Transaction
}

// Transfer moves cmd.Amount between two accounts. The sender pays
// cmd.Amount plus account.TransferFee(cmd.Amount); only cmd.Amount counts
// against the sender's daily transfer quota.
//
// Lock order: the sender's DailyLimit, then both accounts by ascending ID.
// It returns the outgoing leg; Transfers returns both.
func (s *Service) Transfer(ctx context.Context, cmd commands.Transfer) (*account.Transaction, error) {
	res, err := s.Transfers(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return res.Out, nil
}

// Transfers is Transfer returning both legs.
func (s *Service) Transfers(ctx context.Context, cmd commands.Transfer) (*TransferResult, error) {
	logger := s.logger.With(
		"op", "transfer",
		"from_bank_code", cmd.FromBankCode,
		"from_account_number", cmd.FromAccountNumber,
		"to_bank_code", cmd.ToBankCode,
		"to_account_number", cmd.ToAccountNumber,
		"amount", cmd.Amount.String(),
	)
	if err := account.ValidateAmount(cmd.Amount); err != nil {
		s.abort(logger, stageStarted, err)
		return nil, err
	}
	fee := account.TransferFee(cmd.Amount)
	total := cmd.Amount.Add(fee)
	day := account.Day(s.now(), s.loc)

	var (
		res = &TransferResult{}
		at  = stageStarted
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		r, err := reposOf(uow)
		if err != nil {
			return err
		}
		from, err := r.accounts.Find(ctx, cmd.FromBankCode, account.NormalizeAccountNumber(cmd.FromAccountNumber))
		if err != nil {
			return err
		}
		to, err := r.accounts.Find(ctx, cmd.ToBankCode, account.NormalizeAccountNumber(cmd.ToAccountNumber))
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound) {
				return account.ErrTargetAccountNotFound
			}
			return err
		}
		if from.ID == to.ID {
			return account.ErrSameAccountTransfer
		}

		limit, err := r.limits.Lock(ctx, from.ID, day)
		if err != nil {
			return err
		}
		if !limit.TransferAllowed(cmd.Amount, s.transferLimit) {
			return account.ErrDailyTransferLimitExceeded
		}
		if _, err := limit.AddTransferUsed(cmd.Amount); err != nil {
			return err
		}
		if err := r.limits.Save(ctx, limit); err != nil {
			return err
		}
		at = stageLimitReserved

		locked, err := lockAccounts(ctx, r.accounts, from.ID, to.ID)
		if err != nil {
			return err
		}
		at = stageAccountsLocked
		src, dst := locked[from.ID], locked[to.ID]

		if !src.IsActive() || !dst.IsActive() {
			return account.ErrInactiveAccount
		}
		if !src.CanWithdraw(total) {
			return account.ErrInsufficientBalance
		}
		if err := src.Withdraw(total); err != nil {
			return err
		}
		if err := dst.Deposit(cmd.Amount); err != nil {
			return err
		}
		if err := r.accounts.Save(ctx, src); err != nil {
			return err
		}
		if err := r.accounts.Save(ctx, dst); err != nil {
			return err
		}

		res.Out, res.In = account.NewTransferPair(src, dst, cmd.Amount, fee, cmd.Description, s.now().UTC())
		if err := r.transactions.Append(ctx, res.Out); err != nil {
			return err
		}
		if err := r.transactions.Append(ctx, res.In); err != nil {
			return err
		}
		at = stageMutated
		return nil
	})
	if err != nil {
		s.abort(logger, at, err)
		return nil, err
	}

	logger.Info("transfer committed",
		"stage", stageCommitted,
		"reference", res.Out.Reference,
		"fee", fee.String(),
		"from_balance", res.Out.BalanceAfter.String(),
		"to_balance", res.In.BalanceAfter.String(),
	)
	s.publish(ctx, res.Out, res.In)
	return res, nil
}
