package ledger

import (
	"context"

	"github.com/amirasaad/ledger/pkg/commands"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// OpenAccount creates an active account with a zero balance.
func (s *Service) OpenAccount(ctx context.Context, cmd commands.OpenAccount) (*account.Account, error) {
	logger := s.logger.With("op", "open", "bank_code", cmd.BankCode, "account_number", cmd.AccountNumber)
	acc, err := account.New().
		WithBankCode(cmd.BankCode).
		WithAccountNumber(cmd.AccountNumber).
		Build()
	if err != nil {
		s.abort(logger, stageStarted, err)
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, acc)
	})
	if err != nil {
		s.abort(logger, stageStarted, err)
		return nil, err
	}
	logger.Info("account opened", "account_id", acc.ID)
	return acc, nil
}

// CloseAccount deactivates an account. The account must be active and
// empty; the transition happens at most once.
func (s *Service) CloseAccount(ctx context.Context, cmd commands.CloseAccount) (*account.Account, error) {
	logger := s.logger.With("op", "close", "bank_code", cmd.BankCode, "account_number", cmd.AccountNumber)
	var (
		acc *account.Account
		at  = stageStarted
	)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		found, err := repo.Find(ctx, cmd.BankCode, account.NormalizeAccountNumber(cmd.AccountNumber))
		if err != nil {
			return err
		}
		locked, err := lockAccounts(ctx, repo, found.ID)
		if err != nil {
			return err
		}
		at = stageAccountsLocked
		acc = locked[found.ID]

		if !acc.IsActive() {
			return account.ErrAlreadyDeactivated
		}
		if !acc.Balance.IsZero() {
			return account.ErrAccountHasBalance
		}
		if err := acc.Deactivate(s.now()); err != nil {
			return err
		}
		at = stageMutated
		return repo.Save(ctx, acc)
	})
	if err != nil {
		s.abort(logger, at, err)
		return nil, err
	}
	logger.Info("account closed", "account_id", acc.ID)
	return acc, nil
}

// GetAccount returns an unlocked snapshot of an account. It may be stale by
// the time the caller looks at it.
func (s *Service) GetAccount(ctx context.Context, bankCode, accountNumber string) (acc *account.Account, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acc, err = repo.Find(ctx, bankCode, account.NormalizeAccountNumber(accountNumber))
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// ListTransactions returns the newest transactions of an account. limit is
// clamped to [1, 100]; zero selects the default page size.
func (s *Service) ListTransactions(
	ctx context.Context,
	bankCode, accountNumber string,
	limit int,
) (txs []*account.Transaction, err error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		journal, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		acc, err := accounts.Find(ctx, bankCode, account.NormalizeAccountNumber(accountNumber))
		if err != nil {
			return err
		}
		txs, err = journal.ListByAccount(ctx, acc.ID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}
