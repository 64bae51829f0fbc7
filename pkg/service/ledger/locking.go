package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
)

// lockAccounts takes the row locks of ids in ascending ID order, whatever
// order the caller lists them in, and returns the locked accounts by ID.
// Every operation that holds more than one account lock goes through here.
//
// The ids were resolved earlier in the same unit of work and accounts are
// never deleted, so a missing row is a ledger defect.
func lockAccounts(
	ctx context.Context,
	repo repository.AccountRepository,
	ids ...int64,
) (map[int64]*account.Account, error) {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	locked := make(map[int64]*account.Account, len(ordered))
	for _, id := range ordered {
		a, err := repo.Lock(ctx, id)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound) {
				return nil, fmt.Errorf("%w: account %d vanished before it was locked", account.ErrLedgerInconsistent, id)
			}
			return nil, err
		}
		locked[id] = a
	}
	return locked, nil
}
