package ledger

import (
	"context"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/cenkalti/backoff/v4"
)

// RetryOnConflict calls op up to attempts times, backing off exponentially
// between calls, for as long as op fails with a retryable error
// (account.IsRetryable). Any other error is returned at once. Each call must
// run a whole operation from the start; nothing is resumed.
func RetryOnConflict[T any](ctx context.Context, attempts int, op func(ctx context.Context) (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 10 * time.Millisecond
	eb.MaxInterval = 250 * time.Millisecond
	eb.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)
	return backoff.RetryWithData(func() (T, error) {
		v, err := op(ctx)
		if err != nil && !account.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, b)
}
