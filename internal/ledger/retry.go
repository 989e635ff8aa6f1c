package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/josh-kwaku/float-ledger/internal/domain"
	"github.com/josh-kwaku/float-ledger/internal/logging"
)

// Atomically runs fn as one unit of work, retrying the whole unit when the
// backend reports a serialization failure or deadlock. Any other error is
// returned as is on the first attempt.
func Atomically(ctx context.Context, store Store, maxRetries int, fn func(ctx context.Context, tx Tx) error) error {
	op := func() error {
		err := store.RunInTx(ctx, fn)
		if err == nil || errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 20 * time.Millisecond
	eb.MaxInterval = 500 * time.Millisecond

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(max(maxRetries, 0))), ctx)

	notify := func(err error, wait time.Duration) {
		logging.FromContext(ctx).Warn("retrying conflicted unit of work", "error", err, "wait_ms", wait.Milliseconds())
	}
	return backoff.RetryNotify(op, b, notify)
}
