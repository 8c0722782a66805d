// Package retry runs an operation until it succeeds using a constant delay between attempts.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Forever calls op until it returns nil, waiting delay between attempts. There is no attempt
// limit and no jitter. Each failure is logged with the attempt number. The only way out
// besides success is ctx cancellation, in which case the context error is returned.
//
// An op that wraps its error with backoff.Permanent stops the loop and that error is returned.
func Forever(ctx context.Context, delay time.Duration, logger *slog.Logger, op func(ctx context.Context) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		return op(ctx)
	}
	notify := func(err error, next time.Duration) {
		logger.WarnContext(ctx, "Attempt failed, retrying",
			"attempt", attempt,
			"retry_in", next.String(),
			"error", err,
		)
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(delay), ctx)
	return backoff.RetryNotify(operation, b, notify)
}
