package retry_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"orderflow/internal/pkg/retry"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForever(t *testing.T) {
	t.Run("should keep retrying until the operation succeeds", func(t *testing.T) {
		// Given
		calls := 0
		op := func(context.Context) error {
			calls++
			if calls < 4 {
				return errors.New("connection refused")
			}
			return nil
		}

		// When
		err := retry.Forever(t.Context(), time.Millisecond, discardLogger(), op)

		// Then
		require.NoError(t, err)
		assert.Equal(t, 4, calls)
	})

	t.Run("should wait the fixed delay between attempts", func(t *testing.T) {
		var stamps []time.Time
		op := func(context.Context) error {
			stamps = append(stamps, time.Now())
			if len(stamps) < 3 {
				return errors.New("down")
			}
			return nil
		}

		require.NoError(t, retry.Forever(t.Context(), 20*time.Millisecond, discardLogger(), op))

		require.Len(t, stamps, 3)
		for i := 1; i < len(stamps); i++ {
			assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), 15*time.Millisecond)
		}
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
		defer cancel()

		err := retry.Forever(ctx, 5*time.Millisecond, discardLogger(), func(context.Context) error {
			return errors.New("still down")
		})

		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("should stop on a permanent error", func(t *testing.T) {
		errBadConfig := errors.New("bad dsn")
		calls := 0

		err := retry.Forever(t.Context(), time.Millisecond, discardLogger(), func(context.Context) error {
			calls++
			return backoff.Permanent(errBadConfig)
		})

		require.ErrorIs(t, err, errBadConfig)
		assert.Equal(t, 1, calls)
	})
}
