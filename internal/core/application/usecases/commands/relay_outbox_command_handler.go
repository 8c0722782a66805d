package commands

import (
	"context"
	"log/slog"
	"time"

	"orderflow/internal/core/ports"
)

// RelayOutboxCommandHandler moves committed outbox markers onto the work queue.
//
// Claimed rows stay locked for the duration of the batch, so several relays can run at
// once without pushing the same message twice. A crash after a push but before commit
// pushes the message again on the next run; workers tolerate the duplicate.
type RelayOutboxCommandHandler struct {
	uowFactory OrderUoWFactory
	queue      ports.WorkQueue
	logger     *slog.Logger
	now        Clock
}

func NewRelayOutboxCommandHandler(
	uowFactory OrderUoWFactory,
	queue ports.WorkQueue,
	logger *slog.Logger,
) RelayOutboxCommandHandler {
	return RelayOutboxCommandHandler{
		uowFactory: uowFactory,
		queue:      queue,
		logger:     logger.With("component", "outbox_relay"),
		now:        time.Now,
	}
}

// Handle relays one batch and returns how many messages were published. Push failures
// are recorded on the message and do not abort the batch.
func (h RelayOutboxCommandHandler) Handle(ctx context.Context, cmd RelayOutboxCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	outbox := uow.OutboxRepository()
	pending, err := outbox.ClaimPending(ctx, cmd.BatchSize())
	if err != nil {
		return 0, err
	}

	if len(pending) == 0 {
		return 0, nil
	}

	published := 0
	for _, msg := range pending {
		if pushErr := h.queue.Push(ctx, msg.Payload); pushErr != nil {
			h.logger.WarnContext(ctx, "Failed to relay outbox message",
				"outbox_id", msg.ID.String(),
				"order_id", msg.OrderID.String(),
				"attempts", msg.Attempts+1,
				"error", pushErr,
			)
			if err = outbox.MarkAttemptFailed(ctx, msg.ID, pushErr); err != nil {
				return 0, err
			}
			continue
		}

		if err = outbox.MarkPublished(ctx, msg.ID, h.now()); err != nil {
			return 0, err
		}
		published++
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}

	return published, nil
}

// WithClock returns a copy of the handler reading time from clock.
func (h RelayOutboxCommandHandler) WithClock(clock Clock) RelayOutboxCommandHandler {
	h.now = clock
	return h
}
