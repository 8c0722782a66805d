package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// TransitionOrderStatusCommandHandler is the single entry point for status changes.
// It applies the state machine to the stored order and writes the result with a
// compare-and-set on the previous status, so concurrent writers cannot both win.
//
// Example:
//
//	cmd, _ := NewTransitionOrderStatusCommand(orderID, order.Processing, "worker-1")
//	changed, err := handler.Handle(ctx, cmd)
//	switch {
//	case err != nil:
//	    // invalid transition (validation error) or store failure
//	case !changed:
//	    // order missing, or another writer moved it first
//	}
type TransitionOrderStatusCommandHandler struct {
	orders    ports.OrderRepository
	publisher ports.StatusPublisher
	logger    *slog.Logger
	now       Clock
}

// NewTransitionOrderStatusCommandHandler wires the handler. publisher may be nil when no
// one listens for status changes.
func NewTransitionOrderStatusCommandHandler(
	orders ports.OrderRepository,
	publisher ports.StatusPublisher,
	logger *slog.Logger,
) TransitionOrderStatusCommandHandler {
	return TransitionOrderStatusCommandHandler{
		orders:    orders,
		publisher: publisher,
		logger:    logger.With("component", "order_status_transition"),
		now:       time.Now,
	}
}

// WithClock returns a copy of the handler reading time from clock.
func (h TransitionOrderStatusCommandHandler) WithClock(clock Clock) TransitionOrderStatusCommandHandler {
	h.now = clock
	return h
}

// Handle reports whether a matching order was found and changed.
// A missing order is not an error: Handle returns false, nil.
func (h TransitionOrderStatusCommandHandler) Handle(ctx context.Context, cmd TransitionOrderStatusCommand) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, err
	}

	o, err := h.orders.Get(ctx, cmd.OrderID())
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}

	from := o.Status()
	if err = o.TransitionTo(cmd.Status(), h.now()); err != nil {
		return false, err
	}

	changed, err := h.orders.UpdateStatus(ctx, o.ID(), from, o.Status(), o.UpdatedAt())
	if err != nil || !changed {
		return false, err
	}

	h.publish(ctx, ports.StatusChange{
		OrderID:   o.ID(),
		OldStatus: from,
		NewStatus: o.Status(),
		ChangedBy: cmd.ChangedBy(),
		Timestamp: o.UpdatedAt(),
	})

	return true, nil
}

func (h TransitionOrderStatusCommandHandler) publish(ctx context.Context, change ports.StatusChange) {
	if h.publisher == nil {
		return
	}

	if err := h.publisher.PublishStatusChange(ctx, change); err != nil {
		h.logger.WarnContext(ctx, "Failed to publish status change",
			"order_id", change.OrderID.String(),
			"new_status", change.NewStatus.String(),
			"error", err,
		)
	}
}
