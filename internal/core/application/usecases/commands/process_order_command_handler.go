package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// ErrStatusNotRecorded is returned when a status change could not be written. The
// caller should leave the delivery unacknowledged so that it is redelivered.
var ErrStatusNotRecorded = errors.New("order status change not recorded")

// StatusTransitioner is satisfied by TransitionOrderStatusCommandHandler.
type StatusTransitioner interface {
	Handle(ctx context.Context, cmd TransitionOrderStatusCommand) (bool, error)
}

// ProcessOrderCommandHandler drives one order through
// pending -> processing -> completed|failed.
//
// Redelivered messages are handled idempotently:
//   - a finished order is skipped
//   - an order already in processing resumes at the fulfillment step
//   - an order that no longer exists is skipped
//
// Handle returns nil when the delivery can be acknowledged.
type ProcessOrderCommandHandler struct {
	orders      ports.OrderRepository
	transitions StatusTransitioner
	fulfiller   ports.Fulfiller
	workerName  string
	logger      *slog.Logger
}

func NewProcessOrderCommandHandler(
	orders ports.OrderRepository,
	transitions StatusTransitioner,
	fulfiller ports.Fulfiller,
	workerName string,
	logger *slog.Logger,
) ProcessOrderCommandHandler {
	return ProcessOrderCommandHandler{
		orders:      orders,
		transitions: transitions,
		fulfiller:   fulfiller,
		workerName:  workerName,
		logger:      logger.With("component", "order_processor", "worker", workerName),
	}
}

func (h ProcessOrderCommandHandler) Handle(ctx context.Context, cmd ProcessOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	orderID := cmd.Message().OrderID
	logger := h.logger.With("order_id", orderID.String())

	o, err := h.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			logger.WarnContext(ctx, "Order not found, dropping task")
			return nil
		}
		logger.ErrorContext(ctx, "Failed to load order", "error", err)
		return fmt.Errorf("%w: %w", ErrStatusNotRecorded, err)
	}

	switch o.Status() {
	case order.Completed, order.Failed:
		logger.InfoContext(ctx, "Order already finished, skipping", "status", o.Status().String())
		return nil
	case order.Processing:
		logger.InfoContext(ctx, "Resuming order left in processing")
	default:
		changed, err := h.transition(ctx, orderID, order.Processing)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to mark order processing", "error", err)
			return err
		}
		if !changed {
			logger.InfoContext(ctx, "Order taken by another worker, skipping")
			return nil
		}
	}

	next := order.Completed
	fulfilled, err := h.fulfill(ctx, o)
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "Fulfillment failed", "error", err)
		next = order.Failed
	case !fulfilled:
		logger.InfoContext(ctx, "Fulfillment declined")
		next = order.Failed
	}

	if _, err = h.transition(ctx, orderID, next); err != nil {
		logger.ErrorContext(ctx, "Failed to record final status", "status", next.String(), "error", err)
		return err
	}

	logger.InfoContext(ctx, "Order processed", "status", next.String())
	return nil
}

// fulfill turns a panicking fulfiller into an error so the order still ends up failed.
func (h ProcessOrderCommandHandler) fulfill(ctx context.Context, o *order.Order) (fulfilled bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			fulfilled, err = false, fmt.Errorf("fulfiller panicked: %v", r)
		}
	}()

	return h.fulfiller.Fulfill(ctx, o)
}

func (h ProcessOrderCommandHandler) transition(ctx context.Context, id kernel.UUID, status order.Status) (bool, error) {
	cmd, err := NewTransitionOrderStatusCommand(id, status, h.workerName)
	if err != nil {
		return false, err
	}

	changed, err := h.transitions.Handle(ctx, cmd)
	if errors.Is(err, order.ErrInvalidTransition) {
		// Someone else moved the order past this step.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrStatusNotRecorded, status, err)
	}
	return changed, nil
}
