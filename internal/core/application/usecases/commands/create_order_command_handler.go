package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/task"
	"orderflow/internal/core/ports"
)

// ErrEnqueueFailed means the order was stored but its task message never reached the
// work queue. The order stays pending.
var ErrEnqueueFailed = errors.New("order stored but not enqueued")

// DispatchMode selects how a new order reaches the work queue.
type DispatchMode int

const (
	// DispatchDirect commits the order, then pushes the task message. The two writes
	// are not atomic.
	DispatchDirect DispatchMode = iota

	// DispatchOutbox commits the order together with an outbox marker; a relay pushes
	// the task message later.
	DispatchOutbox
)

// ParseDispatchMode maps "direct" and "outbox" to a DispatchMode.
func ParseDispatchMode(s string) (DispatchMode, error) {
	switch s {
	case "direct", "":
		return DispatchDirect, nil
	case "outbox":
		return DispatchOutbox, nil
	default:
		return DispatchDirect, fmt.Errorf("unknown dispatch mode %q", s)
	}
}

func (m DispatchMode) String() string {
	if m == DispatchOutbox {
		return "outbox"
	}
	return "direct"
}

// CreateOrderCommandHandler is the dispatcher: it persists a pending order and hands a
// task message to the workers.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, queue, DispatchDirect)
//	cmd, _ := NewCreateOrderCommand(kernel.NewUUID(), "Laptop", 2)
//
//	o, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, ErrEnqueueFailed) {
//	    // o is persisted but will not be processed until re-enqueued
//	}
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	queue      ports.WorkQueue
	mode       DispatchMode
	now        Clock
}

func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	queue ports.WorkQueue,
	mode DispatchMode,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		queue:      queue,
		mode:       mode,
		now:        time.Now,
	}
}

// WithClock returns a copy of the handler reading time from clock.
func (h CreateOrderCommandHandler) WithClock(clock Clock) CreateOrderCommandHandler {
	h.now = clock
	return h
}

// Handle creates the order and dispatches it according to the handler's mode.
//
// In direct mode a failed push returns the stored order together with an error
// wrapping ErrEnqueueFailed. In outbox mode the queue is never touched here.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, err := order.NewOrder(cmd.OrderID(), cmd.ItemName(), cmd.Quantity(), h.now())
	if err != nil {
		return nil, err
	}

	payload, err := task.Encode(task.NewMessage(o))
	if err != nil {
		return nil, err
	}

	if err = h.store(ctx, o, payload); err != nil {
		return nil, err
	}

	if h.mode == DispatchOutbox {
		return o, nil
	}

	if err = h.queue.Push(ctx, payload); err != nil {
		return o, fmt.Errorf("%w: order %s: %w", ErrEnqueueFailed, o.ID(), err)
	}

	return o, nil
}

func (h CreateOrderCommandHandler) store(ctx context.Context, o *order.Order, payload []byte) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.OrderRepository().Add(ctx, o); err != nil {
		return err
	}

	if h.mode == DispatchOutbox {
		msg := ports.OutboxMessage{
			ID:        kernel.NewUUID(),
			OrderID:   o.ID(),
			Payload:   payload,
			CreatedAt: o.CreatedAt(),
		}
		if err := uow.OutboxRepository().Add(ctx, msg); err != nil {
			return err
		}
	}

	return uow.Commit(ctx)
}
