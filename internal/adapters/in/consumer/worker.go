// Package consumer runs the worker loop: take a task off the work queue, process the
// order it names, acknowledge it, repeat.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/task"
	"orderflow/internal/core/ports"
)

// OrderProcessor is satisfied by commands.ProcessOrderCommandHandler.
type OrderProcessor interface {
	Handle(ctx context.Context, cmd commands.ProcessOrderCommand) error
}

// Worker is one sequential consumer. Several workers may share a queue; each
// delivery reaches exactly one of them at a time.
//
// Acknowledgement rules:
//   - processed (or skipped as already done) -> ack
//   - undecodable payload -> logged and acked, never retried
//   - status write failed -> not acked; the lease reaper redelivers it
//
// While an order is processed its lease is renewed every third of the lease TTL, so
// slow fulfillment never hands the same delivery to a second worker.
type Worker struct {
	name       string
	queue      ports.WorkQueue
	processor  OrderProcessor
	popTimeout time.Duration
	errorDelay time.Duration
	renewEvery time.Duration
	logger     *slog.Logger

	stopped atomic.Bool
	sleep   func(ctx context.Context, d time.Duration)
}

// NewWorker creates a worker. popTimeout bounds each blocking wait, and so bounds
// how long Stop takes to be noticed; errorDelay is the pause after a queue failure.
// leaseTTL must match the queue's lease duration; a non-positive value disables renewal.
func NewWorker(
	name string,
	queue ports.WorkQueue,
	processor OrderProcessor,
	popTimeout, errorDelay, leaseTTL time.Duration,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		name:       name,
		queue:      queue,
		processor:  processor,
		popTimeout: popTimeout,
		errorDelay: errorDelay,
		renewEvery: leaseTTL / 3,
		logger:     logger.With("component", "worker", "worker", name),
		sleep:      sleepContext,
	}
}

// Name identifies the worker in logs and in changed_by of status changes.
func (w *Worker) Name() string {
	return w.name
}

// Stop asks the loop to exit. It is checked once per iteration, so an in-progress
// wait or order finishes first.
func (w *Worker) Stop() {
	w.stopped.Store(true)
}

// Run loops until Stop is called or ctx is done. A delivery already taken is always
// processed to the end on a context detached from ctx.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Worker started", "pop_timeout", w.popTimeout)
	defer w.logger.InfoContext(ctx, "Worker stopped")

	for !w.stopped.Load() && ctx.Err() == nil {
		delivery, err := w.queue.Pop(ctx, w.popTimeout)
		if err != nil {
			if errors.Is(err, ports.ErrQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			w.logger.ErrorContext(ctx, "Failed to take task from queue", "error", err, "retry_in", w.errorDelay)
			w.sleep(ctx, w.errorDelay)
			continue
		}

		w.handle(context.WithoutCancel(ctx), delivery)
	}

	return nil
}

func (w *Worker) handle(ctx context.Context, delivery ports.Delivery) {
	msg, err := task.Decode(delivery.Payload)
	if err != nil {
		w.logger.ErrorContext(ctx, "Dropping malformed task", "error", err, "payload", string(delivery.Payload))
		w.ack(ctx, delivery)
		return
	}

	logger := w.logger.With("order_id", msg.OrderID.String())
	logger.InfoContext(ctx, "Processing order", "item_name", msg.ItemName, "quantity", msg.Quantity)

	cmd, err := commands.NewProcessOrderCommand(msg)
	if err != nil {
		logger.ErrorContext(ctx, "Dropping invalid task", "error", err)
		w.ack(ctx, delivery)
		return
	}

	stopRenewing := w.keepLeased(ctx, delivery, logger)
	err = w.processor.Handle(ctx, cmd)
	stopRenewing()

	if err != nil {
		if errors.Is(err, commands.ErrStatusNotRecorded) {
			logger.WarnContext(ctx, "Leaving task for redelivery", "error", err)
			return
		}
		logger.ErrorContext(ctx, "Task processing failed", "error", err)
	}

	w.ack(ctx, delivery)
}

// keepLeased renews the lease of delivery in the background until the returned
// function is called. The returned function waits for the renewer to exit.
func (w *Worker) keepLeased(ctx context.Context, delivery ports.Delivery, logger *slog.Logger) func() {
	if w.renewEvery <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)

		ticker := time.NewTicker(w.renewEvery)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				err := w.queue.Renew(ctx, delivery)
				switch {
				case errors.Is(err, ports.ErrLeaseLost):
					logger.WarnContext(ctx, "Lease lost while processing, task may be redelivered")
					return
				case err != nil:
					logger.WarnContext(ctx, "Failed to renew lease", "error", err)
				}
			}
		}
	}()

	return func() {
		close(done)
		<-exited
	}
}

func (w *Worker) ack(ctx context.Context, delivery ports.Delivery) {
	if err := w.queue.Ack(ctx, delivery); err != nil {
		// The lease expires and the task comes back; processing is idempotent.
		w.logger.ErrorContext(ctx, "Failed to acknowledge task", "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
