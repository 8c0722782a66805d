package ports

import (
	"context"
	"errors"
	"time"
)

// ErrQueueEmpty is returned by Pop when the wait elapsed without a message.
var ErrQueueEmpty = errors.New("work queue is empty")

// ErrLeaseLost is returned by Renew when the delivery is no longer leased, because it
// was acknowledged or its lease expired and it went back to the queue.
var ErrLeaseLost = errors.New("delivery lease lost")

// Delivery is a message handed to one consumer. It stays leased to that consumer
// until acknowledged; an unacknowledged delivery becomes visible again once its lease
// expires and a LeaseReclaimer runs.
type Delivery struct {
	Payload []byte
}

// WorkQueue is a FIFO channel of serialized task messages shared by competing consumers.
type WorkQueue interface {
	// Push appends a payload to the tail of the queue.
	Push(ctx context.Context, payload []byte) error

	// Pop blocks up to timeout for the next payload and leases it to the caller.
	// Returns ErrQueueEmpty when the wait elapsed.
	Pop(ctx context.Context, timeout time.Duration) (Delivery, error)

	// Renew pushes the lease deadline of a delivery still being processed one full
	// lease period into the future. Returns ErrLeaseLost when the lease is gone.
	Renew(ctx context.Context, d Delivery) error

	// Ack removes a delivered payload for good.
	Ack(ctx context.Context, d Delivery) error
}

// LeaseReclaimer returns expired in-flight deliveries to the queue.
type LeaseReclaimer interface {
	// ReclaimExpired requeues every delivery whose lease ended before now and reports
	// how many were requeued.
	ReclaimExpired(ctx context.Context) (int, error)
}
