package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
)

// OutboxMessage is a queue payload waiting to be relayed. It is written in the same
// transaction as the order it refers to.
type OutboxMessage struct {
	ID        kernel.UUID
	OrderID   kernel.UUID
	Payload   []byte
	Attempts  int
	CreatedAt time.Time
}

// OutboxRepository stores pending enqueue markers.
type OutboxRepository interface {
	// Add records a message as pending.
	Add(ctx context.Context, msg OutboxMessage) error

	// ClaimPending returns up to limit pending messages, oldest first. Inside a transaction
	// the rows stay locked against other relays until commit or rollback.
	ClaimPending(ctx context.Context, limit int) ([]OutboxMessage, error)

	// MarkPublished clears the marker once the payload is on the work queue.
	MarkPublished(ctx context.Context, id kernel.UUID, at time.Time) error

	// MarkAttemptFailed keeps the message pending and records the failure.
	MarkAttemptFailed(ctx context.Context, id kernel.UUID, cause error) error
}
