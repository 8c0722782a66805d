package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// StatusChange describes one accepted transition.
type StatusChange struct {
	OrderID   kernel.UUID
	OldStatus order.Status
	NewStatus order.Status
	ChangedBy string
	Timestamp time.Time
}

// StatusPublisher announces status changes to interested listeners. Delivery is
// best-effort; a failure never undoes the transition.
type StatusPublisher interface {
	PublishStatusChange(ctx context.Context, change StatusChange) error
}
