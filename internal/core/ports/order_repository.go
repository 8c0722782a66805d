package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// OrderRepository is the durable order store as seen by the write side.
// Listing and counting live in the query handlers, which read the store directly.
type OrderRepository interface {
	// Add inserts a new order. The order must be valid and its ID unused.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get loads an order by ID.
	// Returns an errs.ObjectNotFoundError when no order has that ID.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// UpdateStatus sets status to `to` and updated_at to `at`, but only while the stored
	// status still equals `from`. It reports whether a record was changed; false means the
	// order is missing or another writer moved it first.
	UpdateStatus(ctx context.Context, id kernel.UUID, from, to order.Status, at time.Time) (bool, error)
}
