package ports

import (
	"context"

	"orderflow/internal/core/domain/model/order"
)

// Fulfiller carries out the real-world work behind an order (stock, payment, shipping).
type Fulfiller interface {
	// Fulfill returns true when the order was fulfilled and false when it was declined.
	// An error means the attempt itself broke; the order is failed either way.
	Fulfill(ctx context.Context, o *order.Order) (bool, error)
}
