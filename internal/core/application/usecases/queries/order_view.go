// Package queries contains the read side of the order pipeline. Handlers read the
// orders table directly through gorm and return flat views; they never load aggregates.
package queries

import (
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderView is the read model of one order.
type OrderView struct {
	ID        kernel.UUID
	ItemName  string
	Quantity  int
	Status    order.Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// orderRow mirrors the columns selected from the orders table.
type orderRow struct {
	ID        uuid.UUID
	ItemName  string
	Quantity  int
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const orderColumns = "id, item_name, quantity, status, created_at, updated_at"

func (r orderRow) toView() (OrderView, error) {
	id, err := kernel.UUIDFromRaw(r.ID)
	if err != nil {
		return OrderView{}, err
	}

	status, err := order.ParseStatus(r.Status)
	if err != nil {
		return OrderView{}, err
	}

	return OrderView{
		ID:        id,
		ItemName:  r.ItemName,
		Quantity:  r.Quantity,
		Status:    status,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}, nil
}
