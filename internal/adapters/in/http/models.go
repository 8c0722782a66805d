package http

import (
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/order"
)

const apiVersion = "1.0.0"

// Banner is the body of GET /.
type Banner struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health is the body of GET /health.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// NewOrder is the body of POST /orders. Pointers tell a missing field from a zero one.
type NewOrder struct {
	ItemName *string `json:"item_name" validate:"required,min=1,max=100"`
	Quantity *int    `json:"quantity" validate:"required,min=1,max=1000"`
}

// Order is the public representation of an order.
type Order struct {
	ID        string `json:"id"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Stats is the body of GET /stats.
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ListOrdersParams are the query parameters of GET /orders.
type ListOrdersParams struct {
	Status *string `form:"status" json:"status,omitempty"`
	Limit  *int    `form:"limit" json:"limit,omitempty"`
}

func orderFromDomain(o *order.Order) Order {
	return Order{
		ID:        o.ID().String(),
		ItemName:  o.ItemName(),
		Quantity:  o.Quantity(),
		Status:    o.Status().String(),
		CreatedAt: o.CreatedAt().UTC().Format(order.TimestampLayout),
		UpdatedAt: o.UpdatedAt().UTC().Format(order.TimestampLayout),
	}
}

func orderFromView(v queries.OrderView) Order {
	return Order{
		ID:        v.ID.String(),
		ItemName:  v.ItemName,
		Quantity:  v.Quantity,
		Status:    v.Status.String(),
		CreatedAt: v.CreatedAt.UTC().Format(order.TimestampLayout),
		UpdatedAt: v.UpdatedAt.UTC().Format(order.TimestampLayout),
	}
}
