// Package task defines the message handed from the dispatcher to workers through the
// work queue, and its JSON wire form:
//
//	{"order_id":"7d0c...","item_name":"Laptop","quantity":2}
//
// The message carries a snapshot of the order taken at enqueue time; it references the
// order but does not own it.
package task

import (
	"encoding/json"
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// ErrMalformedMessage wraps every decoding failure. Workers drop such messages.
var ErrMalformedMessage = errors.New("malformed task message")

type Message struct {
	OrderID  kernel.UUID
	ItemName string
	Quantity int
}

type wireMessage struct {
	OrderID  *string `json:"order_id"`
	ItemName *string `json:"item_name"`
	Quantity *int    `json:"quantity"`
}

// NewMessage snapshots the fields a worker needs from o.
func NewMessage(o *order.Order) Message {
	return Message{
		OrderID:  o.ID(),
		ItemName: o.ItemName(),
		Quantity: o.Quantity(),
	}
}

func Encode(m Message) ([]byte, error) {
	if err := m.OrderID.Validate(); err != nil {
		return nil, fmt.Errorf("encode task message: %w", err)
	}

	id := m.OrderID.String()
	return json.Marshal(wireMessage{
		OrderID:  &id,
		ItemName: &m.ItemName,
		Quantity: &m.Quantity,
	})
}

// Decode parses a queue payload. All three fields must be present and order_id must
// be a valid identifier.
func Decode(payload []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(payload, &w); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	if w.OrderID == nil || w.ItemName == nil || w.Quantity == nil {
		return Message{}, fmt.Errorf("%w: order_id, item_name and quantity are required", ErrMalformedMessage)
	}

	id, err := kernel.UUIDFromString(*w.OrderID)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	return Message{
		OrderID:  id,
		ItemName: *w.ItemName,
		Quantity: *w.Quantity,
	}, nil
}
