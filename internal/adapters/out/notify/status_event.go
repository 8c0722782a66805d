// Package notify fans status changes out over Redis pub/sub. The worker publishes,
// API instances subscribe and forward events to websocket clients.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
)

// StatusEvent is the wire form of a ports.StatusChange.
type StatusEvent struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	ChangedBy string `json:"changed_by"`
	Timestamp string `json:"timestamp"`
}

func NewStatusEvent(change ports.StatusChange) StatusEvent {
	return StatusEvent{
		OrderID:   change.OrderID.String(),
		OldStatus: change.OldStatus.String(),
		NewStatus: change.NewStatus.String(),
		ChangedBy: change.ChangedBy,
		Timestamp: change.Timestamp.UTC().Format(order.TimestampLayout),
	}
}

// StatusChange parses the event back into its domain form.
func (e StatusEvent) StatusChange() (ports.StatusChange, error) {
	id, err := kernel.UUIDFromString(e.OrderID)
	if err != nil {
		return ports.StatusChange{}, err
	}

	oldStatus, err := order.ParseStatus(e.OldStatus)
	if err != nil {
		return ports.StatusChange{}, err
	}

	newStatus, err := order.ParseStatus(e.NewStatus)
	if err != nil {
		return ports.StatusChange{}, err
	}

	ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return ports.StatusChange{}, fmt.Errorf("parse timestamp: %w", err)
	}

	return ports.StatusChange{
		OrderID:   id,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: e.ChangedBy,
		Timestamp: ts.UTC(),
	}, nil
}

func encodeEvent(change ports.StatusChange) ([]byte, error) {
	return json.Marshal(NewStatusEvent(change))
}

func decodeEvent(payload []byte) (StatusEvent, error) {
	var e StatusEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return StatusEvent{}, err
	}
	if _, err := e.StatusChange(); err != nil {
		return StatusEvent{}, err
	}
	return e, nil
}
