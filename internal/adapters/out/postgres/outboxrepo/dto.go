// Package outboxrepo stores pending enqueue markers in the order_outbox table.
package outboxrepo

import (
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"

	"github.com/google/uuid"
)

// NotifyChannel is the PostgreSQL channel signalled whenever a marker is added.
const NotifyChannel = "order_outbox"

// maxErrorLength bounds last_error so a verbose broker error cannot bloat the row.
const maxErrorLength = 1024

// MessageDTO is the row layout of the order_outbox table. A row is pending while
// PublishedAt is NULL.
type MessageDTO struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Payload     []byte     `gorm:"not null"`
	Attempts    int        `gorm:"not null;default:0"`
	LastError   string     `gorm:"size:1024"`
	CreatedAt   time.Time  `gorm:"not null;index;autoCreateTime:false"`
	PublishedAt *time.Time `gorm:"index"`
}

// TableName overrides GORM's naming convention.
func (MessageDTO) TableName() string {
	return "order_outbox"
}

func fromDomain(msg ports.OutboxMessage) MessageDTO {
	return MessageDTO{
		ID:        msg.ID.Raw(),
		OrderID:   msg.OrderID.Raw(),
		Payload:   msg.Payload,
		Attempts:  msg.Attempts,
		CreatedAt: msg.CreatedAt.UTC().Truncate(time.Microsecond),
	}
}

func toDomain(dto MessageDTO) (ports.OutboxMessage, error) {
	id, err := kernel.UUIDFromRaw(dto.ID)
	if err != nil {
		return ports.OutboxMessage{}, err
	}

	orderID, err := kernel.UUIDFromRaw(dto.OrderID)
	if err != nil {
		return ports.OutboxMessage{}, err
	}

	return ports.OutboxMessage{
		ID:        id,
		OrderID:   orderID,
		Payload:   dto.Payload,
		Attempts:  dto.Attempts,
		CreatedAt: dto.CreatedAt.UTC(),
	}, nil
}
