package outboxrepo

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutboxRepository implements ports.OutboxRepository using GORM.
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewGormOutboxRepository creates a repository on db, which may be a transaction.
func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// Add records a pending message. On PostgreSQL it also issues pg_notify on
// NotifyChannel; the notification is delivered when the surrounding transaction
// commits and is dropped if it rolls back.
func (r *GormOutboxRepository) Add(ctx context.Context, msg ports.OutboxMessage) error {
	if err := errors.Join(msg.ID.Validate(), msg.OrderID.Validate()); err != nil {
		return err
	}
	if len(msg.Payload) == 0 {
		return errs.NewValueIsRequiredError("payload")
	}

	dto := fromDomain(msg)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	if !r.isPostgres() {
		return nil
	}
	return r.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", NotifyChannel, msg.OrderID.String()).Error
}

// ClaimPending returns up to limit pending messages, oldest first. On PostgreSQL
// the rows are locked FOR UPDATE SKIP LOCKED, so concurrent relays split the backlog
// instead of publishing the same marker twice.
func (r *GormOutboxRepository) ClaimPending(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit < 1 {
		return nil, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}

	tx := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at").
		Order("id").
		Limit(limit)
	if r.isPostgres() {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}

	var dtos []MessageDTO
	if err := tx.Find(&dtos).Error; err != nil {
		return nil, err
	}

	messages := make([]ports.OutboxMessage, 0, len(dtos))
	for _, dto := range dtos {
		msg, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// MarkPublished sets published_at. Returns an errs.ObjectNotFoundError when the
// message is unknown or was already published.
func (r *GormOutboxRepository) MarkPublished(ctx context.Context, id kernel.UUID, at time.Time) error {
	if err := id.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&MessageDTO{}).
		Where("id = ? AND published_at IS NULL", id.Raw()).
		Update("published_at", at.UTC().Truncate(time.Microsecond))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("outbox message", id.String())
	}
	return nil
}

// MarkAttemptFailed bumps the attempt counter and records the cause.
func (r *GormOutboxRepository) MarkAttemptFailed(ctx context.Context, id kernel.UUID, cause error) error {
	if err := id.Validate(); err != nil {
		return err
	}

	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}
	if len(lastError) > maxErrorLength {
		lastError = lastError[:maxErrorLength]
	}

	result := r.db.WithContext(ctx).
		Model(&MessageDTO{}).
		Where("id = ?", id.Raw()).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastError,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("outbox message", id.String())
	}
	return nil
}

func (r *GormOutboxRepository) isPostgres() bool {
	return r.db.Dialector.Name() == "postgres"
}
