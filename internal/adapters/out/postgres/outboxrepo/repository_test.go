package outboxrepo_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	postgres_adapter "orderflow/internal/adapters/out/postgres"
	"orderflow/internal/adapters/out/postgres/outboxrepo"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := postgres_adapter.Open(postgres_adapter.DialectSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, postgres_adapter.Migrate(db))
	t.Cleanup(func() { _ = postgres_adapter.Close(db) })

	return db
}

func newMessage(createdAt time.Time) ports.OutboxMessage {
	return ports.OutboxMessage{
		ID:        kernel.NewUUID(),
		OrderID:   kernel.NewUUID(),
		Payload:   []byte(`{"order_id":"x"}`),
		CreatedAt: createdAt,
	}
}

func TestGormOutboxRepository_ClaimPending_OldestFirst(t *testing.T) {
	ctx := context.Background()
	repo := outboxrepo.NewGormOutboxRepository(newTestDB(t))
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	newest := newMessage(base.Add(2 * time.Second))
	oldest := newMessage(base)
	middle := newMessage(base.Add(time.Second))
	for _, msg := range []ports.OutboxMessage{newest, oldest, middle} {
		require.NoError(t, repo.Add(ctx, msg))
	}

	claimed, err := repo.ClaimPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.True(t, oldest.ID.IsEqual(claimed[0].ID))
	assert.True(t, middle.ID.IsEqual(claimed[1].ID))
	assert.Equal(t, oldest.Payload, claimed[0].Payload)
	assert.True(t, oldest.OrderID.IsEqual(claimed[0].OrderID))
}

func TestGormOutboxRepository_MarkPublished_RemovesFromPending(t *testing.T) {
	ctx := context.Background()
	repo := outboxrepo.NewGormOutboxRepository(newTestDB(t))
	msg := newMessage(time.Now())
	require.NoError(t, repo.Add(ctx, msg))

	require.NoError(t, repo.MarkPublished(ctx, msg.ID, time.Now()))

	claimed, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	err = repo.MarkPublished(ctx, msg.ID, time.Now())
	require.ErrorIs(t, err, errs.ErrObjectNotFound, "publishing twice should be reported")
}

func TestGormOutboxRepository_MarkAttemptFailed_KeepsPending(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := outboxrepo.NewGormOutboxRepository(db)
	msg := newMessage(time.Now())
	require.NoError(t, repo.Add(ctx, msg))

	require.NoError(t, repo.MarkAttemptFailed(ctx, msg.ID, errors.New("redis down")))
	require.NoError(t, repo.MarkAttemptFailed(ctx, msg.ID, errors.New(strings.Repeat("x", 5000))))

	claimed, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 2, claimed[0].Attempts)

	var dto outboxrepo.MessageDTO
	require.NoError(t, db.First(&dto, "id = ?", msg.ID.Raw()).Error)
	assert.Len(t, dto.LastError, 1024)
}

func TestGormOutboxRepository_UnknownMessage(t *testing.T) {
	ctx := context.Background()
	repo := outboxrepo.NewGormOutboxRepository(newTestDB(t))

	require.ErrorIs(t, repo.MarkPublished(ctx, kernel.NewUUID(), time.Now()), errs.ErrObjectNotFound)
	require.ErrorIs(t, repo.MarkAttemptFailed(ctx, kernel.NewUUID(), nil), errs.ErrObjectNotFound)
}

func TestGormOutboxRepository_Validation(t *testing.T) {
	ctx := context.Background()
	repo := outboxrepo.NewGormOutboxRepository(newTestDB(t))

	msg := newMessage(time.Now())
	msg.Payload = nil
	require.ErrorIs(t, repo.Add(ctx, msg), errs.ErrValueIsRequired)

	require.ErrorIs(t, repo.Add(ctx, ports.OutboxMessage{Payload: []byte("x")}), kernel.ErrUUIDIsNotConstructed)

	_, err := repo.ClaimPending(ctx, 0)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}
