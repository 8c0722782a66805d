package queries_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "orderflow/internal/adapters/out/postgres"
	"orderflow/internal/adapters/out/postgres/orderrepo"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := postgres_adapter.Open(postgres_adapter.DialectSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, postgres_adapter.Migrate(db))
	t.Cleanup(func() { _ = postgres_adapter.Close(db) })

	return db
}

// seed stores one order per status in the list, each a minute newer than the last.
func seed(t *testing.T, db *gorm.DB, statuses ...order.Status) []*order.Order {
	t.Helper()
	ctx := context.Background()
	repo := orderrepo.NewGormOrderRepository(db)

	orders := make([]*order.Order, 0, len(statuses))
	for i, status := range statuses {
		createdAt := baseTime.Add(time.Duration(i) * time.Minute)
		o, err := order.NewOrder(kernel.NewUUID(), "Item", i+1, createdAt)
		require.NoError(t, err)
		require.NoError(t, repo.Add(ctx, o))

		path := map[order.Status][]order.Status{
			order.Processing: {order.Processing},
			order.Completed:  {order.Processing, order.Completed},
			order.Failed:     {order.Processing, order.Failed},
		}[status]
		from := order.Pending
		for _, to := range path {
			changed, err := repo.UpdateStatus(ctx, o.ID(), from, to, createdAt.Add(time.Second))
			require.NoError(t, err)
			require.True(t, changed)
			from = to
		}

		orders = append(orders, o)
	}
	return orders
}

func TestGetOrderQueryHandler(t *testing.T) {
	db := newTestDB(t)
	seeded := seed(t, db, order.Completed)
	handler := queries.NewGetOrderQueryHandler(db)

	t.Run("should return the stored order", func(t *testing.T) {
		query, err := queries.NewGetOrderQuery(seeded[0].ID())
		require.NoError(t, err)

		view, err := handler.Handle(context.Background(), query)
		require.NoError(t, err)
		assert.True(t, seeded[0].ID().IsEqual(view.ID))
		assert.Equal(t, "Item", view.ItemName)
		assert.Equal(t, 1, view.Quantity)
		assert.Equal(t, order.Completed, view.Status)
		assert.True(t, view.CreatedAt.Equal(baseTime))
		assert.True(t, view.UpdatedAt.Equal(baseTime.Add(time.Second)))
		assert.Equal(t, time.UTC, view.CreatedAt.Location())
	})

	t.Run("should report a missing order", func(t *testing.T) {
		query, err := queries.NewGetOrderQuery(kernel.NewUUID())
		require.NoError(t, err)

		_, err = handler.Handle(context.Background(), query)
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("should reject an unconstructed query", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), queries.GetOrderQuery{})
		require.ErrorIs(t, err, queries.ErrGetOrderQueryIsNotConstructed)
	})
}

func TestNewListOrdersQuery(t *testing.T) {
	unknown := order.Unknown
	failed := order.Failed

	tests := []struct {
		name      string
		status    *order.Status
		limit     int
		wantLimit int
		wantErr   error
	}{
		{name: "default limit", limit: 0, wantLimit: queries.DefaultListLimit},
		{name: "max limit", limit: queries.MaxListLimit, wantLimit: queries.MaxListLimit},
		{name: "with status", status: &failed, limit: 5, wantLimit: 5},
		{name: "limit too large", limit: queries.MaxListLimit + 1, wantErr: errs.ErrValueIsOutOfRange},
		{name: "negative limit", limit: -1, wantErr: errs.ErrValueIsOutOfRange},
		{name: "unknown status", status: &unknown, limit: 5, wantErr: errs.ErrValueIsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := queries.NewListOrdersQuery(tt.status, tt.limit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, query.Limit())
			_, hasStatus := query.Status()
			assert.Equal(t, tt.status != nil, hasStatus)
		})
	}
}

func TestListOrdersQueryHandler(t *testing.T) {
	db := newTestDB(t)
	seeded := seed(t, db, order.Pending, order.Failed, order.Completed, order.Failed)
	handler := queries.NewListOrdersQueryHandler(db)

	t.Run("should list newest first", func(t *testing.T) {
		query, err := queries.NewListOrdersQuery(nil, 0)
		require.NoError(t, err)

		views, err := handler.Handle(context.Background(), query)
		require.NoError(t, err)
		require.Len(t, views, 4)
		for i, view := range views {
			assert.True(t, seeded[len(seeded)-1-i].ID().IsEqual(view.ID))
		}
	})

	t.Run("should filter by status", func(t *testing.T) {
		failed := order.Failed
		query, err := queries.NewListOrdersQuery(&failed, 0)
		require.NoError(t, err)

		views, err := handler.Handle(context.Background(), query)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.True(t, seeded[3].ID().IsEqual(views[0].ID))
		assert.True(t, seeded[1].ID().IsEqual(views[1].ID))
	})

	t.Run("should apply the limit", func(t *testing.T) {
		query, err := queries.NewListOrdersQuery(nil, 1)
		require.NoError(t, err)

		views, err := handler.Handle(context.Background(), query)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.True(t, seeded[3].ID().IsEqual(views[0].ID))
	})

	t.Run("should return an empty list when nothing matches", func(t *testing.T) {
		processing := order.Processing
		query, err := queries.NewListOrdersQuery(&processing, 0)
		require.NoError(t, err)

		views, err := handler.Handle(context.Background(), query)
		require.NoError(t, err)
		assert.NotNil(t, views)
		assert.Empty(t, views)
	})
}

func TestGetOrderStatsQueryHandler(t *testing.T) {
	t.Run("should count per status", func(t *testing.T) {
		db := newTestDB(t)
		seed(t, db, order.Pending, order.Pending, order.Processing, order.Completed, order.Failed, order.Failed, order.Failed)

		stats, err := queries.NewGetOrderStatsQueryHandler(db).
			Handle(context.Background(), queries.NewGetOrderStatsQuery())
		require.NoError(t, err)
		assert.Equal(t, queries.GetOrderStatsQueryResponse{
			Total:      7,
			Pending:    2,
			Processing: 1,
			Completed:  1,
			Failed:     3,
		}, stats)
	})

	t.Run("should return zeros for an empty store", func(t *testing.T) {
		stats, err := queries.NewGetOrderStatsQueryHandler(newTestDB(t)).
			Handle(context.Background(), queries.NewGetOrderStatsQuery())
		require.NoError(t, err)
		assert.Zero(t, stats)
	})
}
