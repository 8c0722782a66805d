package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) commands.Clock {
	return func() time.Time { return t }
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(
	ctx context.Context,
	id kernel.UUID,
	from, to order.Status,
	at time.Time,
) (bool, error) {
	args := m.Called(ctx, id, from, to, at)
	return args.Bool(0), args.Error(1)
}

type MockOutboxRepository struct{ mock.Mock }

func (m *MockOutboxRepository) Add(ctx context.Context, msg ports.OutboxMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockOutboxRepository) ClaimPending(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	args := m.Called(ctx, limit)
	msgs, _ := args.Get(0).([]ports.OutboxMessage)
	return msgs, args.Error(1)
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id kernel.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkAttemptFailed(ctx context.Context, id kernel.UUID, cause error) error {
	args := m.Called(ctx, id, cause)
	return args.Error(0)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockOrderUoW) OutboxRepository() ports.OutboxRepository {
	args := m.Called()
	return args.Get(0).(ports.OutboxRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockWorkQueue struct{ mock.Mock }

func (m *MockWorkQueue) Push(ctx context.Context, payload []byte) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockWorkQueue) Pop(ctx context.Context, timeout time.Duration) (ports.Delivery, error) {
	args := m.Called(ctx, timeout)
	return args.Get(0).(ports.Delivery), args.Error(1)
}

func (m *MockWorkQueue) Renew(ctx context.Context, d ports.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockWorkQueue) Ack(ctx context.Context, d ports.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

type MockStatusPublisher struct{ mock.Mock }

func (m *MockStatusPublisher) PublishStatusChange(ctx context.Context, change ports.StatusChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

// fakeOrderRepository is an in-memory store with switchable failures, used where a
// sequence of reads and compare-and-set writes matters more than call expectations.
type fakeOrderRepository struct {
	mu        sync.Mutex
	orders    map[kernel.UUID]*order.Order
	updateErr error
	getErr    error
	history   []order.Status
}

func newFakeOrderRepository(orders ...*order.Order) *fakeOrderRepository {
	r := &fakeOrderRepository{orders: make(map[kernel.UUID]*order.Order)}
	for _, o := range orders {
		r.orders[o.ID()] = o
	}
	return r
}

func (r *fakeOrderRepository) Add(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID()] = o
	return nil
}

func (r *fakeOrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	stored, ok := r.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.RestoreOrder(stored.ID(), stored.ItemName(), stored.Quantity(), stored.Status(),
		stored.CreatedAt(), stored.UpdatedAt())
}

func (r *fakeOrderRepository) UpdateStatus(
	_ context.Context,
	id kernel.UUID,
	from, to order.Status,
	at time.Time,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return false, r.updateErr
	}
	stored, ok := r.orders[id]
	if !ok || stored.Status() != from {
		return false, nil
	}
	updated, err := order.RestoreOrder(stored.ID(), stored.ItemName(), stored.Quantity(), to, stored.CreatedAt(), at)
	if err != nil {
		return false, err
	}
	r.orders[id] = updated
	r.history = append(r.history, to)
	return true, nil
}

func (r *fakeOrderRepository) status(id kernel.UUID) order.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Status()
}

// stubFulfiller returns a fixed outcome, or panics when panicWith is set.
type stubFulfiller struct {
	fulfilled bool
	err       error
	panicWith any
	calls     int
}

func (f *stubFulfiller) Fulfill(context.Context, *order.Order) (bool, error) {
	f.calls++
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.fulfilled, f.err
}
