package ports

import (
	"context"
)

// UnitOfWorkFactory creates a fresh UnitOfWork per command so concurrent requests
// never share a transaction.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a transaction boundary. Repositories it returns are bound to the
// transaction opened by Begin.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns an error if no transaction is active or the commit fails.
	Commit(ctx context.Context) error

	// Rollback aborts the current transaction. Calling it after Commit is a no-op
	// that returns an error, so callers may always defer it.
	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository

	OutboxRepository() OutboxRepository
}
