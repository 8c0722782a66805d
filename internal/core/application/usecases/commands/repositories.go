// Package commands contains the write-side use cases of the order pipeline: creating
// and dispatching orders, transitioning their status, processing task messages and
// relaying the outbox. Every command is built through a validating constructor and
// executed by a handler that owns transaction and side-effect ordering.
package commands

import (
	"context"
	"time"

	"orderflow/internal/core/ports"
)

// Unit of Work interfaces narrow ports.UnitOfWork to what command handlers need.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides the order repository bound to the transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// OutboxRepoFactory provides the outbox repository bound to the transaction.
	OutboxRepoFactory interface {
		OutboxRepository() ports.OutboxRepository
	}

	// OrderUoW spans orders and their outbox markers, so an order and its pending
	// enqueue can be committed together.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   _ = uow.OrderRepository().Add(ctx, o)
	//   _ = uow.OutboxRepository().Add(ctx, msg)
	//
	//   err = uow.Commit(ctx)
	OrderUoW interface {
		TxManager
		OrderRepoFactory
		OutboxRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}
)

// Clock returns the current time. Handlers default to time.Now.
type Clock func() time.Time
