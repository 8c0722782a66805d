package postgres

import (
	"context"
	"log/slog"
	"time"

	"orderflow/internal/adapters/out/postgres/outboxrepo"

	"github.com/lib/pq"
)

const (
	listenerMinReconnect = 1 * time.Second
	listenerMaxReconnect = 30 * time.Second
	listenerPingInterval = 90 * time.Second
)

// OutboxListener turns pg_notify signals on the order_outbox channel into relay
// wake-ups. Signals are hints; the relay also polls on its own schedule.
type OutboxListener struct {
	listener *pq.Listener
	logger   *slog.Logger
}

// NewOutboxListener opens a dedicated lib/pq connection and subscribes to the
// outbox channel. dsn must be a PostgreSQL connection string.
func NewOutboxListener(dsn string, logger *slog.Logger) (*OutboxListener, error) {
	logger = logger.With("component", "outbox_listener")

	listener := pq.NewListener(dsn, listenerMinReconnect, listenerMaxReconnect,
		func(event pq.ListenerEventType, err error) {
			switch event {
			case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
				logger.Warn("Outbox listener connection lost", "error", err)
			case pq.ListenerEventReconnected:
				logger.Info("Outbox listener reconnected")
			}
		},
	)

	if err := listener.Listen(outboxrepo.NotifyChannel); err != nil {
		_ = listener.Close()
		return nil, err
	}

	return &OutboxListener{listener: listener, logger: logger}, nil
}

// Run calls wake for every notification until ctx is done. After a reconnect wake is
// called once as well, since notifications sent while disconnected are lost.
func (l *OutboxListener) Run(ctx context.Context, wake func()) {
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-l.listener.Notify:
			if !ok {
				return
			}
			if n != nil {
				l.logger.DebugContext(ctx, "Outbox notification received", "order_id", n.Extra)
			}
			// pq sends nil after re-establishing the connection.
			wake()
		case <-ticker.C:
			if err := l.listener.Ping(); err != nil {
				l.logger.WarnContext(ctx, "Outbox listener ping failed", "error", err)
			}
		}
	}
}

// Close unsubscribes and closes the connection.
func (l *OutboxListener) Close() error {
	return l.listener.Close()
}
