package jobs

import (
	"context"
	"log/slog"
	"sync"

	"orderflow/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// OutboxRelaySchedule runs the relay every second.
const OutboxRelaySchedule = "* * * * * *"

// OutboxRelayer is satisfied by commands.RelayOutboxCommandHandler.
type OutboxRelayer interface {
	Handle(ctx context.Context, cmd commands.RelayOutboxCommand) (int, error)
}

// OutboxRelayJob moves committed outbox messages onto the work queue. Besides its
// schedule it can be woken by Trigger, which the PostgreSQL listener calls on every
// notification.
type OutboxRelayJob struct {
	relayer OutboxRelayer
	command commands.RelayOutboxCommand
	cron    *cron.Cron
	logger  *slog.Logger

	// mu serialises scheduled and triggered runs within this process.
	mu sync.Mutex
}

// NewOutboxRelayJob panics on a batch size outside 1..commands.MaxRelayBatchSize;
// configuration is validated before jobs are built.
func NewOutboxRelayJob(relayer OutboxRelayer, batchSize int, logger *slog.Logger) *OutboxRelayJob {
	cmd, err := commands.NewRelayOutboxCommand(batchSize)
	if err != nil {
		panic(err)
	}

	logger = logger.With("component", "outbox_relay_job")
	return &OutboxRelayJob{
		relayer: relayer,
		command: cmd,
		cron:    newCron(logger),
		logger:  logger,
	}
}

func (j *OutboxRelayJob) Name() string {
	return "outbox relay"
}

func (j *OutboxRelayJob) Start() error {
	if _, err := j.cron.AddFunc(OutboxRelaySchedule, j.Run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Outbox relay job started", "schedule", OutboxRelaySchedule)
	return nil
}

// Stop waits for a scheduled run to finish.
func (j *OutboxRelayJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Outbox relay job stopped")
}

// Trigger starts a run in the background unless one is already in progress.
func (j *OutboxRelayJob) Trigger() {
	go j.Run()
}

// Run relays batches until the backlog is drained or a batch fails. A concurrent
// call returns immediately.
func (j *OutboxRelayJob) Run() {
	if !j.mu.TryLock() {
		return
	}
	defer j.mu.Unlock()

	ctx := context.Background()
	for {
		published, err := j.relayer.Handle(ctx, j.command)
		if err != nil {
			j.logger.ErrorContext(ctx, "Outbox relay job failed", "error", err)
			return
		}
		if published > 0 {
			j.logger.InfoContext(ctx, "Relayed outbox messages", "count", published)
		}
		if published < j.command.BatchSize() {
			return
		}
	}
}
