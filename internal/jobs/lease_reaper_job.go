package jobs

import (
	"context"
	"log/slog"

	"orderflow/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// LeaseReaperSchedule runs the reaper every 5 seconds.
const LeaseReaperSchedule = "*/5 * * * * *"

// LeaseReaperJob requeues deliveries that a worker took but never acknowledged,
// for instance because it crashed mid-order.
type LeaseReaperJob struct {
	reclaimer ports.LeaseReclaimer
	cron      *cron.Cron
	logger    *slog.Logger
}

func NewLeaseReaperJob(reclaimer ports.LeaseReclaimer, logger *slog.Logger) *LeaseReaperJob {
	logger = logger.With("component", "lease_reaper_job")
	return &LeaseReaperJob{
		reclaimer: reclaimer,
		cron:      newCron(logger),
		logger:    logger,
	}
}

func (j *LeaseReaperJob) Name() string {
	return "lease reaper"
}

func (j *LeaseReaperJob) Start() error {
	if _, err := j.cron.AddFunc(LeaseReaperSchedule, j.run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Lease reaper job started", "schedule", LeaseReaperSchedule)
	return nil
}

// Stop waits for a running sweep to finish.
func (j *LeaseReaperJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Lease reaper job stopped")
}

func (j *LeaseReaperJob) run() {
	ctx := context.Background()

	n, err := j.reclaimer.ReclaimExpired(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Lease reaper job failed", "error", err)
		return
	}
	if n > 0 {
		j.logger.WarnContext(ctx, "Requeued deliveries with expired leases", "count", n)
	}
}
