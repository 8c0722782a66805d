// Package jobs provides the scheduled background tasks of the worker process.
//
// Jobs are driven by github.com/robfig/cron/v3 with second-level schedules.
//
// # Available Jobs
//
// 1. LeaseReaperJob - every 5 seconds returns unacknowledged deliveries whose lease
// expired to the work queue
// 2. OutboxRelayJob - every second (and on every outbox notification) pushes pending
// outbox messages onto the work queue
//
// # Usage
//
//	jobManager := jobs.NewJobManager(logger,
//		jobs.NewLeaseReaperJob(workQueue, logger),
//		jobs.NewOutboxRelayJob(relayHandler, batchSize, logger),
//	)
//
//	if err := jobManager.StartAll(); err != nil {
//		return fmt.Errorf("start jobs: %w", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - A failed run is logged and retried on the next tick
// - A run that is still going when the next tick fires is skipped
// - Panics inside a run are recovered and logged
// - Failed job starts stop any already running jobs
package jobs
