package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"orderflow/cmd"
	"orderflow/internal/adapters/in/consumer"
	"orderflow/internal/jobs"

	"github.com/labstack/gommon/log"
)

func main() {
	config, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := cmd.NewLogger(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cmd.ConnectCompositionRoot(ctx, config, logger)
	if err != nil {
		logger.Error("Startup aborted", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to close clients", "error", err)
		}
	}()

	if err := runWorkers(ctx, app, logger); err != nil {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
}

func runWorkers(ctx context.Context, app *cmd.CompositionRoot, logger *slog.Logger) error {
	relayJob := app.CreateOutboxRelayJob()
	jobManager := jobs.NewJobManager(logger, app.CreateLeaseReaperJob(), relayJob)
	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	listener, err := app.CreateOutboxListener()
	if err != nil {
		return err
	}
	if listener != nil {
		defer func() { _ = listener.Close() }()
		go listener.Run(ctx, relayJob.Trigger)
	}

	pool := consumer.NewPool(app.CreateWorkers()...)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown requested, finishing in-flight orders")
		pool.Stop()
	}()

	logger.Info("Workers running",
		"concurrency", app.Config().WorkerConcurrency,
		"queue", app.Config().QueueName,
	)
	return pool.Run(ctx)
}
