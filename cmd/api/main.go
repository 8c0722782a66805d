package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderflow/cmd"
	httpadapter "orderflow/internal/adapters/in/http"

	"github.com/labstack/gommon/log"
)

const shutdownTimeout = 10 * time.Second

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

	if err := startWebServer(ctx, app, logger); err != nil {
		logger.Error("Web server failed", "error", err)
		os.Exit(1)
	}
}

func startWebServer(ctx context.Context, app *cmd.CompositionRoot, logger *slog.Logger) error {
	doc, err := httpadapter.LoadOpenAPI(ctx)
	if err != nil {
		return fmt.Errorf("load API document: %w", err)
	}

	hub := httpadapter.NewStatusHub(logger)
	go func() {
		if err := hub.Relay(ctx, app.CreateStatusSubscriber()); err != nil {
			logger.Error("Status stream stopped", "error", err)
		}
	}()

	server := httpadapter.NewServer(
		app.CreateCreateOrderCommandHandler(),
		app.CreateGetOrderQueryHandler(),
		app.CreateListOrdersQueryHandler(),
		app.CreateGetOrderStatsQueryHandler(),
		httpadapter.PingFunc(app.PingDatabase),
		httpadapter.PingFunc(app.PingRedis),
		logger,
	)
	e := httpadapter.NewRouter(server, hub, doc, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening",
			"port", app.Config().HTTPPort,
			"dispatch_mode", app.Config().DispatchMode.String(),
		)
		errCh <- e.Start(fmt.Sprintf("0.0.0.0:%d", app.Config().HTTPPort))
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	hub.Close()
	return e.Shutdown(shutdownCtx)
}
