package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"orderflow/internal/adapters/in/consumer"
	"orderflow/internal/adapters/out/fulfillment"
	"orderflow/internal/adapters/out/notify"
	"orderflow/internal/adapters/out/postgres"
	"orderflow/internal/adapters/out/queue"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/jobs"
	"orderflow/internal/pkg/retry"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot owns the shared clients of a process and builds every handler,
// worker and job from them.
type CompositionRoot struct {
	config      Config
	logger      *slog.Logger
	gormDB      *gorm.DB
	redisClient *redis.Client
	uowFactory  *postgres.GormUnitOfWorkFactory
	queue       *queue.RedisWorkQueue
	fulfiller   *fulfillment.RandomFulfiller
}

// NewCompositionRoot opens and pings the store and Redis, and migrates the schema.
// Anything opened before a failure is closed again.
func NewCompositionRoot(ctx context.Context, config Config, logger *slog.Logger) (*CompositionRoot, error) {
	fulfiller, err := fulfillment.NewRandomFulfiller(config.ProcessingDelay, config.SuccessRate, 2*config.LeaseTTL)
	if err != nil {
		return nil, fmt.Errorf("configure fulfiller: %w", err)
	}

	gormDB, err := postgres.Open(config.DBDriver, config.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", config.DBDriver, err)
	}
	if err := pingDatabase(ctx, gormDB); err != nil {
		_ = postgres.Close(gormDB)
		return nil, fmt.Errorf("ping %s store: %w", config.DBDriver, err)
	}
	if err := postgres.Migrate(gormDB); err != nil {
		_ = postgres.Close(gormDB)
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		_ = postgres.Close(gormDB)
		return nil, fmt.Errorf("ping redis at %s: %w", config.RedisAddr(), err)
	}

	return &CompositionRoot{
		config:      config,
		logger:      logger,
		gormDB:      gormDB,
		redisClient: redisClient,
		uowFactory:  postgres.NewGormUnitOfWorkFactory(gormDB),
		queue:       queue.NewRedisWorkQueue(redisClient, config.QueueName, config.LeaseTTL),
		fulfiller:   fulfiller,
	}, nil
}

// ConnectCompositionRoot retries NewCompositionRoot every RECONNECT_DELAY until it
// succeeds or ctx is cancelled. Configuration errors are not retried.
func ConnectCompositionRoot(ctx context.Context, config Config, logger *slog.Logger) (*CompositionRoot, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var root *CompositionRoot
	err := retry.Forever(ctx, config.ReconnectDelay, logger.With("component", "startup"), func(ctx context.Context) error {
		var err error
		root, err = NewCompositionRoot(ctx, config, logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Connected to store and queue",
		"db_driver", config.DBDriver,
		"redis", config.RedisAddr(),
		"queue", config.QueueName,
	)
	return root, nil
}

func (c *CompositionRoot) Config() Config {
	return c.config
}

// Close releases Redis and the database pool. Both are attempted.
func (c *CompositionRoot) Close() error {
	return errors.Join(c.redisClient.Close(), postgres.Close(c.gormDB))
}

// PingDatabase and PingRedis back the health endpoint.
func (c *CompositionRoot) PingDatabase(ctx context.Context) error {
	return pingDatabase(ctx, c.gormDB)
}

func (c *CompositionRoot) PingRedis(ctx context.Context) error {
	return c.redisClient.Ping(ctx).Err()
}

func pingDatabase(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Commands

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.queue, c.config.DispatchMode)
}

func (c *CompositionRoot) CreateTransitionOrderStatusCommandHandler() commands.TransitionOrderStatusCommandHandler {
	publisher := notify.NewRedisStatusPublisher(c.redisClient, c.config.StatusChannel)
	return commands.NewTransitionOrderStatusCommandHandler(c.uowFactory.Create().OrderRepository(), publisher, c.logger)
}

func (c *CompositionRoot) CreateProcessOrderCommandHandler(workerName string) commands.ProcessOrderCommandHandler {
	return commands.NewProcessOrderCommandHandler(
		c.uowFactory.Create().OrderRepository(),
		c.CreateTransitionOrderStatusCommandHandler(),
		c.fulfiller,
		workerName,
		c.logger,
	)
}

func (c *CompositionRoot) CreateRelayOutboxCommandHandler() commands.RelayOutboxCommandHandler {
	return commands.NewRelayOutboxCommandHandler(c.orderUoWFactory(), c.queue, c.logger)
}

// Queries

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetOrderStatsQueryHandler() queries.GetOrderStatsQueryHandler {
	return queries.NewGetOrderStatsQueryHandler(c.gormDB)
}

// Worker side

// CreateWorkers builds WORKER_CONCURRENCY workers named worker-1, worker-2, ...
func (c *CompositionRoot) CreateWorkers() []*consumer.Worker {
	workers := make([]*consumer.Worker, c.config.WorkerConcurrency)
	for i := range workers {
		name := fmt.Sprintf("worker-%d", i+1)
		workers[i] = consumer.NewWorker(
			name,
			c.queue,
			c.CreateProcessOrderCommandHandler(name),
			c.config.QueuePopTimeout,
			c.config.ReconnectDelay,
			c.config.LeaseTTL,
			c.logger,
		)
	}
	return workers
}

func (c *CompositionRoot) CreateLeaseReaperJob() *jobs.LeaseReaperJob {
	return jobs.NewLeaseReaperJob(c.queue, c.logger)
}

func (c *CompositionRoot) CreateOutboxRelayJob() *jobs.OutboxRelayJob {
	return jobs.NewOutboxRelayJob(c.CreateRelayOutboxCommandHandler(), c.config.OutboxBatchSize, c.logger)
}

// CreateOutboxListener returns nil when the store is not PostgreSQL; the relay then
// relies on its schedule alone.
func (c *CompositionRoot) CreateOutboxListener() (*postgres.OutboxListener, error) {
	if c.config.DBDriver != postgres.DialectPostgres {
		return nil, nil
	}
	return postgres.NewOutboxListener(c.config.DatabaseDSN(), c.logger)
}

// API side

func (c *CompositionRoot) CreateStatusSubscriber() *notify.RedisStatusSubscriber {
	return notify.NewRedisStatusSubscriber(c.redisClient, c.config.StatusChannel, c.logger)
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
