package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"orderflow/internal/adapters/out/postgres"
	"orderflow/internal/core/application/usecases/commands"

	"github.com/joho/godotenv"
)

// Config is shared by the api and worker binaries.
type Config struct {
	HTTPPort int

	DBDriver     string
	DBHost       string
	DBPort       int
	DBUser       string
	DBPassword   string
	DBName       string
	DBSslMode    string
	DBSqlitePath string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	QueueName       string
	StatusChannel   string
	QueuePopTimeout time.Duration
	LeaseTTL        time.Duration

	ProcessingDelay   time.Duration
	SuccessRate       float64
	ReconnectDelay    time.Duration
	WorkerConcurrency int

	DispatchMode    commands.DispatchMode
	OutboxBatchSize int

	LogLevel slog.Level
}

// LoadConfig reads .env when present, then the process environment. Variables
// already set in the environment win over .env.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	r := envReader{}
	config := Config{
		HTTPPort:          r.integer("HTTP_PORT", 8000),
		DBDriver:          r.str("DB_DRIVER", postgres.DialectPostgres),
		DBHost:            r.str("DB_HOST", "localhost"),
		DBPort:            r.integer("DB_PORT", 5432),
		DBUser:            r.str("DB_USER", "postgres"),
		DBPassword:        r.str("DB_PASSWORD", "postgres"),
		DBName:            r.str("DB_NAME", "order_db"),
		DBSslMode:         r.str("DB_SSLMODE", "disable"),
		DBSqlitePath:      r.str("DB_SQLITE_PATH", "orderflow.db"),
		RedisHost:         r.str("REDIS_HOST", "localhost"),
		RedisPort:         r.integer("REDIS_PORT", 6379),
		RedisPassword:     r.str("REDIS_PASSWORD", ""),
		RedisDB:           r.integer("REDIS_DB", 0),
		QueueName:         r.str("QUEUE_NAME", "order_queue"),
		StatusChannel:     r.str("STATUS_CHANNEL", "order_status"),
		QueuePopTimeout:   r.duration("QUEUE_POP_TIMEOUT", 5*time.Second),
		LeaseTTL:          r.duration("LEASE_TTL", 60*time.Second),
		ProcessingDelay:   r.duration("PROCESSING_DELAY", 5*time.Second),
		SuccessRate:       r.number("SUCCESS_RATE", 0.9),
		ReconnectDelay:    r.duration("RECONNECT_DELAY", 5*time.Second),
		WorkerConcurrency: r.integer("WORKER_CONCURRENCY", 1),
		OutboxBatchSize:   r.integer("OUTBOX_BATCH_SIZE", 100),
	}

	mode, err := commands.ParseDispatchMode(r.str("DISPATCH_MODE", "direct"))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("DISPATCH_MODE: %w", err))
	}
	config.DispatchMode = mode

	if err := config.LogLevel.UnmarshalText([]byte(r.str("LOG_LEVEL", "info"))); err != nil {
		r.errs = append(r.errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks ranges that parsing alone does not catch.
func (c Config) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Errorf(format, args...))
		}
	}

	check(c.HTTPPort > 0 && c.HTTPPort < 65536, "HTTP_PORT: %d is not a valid port", c.HTTPPort)
	check(c.DBDriver == postgres.DialectPostgres || c.DBDriver == postgres.DialectSQLite,
		"DB_DRIVER: must be %q or %q, got %q", postgres.DialectPostgres, postgres.DialectSQLite, c.DBDriver)
	check(c.QueueName != "", "QUEUE_NAME: must not be empty")
	check(c.StatusChannel != "", "STATUS_CHANNEL: must not be empty")
	check(c.QueuePopTimeout >= time.Second, "QUEUE_POP_TIMEOUT: must be at least 1s, got %s", c.QueuePopTimeout)
	check(c.LeaseTTL > 0, "LEASE_TTL: must be positive, got %s", c.LeaseTTL)
	check(c.ProcessingDelay >= 0, "PROCESSING_DELAY: must not be negative, got %s", c.ProcessingDelay)
	check(c.LeaseTTL > c.ProcessingDelay,
		"LEASE_TTL: must exceed PROCESSING_DELAY (%s), got %s", c.ProcessingDelay, c.LeaseTTL)
	check(c.SuccessRate >= 0 && c.SuccessRate <= 1, "SUCCESS_RATE: must be within [0, 1], got %v", c.SuccessRate)
	check(c.ReconnectDelay > 0, "RECONNECT_DELAY: must be positive, got %s", c.ReconnectDelay)
	check(c.WorkerConcurrency >= 1, "WORKER_CONCURRENCY: must be at least 1, got %d", c.WorkerConcurrency)
	check(c.OutboxBatchSize >= 1 && c.OutboxBatchSize <= commands.MaxRelayBatchSize,
		"OUTBOX_BATCH_SIZE: must be within [1, %d], got %d", commands.MaxRelayBatchSize, c.OutboxBatchSize)

	return errors.Join(problems...)
}

// DatabaseDSN is the connection string handed to postgres.Open.
func (c Config) DatabaseDSN() string {
	if c.DBDriver == postgres.DialectSQLite {
		return c.DBSqlitePath
	}
	return postgres.PostgresDSN(c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (c Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort))
}

// NewLogger builds the process logger: JSON on stdout.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// envReader collects parse errors so that every bad variable is reported at once.
type envReader struct {
	errs []error
}

func (r *envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (r *envReader) number(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

// duration accepts Go durations ("1500ms", "2m") and plain numbers of seconds ("5", "0.5").
func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}
