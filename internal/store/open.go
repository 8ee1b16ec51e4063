package store

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var (
	_ weather.LocalStore = (*MemoryStore)(nil)
	_ weather.LocalStore = (*RedisStore)(nil)
	_ weather.LocalStore = (*PostgresStore)(nil)
)

// Options selects and configures a LocalStore backend.
type Options struct {
	Backend     string
	RedisURL    string
	RedisPrefix string
	DatabaseURL string

	// ConnectAttempts bounds the startup ping loop; 0 means 10.
	ConnectAttempts uint
	ConnectDelay    time.Duration
}

// Open builds the configured backend. The returned close func is never nil.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (weather.LocalStore, func(), error) {
	noop := func() {}

	switch opts.Backend {
	case "", BackendMemory:
		logger.Info("using in-memory local store")
		return NewMemoryStore(), noop, nil

	case BackendRedis:
		client, err := ConnectRedis(ctx, opts, logger)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}
		return NewRedisStore(client, opts.RedisPrefix), closeFn, nil

	case BackendPostgres:
		pool, err := ConnectPostgres(ctx, opts, logger)
		if err != nil {
			return nil, noop, err
		}
		s := NewPostgresStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return s, pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// ConnectRedis parses the URL and pings until the server answers.
func ConnectRedis(ctx context.Context, opts Options, logger *zap.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	err = retry.Do(
		func() error { return client.Ping(ctx).Err() },
		connectRetryOptions(ctx, opts, logger, "redis")...,
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", opt.Addr))
	return client, nil
}

// ConnectPostgres opens a pool and pings until the database answers.
func ConnectPostgres(ctx context.Context, opts Options, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid database url: %w", err)
	}

	err = retry.Do(
		func() error { return pool.Ping(ctx) },
		connectRetryOptions(ctx, opts, logger, "postgres")...,
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}

	logger.Info("postgres connected")
	return pool, nil
}

func connectRetryOptions(ctx context.Context, opts Options, logger *zap.Logger, backend string) []retry.Option {
	attempts := opts.ConnectAttempts
	if attempts == 0 {
		attempts = 10
	}
	delay := opts.ConnectDelay
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("store connection attempt failed",
				zap.String("backend", backend),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	}
}

// Health pings backends that support it. The memory store is always healthy.
func Health(ctx context.Context, local weather.LocalStore) error {
	if h, ok := local.(interface{ Health(context.Context) error }); ok {
		return h.Health(ctx)
	}
	return nil
}
