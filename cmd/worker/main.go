package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-chaldduck/internal/app"
	"github.com/noah-isme/backend-chaldduck/internal/config"
	"github.com/noah-isme/backend-chaldduck/internal/lock"
	"github.com/noah-isme/backend-chaldduck/internal/obs"
	"github.com/noah-isme/backend-chaldduck/internal/policy"
)

const (
	taskSnapshotWarm = "policy:snapshot_warm"
	taskPolicySweep  = "policy:sweep"
	sweepLockKey     = "lock:policy-sweep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "chaldduck")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	store := &policy.Store{DB: pool}
	snapshots := &policy.SnapshotLoader{
		Store: store,
		Cache: policy.NewCache(redisClient, cfg.SnapshotCacheTTL),
	}
	locker := lock.Locker{R: redisClient, RetryBackoff: 100 * time.Millisecond}

	scheduler, err := app.NewTaskScheduler(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise task scheduler")
	}
	if _, err := scheduler.Register(everySpec(cfg.SnapshotWarmInterval), asynq.NewTask(taskSnapshotWarm, nil)); err != nil {
		logger.Fatal().Err(err).Msg("register snapshot warm task")
	}
	if _, err := scheduler.Register(everySpec(cfg.PolicySweepInterval), asynq.NewTask(taskPolicySweep, nil)); err != nil {
		logger.Fatal().Err(err).Msg("register policy sweep task")
	}

	srv, err := app.NewTaskServer(cfg.RedisURL, 2)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise task server")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(taskSnapshotWarm, warmSnapshots(snapshots, logger))
	mux.HandleFunc(taskPolicySweep, sweepExpiredPolicies(store, snapshots, locker, cfg.PolicySweepInterval, logger))

	logger.Info().
		Dur("warm_interval", cfg.SnapshotWarmInterval).
		Dur("sweep_interval", cfg.PolicySweepInterval).
		Msg("worker starting")

	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start task scheduler")
	}
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}

	<-ctx.Done()
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func everySpec(interval time.Duration) string {
	return fmt.Sprintf("@every %s", interval)
}

// warmSnapshots keeps the active-rule snapshot cache populated so quote
// requests rarely fall through to Postgres.
func warmSnapshots(snapshots *policy.SnapshotLoader, logger zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		if _, err := snapshots.Refresh(ctx, time.Now()); err != nil {
			logger.Error().Err(err).Msg("warm policy snapshot")
			return err
		}
		if obs.SnapshotRefreshTotal != nil {
			obs.SnapshotRefreshTotal.WithLabelValues("warm").Inc()
		}
		return nil
	}
}

// sweepExpiredPolicies deactivates policies whose window has passed and
// invalidates the snapshot when any row changed. The sweep runs under a
// distributed lock so replicated workers do not race each other.
func sweepExpiredPolicies(store *policy.Store, snapshots *policy.SnapshotLoader, locker lock.Locker, lockTTL time.Duration, logger zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		err := locker.WithLock(ctx, sweepLockKey, lockTTL, func(ctx context.Context) error {
			count, err := store.DeactivateExpiredPolicies(ctx, time.Now())
			if err != nil {
				return err
			}
			if count == 0 {
				return nil
			}
			logger.Info().Int64("deactivated", count).Msg("expired policies swept")
			if obs.PolicySweepDeactivated != nil {
				obs.PolicySweepDeactivated.Add(float64(count))
			}
			snapshots.Invalidate(ctx)
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error().Err(err).Msg("sweep expired policies")
			return err
		}
		return nil
	}
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
