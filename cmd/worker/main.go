package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	hhttp "claim-navigator/internal/handler/http/respond"
	pgRepo "claim-navigator/internal/infra/adapter/persistence/postgres"
	"claim-navigator/internal/infra/db"
	workerPkg "claim-navigator/internal/infra/worker"
	"claim-navigator/internal/observability/logging"
	"claim-navigator/internal/observability/metrics"
	"claim-navigator/internal/repository"
	"claim-navigator/internal/resilience/retry"
	"claim-navigator/pkg/config"
	"claim-navigator/pkg/ratelimit"
)

// waitForMigrations blocks until the API has created the schema. The
// worker never migrates on its own, it only probes for a table the
// migrations create.
func waitForMigrations(logger *slog.Logger, db *sql.DB) {
	const (
		probe    = "SELECT 1 FROM rate_windows LIMIT 1"
		attempts = 10
		interval = 3 * time.Second
	)
	for i := 1; i <= attempts; i++ {
		if _, err := db.Exec(probe); err == nil {
			return
		}
		logger.Info("schema not ready, waiting for migrations",
			slog.Int("attempt", i),
			slog.Duration("retry_in", interval))
		time.Sleep(interval)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("usage_retention_months", workerConfig.UsageRetentionMonths),
		slog.Duration("job_timeout", workerConfig.JobTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	storeConfig, err := config.LoadStoreConfig()
	if err != nil {
		logger.Error("failed to load store configuration", slog.Any("error", err))
		os.Exit(1)
	}

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	jobs := &maintenance{
		logger:   logger,
		cfg:      workerConfig,
		metrics:  workerMetrics,
		maxAge:   storeConfig.CleanupMaxAge,
		counters: pgRepo.NewCounterStore(database),
		quotas:   pgRepo.NewQuotaRepo(database),
		stats:    pgRepo.NewStatsRepo(database),
		db:       database,
	}

	runCronWorker(ctx, logger, jobs, workerConfig, healthServer)
}

// initLogger builds the JSON logger and installs it as the slog
// default so package-level logging shares it.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and waits for migrations to complete.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	waitForMigrations(logger, database)
	return database
}

// runCronWorker starts the cron scheduler and blocks until shutdown.
func runCronWorker(ctx context.Context, logger *slog.Logger, jobs *maintenance, cfg *workerPkg.WorkerConfig, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, jobs.run)
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	// Mark as ready after cron is set up
	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	healthServer.SetReady(false)
	logger.Info("shutdown signal received, waiting for running jobs")

	// Stop returns a context that is done once in-flight jobs finish.
	select {
	case <-c.Stop().Done():
	case <-time.After(cfg.JobTimeout):
		logger.Warn("running jobs did not finish before shutdown timeout")
	}
	logger.Info("worker stopped")
}

// maintenance holds the dependencies for one scheduled maintenance run.
type maintenance struct {
	logger  *slog.Logger
	cfg     *workerPkg.WorkerConfig
	metrics *workerPkg.WorkerMetrics

	// maxAge is how far past its window end a rate counter must be
	// before cleanup removes it.
	maxAge time.Duration

	counters ratelimit.CounterStore
	quotas   repository.QuotaRepository
	stats    *pgRepo.StatsRepo
	db       *sql.DB
}

// run executes one maintenance cycle: rate window cleanup, usage record
// retention, and gauge refresh, in parallel under a shared timeout.
func (m *maintenance) run() {
	startTime := time.Now()
	m.metrics.RecordRun("started")
	m.logger.Info("maintenance started")

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.JobTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.cleanupRateWindows(ctx) })
	g.Go(func() error { return m.purgeUsageRecords(ctx) })
	g.Go(func() error { return m.refreshStats(ctx) })

	if err := g.Wait(); err != nil {
		m.logger.Error("maintenance failed", slog.String("error", hhttp.SanitizeError(err)))
		m.metrics.RecordRun("failure")
		m.metrics.RecordRunDuration(time.Since(startTime).Seconds())
		return
	}

	m.metrics.RecordRun("success")
	m.metrics.RecordRunDuration(time.Since(startTime).Seconds())
	m.metrics.RecordLastSuccess()
	m.logger.Info("maintenance completed", slog.Duration("duration", time.Since(startTime)))
}

// cleanupRateWindows removes rate counters whose window expired more
// than maxAge ago. Keys with an outstanding escalation block survive
// cleanup regardless of window age.
func (m *maintenance) cleanupRateWindows(ctx context.Context) error {
	startTime := time.Now()

	before, err := m.counters.KeyCount(ctx)
	if err != nil {
		metrics.RecordMaintenanceJobError("rate_window_cleanup", "key_count")
		return fmt.Errorf("rate window cleanup: %w", err)
	}

	cutoff := time.Now().Add(-m.maxAge)
	err = retry.WithBackoff(ctx, retry.DBConfig(), func() error {
		return m.counters.Cleanup(ctx, cutoff)
	})
	if err != nil {
		metrics.RecordMaintenanceJobError("rate_window_cleanup", "delete")
		return fmt.Errorf("rate window cleanup: %w", err)
	}

	after, err := m.counters.KeyCount(ctx)
	if err != nil {
		metrics.RecordMaintenanceJobError("rate_window_cleanup", "key_count")
		return fmt.Errorf("rate window cleanup: %w", err)
	}

	purged := int64(before - after)
	metrics.RecordRateWindowsPurged(purged)
	metrics.RecordMaintenanceJob("rate_window_cleanup", time.Since(startTime))

	m.logger.Info("rate window cleanup completed",
		slog.Int64("purged", purged),
		slog.Int("remaining", after),
		slog.Time("cutoff", cutoff))
	return nil
}

// purgeUsageRecords deletes feature usage records older than the
// configured retention. Months compare lexicographically, so the cutoff
// is the oldest month key to keep.
func (m *maintenance) purgeUsageRecords(ctx context.Context) error {
	startTime := time.Now()

	cutoffMonth := time.Now().UTC().AddDate(0, -m.cfg.UsageRetentionMonths, 0).Format("2006-01")
	var deleted int64
	err := retry.WithBackoff(ctx, retry.DBConfig(), func() error {
		var delErr error
		deleted, delErr = m.quotas.DeleteBefore(ctx, cutoffMonth)
		return delErr
	})
	if err != nil {
		metrics.RecordMaintenanceJobError("usage_retention", "delete")
		return fmt.Errorf("usage retention: %w", err)
	}

	metrics.RecordUsageRecordsPurged(deleted)
	metrics.RecordMaintenanceJob("usage_retention", time.Since(startTime))

	m.logger.Info("usage retention completed",
		slog.Int64("deleted", deleted),
		slog.String("cutoff_month", cutoffMonth))
	return nil
}

// refreshStats updates the business gauges exported by the worker.
func (m *maintenance) refreshStats(ctx context.Context) error {
	startTime := time.Now()

	users, err := m.stats.CountUsers(ctx)
	if err != nil {
		metrics.RecordMaintenanceJobError("stats_refresh", "count_users")
		return fmt.Errorf("stats refresh: %w", err)
	}
	metrics.UpdateUsersTotal(users)

	records, err := m.stats.CountUsageRecords(ctx)
	if err != nil {
		metrics.RecordMaintenanceJobError("stats_refresh", "count_usage_records")
		return fmt.Errorf("stats refresh: %w", err)
	}
	metrics.UpdateUsageRecordsTotal(records)

	poolStats := m.db.Stats()
	metrics.UpdateDBConnectionStats(poolStats.InUse, poolStats.Idle)

	metrics.RecordMaintenanceJob("stats_refresh", time.Since(startTime))

	m.logger.Debug("stats refresh completed",
		slog.Int("users", users),
		slog.Int("usage_records", records))
	return nil
}
