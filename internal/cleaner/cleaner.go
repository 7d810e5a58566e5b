// Package cleaner implements the periodic retention-cleanup loop that
// removes ServerLog rows older than the configured retention period, so the
// log table does not grow unbounded.
package cleaner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jerrydevmouse/responsed/internal/config"
	"github.com/jerrydevmouse/responsed/internal/metrics"
	"github.com/jerrydevmouse/responsed/internal/repository"
)

// Cleaner periodically deletes ServerLog rows older than the configured
// retention period and reclaims disk space via an incremental vacuum.
type Cleaner struct {
	repo    repository.Repository
	cfg     *config.Config
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a new Cleaner with the provided dependencies.
func New(repo repository.Repository, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *Cleaner {
	return &Cleaner{repo: repo, cfg: cfg, metrics: m, logger: logger}
}

// Start begins the cleanup loop, running at the configured cleanup
// interval. The loop stops when ctx is cancelled.
func (c *Cleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Retention.CleanupInterval.Duration)
	defer ticker.Stop()

	c.logger.Info("cleaner started",
		zap.Duration("cleanup_interval", c.cfg.Retention.CleanupInterval.Duration),
		zap.Duration("retention_period", c.cfg.Retention.RetentionPeriod.Duration),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cleaner stopping", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			if err := c.Cleanup(ctx); err != nil {
				c.logger.Error("cleanup failed", zap.Error(err))
			}
		}
	}
}

// Cleanup performs a single cleanup pass: it queries ServerLog rows older
// than the retention period, deletes each, and runs an incremental vacuum
// to reclaim space.
func (c *Cleaner) Cleanup(ctx context.Context) error {
	start := time.Now()

	eligible, err := c.repo.GetCleanupEligible(c.cfg.Retention.RetentionPeriod.Duration)
	if err != nil {
		c.metrics.CleanupRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("querying cleanup-eligible logs: %w", err)
	}

	c.metrics.CleanupRecordsEligible.Set(float64(len(eligible)))

	if len(eligible) == 0 {
		c.logger.Debug("no server logs eligible for cleanup")
		c.metrics.CleanupRunsTotal.WithLabelValues("success").Inc()
		c.metrics.CleanupDuration.Observe(time.Since(start).Seconds())
		return nil
	}

	var oldestAge time.Duration
	for _, log := range eligible {
		age := time.Since(log.CreatedAt)
		if age > oldestAge {
			oldestAge = age
		}
	}
	c.metrics.CleanupOldestRecordAge.Set(oldestAge.Seconds())

	deleted := 0
	for _, log := range eligible {
		select {
		case <-ctx.Done():
			c.logger.Info("cleanup interrupted by context cancellation",
				zap.Int("deleted_so_far", deleted),
			)
			c.metrics.CleanupRunsTotal.WithLabelValues("interrupted").Inc()
			return ctx.Err()
		default:
		}

		if err := c.repo.DeleteServerLog(log.ID); err != nil {
			c.logger.Error("failed to delete server log",
				zap.Int64("id", log.ID),
				zap.Int64("server_id", log.ServerID),
				zap.Error(err),
			)
			continue
		}
		deleted++
	}

	c.metrics.CleanupRecordsDeleted.Add(float64(deleted))

	if err := c.repo.RunIncrementalVacuum(); err != nil {
		c.logger.Error("incremental vacuum failed", zap.Error(err))
	}

	duration := time.Since(start)
	c.metrics.CleanupDuration.Observe(duration.Seconds())
	c.metrics.CleanupRunsTotal.WithLabelValues("success").Inc()

	c.logger.Info("cleanup completed",
		zap.Int("eligible", len(eligible)),
		zap.Int("deleted", deleted),
		zap.Duration("duration", duration),
	)

	return nil
}
