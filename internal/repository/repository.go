// Package repository defines the persistence boundary consumed by the
// monitoring core: the narrow read/write contract over Server, ServerLog,
// and Notifier rows that internal/monitor and internal/notify depend on.
package repository

import (
	"time"

	"github.com/jerrydevmouse/responsed/internal/models"
)

// Repository is the capability the orchestrator depends on. Implementations
// must be safe for concurrent use by multiple goroutines. All operations
// may fail; errors wrap the underlying storage error with %w.
type Repository interface {
	// Close releases any resources held by the repository.
	Close() error

	// Ping verifies the underlying storage is reachable.
	Ping() error

	// ListAllServers returns every persisted server row, used at
	// orchestrator startup to seed the status cache and spawn probers.
	ListAllServers() ([]models.Server, error)

	// UpdateServerStatus persists a server's observed last-seen status
	// code and reason. Called only on a cache transition.
	UpdateServerStatus(serverID int64, reason string, statusCode int) error

	// InsertServerLog appends a ServerLog row for every observation
	// delivered by a Prober, regardless of whether it transitioned.
	InsertServerLog(entry models.ServerLogCreate) (models.ServerLog, error)

	// ListActiveNotifiers returns every notifier row with active = true,
	// used by NotifyManager.Bootstrap.
	ListActiveNotifiers() ([]models.Notifier, error)

	// GetCleanupEligible returns ServerLog rows older than retentionPeriod,
	// eligible for retention cleanup.
	GetCleanupEligible(retentionPeriod time.Duration) ([]models.ServerLog, error)

	// DeleteServerLog permanently removes a ServerLog row by id.
	DeleteServerLog(id int64) error

	// RunIncrementalVacuum triggers an incremental vacuum to reclaim
	// unused pages.
	RunIncrementalVacuum() error

	// GetDatabaseSizeBytes returns the current on-disk size of the
	// repository's backing store in bytes.
	GetDatabaseSizeBytes() (int64, error)
}
