// Package metrics defines and registers all Prometheus metrics used by the
// responsed service. Metrics are organised by functional area and share
// the common "monitor_" prefix.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus collector used by responsed.
type Metrics struct {
	// ---------------------------------------------------------------
	// Probing
	// ---------------------------------------------------------------

	// ProbesTotal counts probes issued, labeled by server and outcome.
	ProbesTotal *prometheus.CounterVec

	// ProbeDuration observes the time taken to complete a single probe.
	ProbeDuration *prometheus.HistogramVec

	// ActiveProbers tracks the current number of running Prober goroutines.
	ActiveProbers prometheus.Gauge

	// TransitionsTotal counts status transitions detected by the
	// observation loop.
	TransitionsTotal *prometheus.CounterVec

	// ---------------------------------------------------------------
	// Observation / control loops
	// ---------------------------------------------------------------

	// ObservationsProcessedTotal counts observations consumed by the
	// observation loop.
	ObservationsProcessedTotal *prometheus.CounterVec

	// ControlMessagesProcessedTotal counts control messages consumed by
	// the control loop, labeled by kind.
	ControlMessagesProcessedTotal *prometheus.CounterVec

	// ObservationChannelDepth tracks the current depth of the
	// observation fan-in channel.
	ObservationChannelDepth prometheus.Gauge

	// ---------------------------------------------------------------
	// Notification
	// ---------------------------------------------------------------

	// NotificationsSentTotal counts notifications dispatched, labeled by
	// provider and outcome.
	NotificationsSentTotal *prometheus.CounterVec

	// NotificationDuration observes the time taken to render and deliver
	// a notification.
	NotificationDuration *prometheus.HistogramVec

	// NotifierBootstrapSkippedTotal counts notifiers skipped at bootstrap
	// due to invalid providers or construction failures.
	NotifierBootstrapSkippedTotal *prometheus.CounterVec

	// ---------------------------------------------------------------
	// Repository
	// ---------------------------------------------------------------

	// RepositoryOperationDuration observes repository call latencies.
	RepositoryOperationDuration *prometheus.HistogramVec

	// RepositoryOperationErrors counts repository call failures.
	RepositoryOperationErrors *prometheus.CounterVec

	// ---------------------------------------------------------------
	// Cleanup
	// ---------------------------------------------------------------

	CleanupRunsTotal       *prometheus.CounterVec
	CleanupDuration        prometheus.Histogram
	CleanupRecordsDeleted  prometheus.Counter
	CleanupRecordsEligible prometheus.Gauge
	CleanupOldestRecordAge prometheus.Gauge

	// ---------------------------------------------------------------
	// Storage
	// ---------------------------------------------------------------

	StorageVolumeSizeBytes      prometheus.Gauge
	StorageVolumeUsedBytes      prometheus.Gauge
	StorageVolumeAvailableBytes prometheus.Gauge
	StorageVolumeUsagePercent   prometheus.Gauge
	StorageVolumeInodesTotal    prometheus.Gauge
	StorageVolumeInodesUsed     prometheus.Gauge
	StoragePressure             *prometheus.GaugeVec
	DBSizeBytes                 prometheus.Gauge

	// ---------------------------------------------------------------
	// Component Health
	// ---------------------------------------------------------------

	ComponentUp           *prometheus.GaugeVec
	ComponentLastSuccess  *prometheus.GaugeVec
	ComponentRestarts     *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics with the supplied
// registerer. Pass prometheus.DefaultRegisterer for global registration or a
// custom registry for testing.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{}

	// -------------------------------------------------------------------
	// Probing metrics
	// -------------------------------------------------------------------

	m.ProbesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_probes_total",
		Help: "Total number of probes issued.",
	}, []string{"server_id", "outcome"})
	registerer.MustRegister(m.ProbesTotal)

	m.ProbeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "monitor_probe_duration_seconds",
		Help:    "Time taken to complete a single probe.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"server_id"})
	registerer.MustRegister(m.ProbeDuration)

	m.ActiveProbers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_active_probers",
		Help: "Current number of running Prober goroutines.",
	})
	registerer.MustRegister(m.ActiveProbers)

	m.TransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_transitions_total",
		Help: "Total status transitions detected.",
	}, []string{"server_id"})
	registerer.MustRegister(m.TransitionsTotal)

	// -------------------------------------------------------------------
	// Loop metrics
	// -------------------------------------------------------------------

	m.ObservationsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_observations_processed_total",
		Help: "Total observations consumed by the observation loop.",
	}, []string{"server_id"})
	registerer.MustRegister(m.ObservationsProcessedTotal)

	m.ControlMessagesProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_control_messages_processed_total",
		Help: "Total control messages consumed by the control loop.",
	}, []string{"kind"})
	registerer.MustRegister(m.ControlMessagesProcessedTotal)

	m.ObservationChannelDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_observation_channel_depth",
		Help: "Current depth of the observation fan-in channel.",
	})
	registerer.MustRegister(m.ObservationChannelDepth)

	// -------------------------------------------------------------------
	// Notification metrics
	// -------------------------------------------------------------------

	m.NotificationsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_notifications_sent_total",
		Help: "Total notifications dispatched.",
	}, []string{"provider", "outcome"})
	registerer.MustRegister(m.NotificationsSentTotal)

	m.NotificationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "monitor_notification_duration_seconds",
		Help:    "Time taken to render and deliver a notification.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"provider"})
	registerer.MustRegister(m.NotificationDuration)

	m.NotifierBootstrapSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_notifier_bootstrap_skipped_total",
		Help: "Notifiers skipped at bootstrap due to invalid provider or construction failure.",
	}, []string{"reason"})
	registerer.MustRegister(m.NotifierBootstrapSkippedTotal)

	// -------------------------------------------------------------------
	// Repository metrics
	// -------------------------------------------------------------------

	m.RepositoryOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "monitor_repository_operation_duration_seconds",
		Help:    "Duration of repository operations.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
	}, []string{"operation"})
	registerer.MustRegister(m.RepositoryOperationDuration)

	m.RepositoryOperationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_repository_operation_errors_total",
		Help: "Repository operation errors.",
	}, []string{"operation"})
	registerer.MustRegister(m.RepositoryOperationErrors)

	// -------------------------------------------------------------------
	// Cleanup metrics
	// -------------------------------------------------------------------

	m.CleanupRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_cleanup_runs_total",
		Help: "Total cleanup runs by status.",
	}, []string{"status"})
	registerer.MustRegister(m.CleanupRunsTotal)

	m.CleanupDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "monitor_cleanup_duration_seconds",
		Help:    "Duration of each cleanup run.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
	})
	registerer.MustRegister(m.CleanupDuration)

	m.CleanupRecordsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_cleanup_records_deleted_total",
		Help: "Total number of server_log rows deleted by cleanup.",
	})
	registerer.MustRegister(m.CleanupRecordsDeleted)

	m.CleanupRecordsEligible = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_cleanup_records_eligible",
		Help: "Current number of records eligible for cleanup.",
	})
	registerer.MustRegister(m.CleanupRecordsEligible)

	m.CleanupOldestRecordAge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_cleanup_oldest_record_age_seconds",
		Help: "Age in seconds of the oldest record eligible for cleanup.",
	})
	registerer.MustRegister(m.CleanupOldestRecordAge)

	// -------------------------------------------------------------------
	// Storage metrics
	// -------------------------------------------------------------------

	m.StorageVolumeSizeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_storage_volume_size_bytes",
		Help: "Total size of the storage volume in bytes.",
	})
	registerer.MustRegister(m.StorageVolumeSizeBytes)

	m.StorageVolumeUsedBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_storage_volume_used_bytes",
		Help: "Used bytes on the storage volume.",
	})
	registerer.MustRegister(m.StorageVolumeUsedBytes)

	m.StorageVolumeAvailableBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_storage_volume_available_bytes",
		Help: "Available bytes on the storage volume.",
	})
	registerer.MustRegister(m.StorageVolumeAvailableBytes)

	m.StorageVolumeUsagePercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_storage_volume_usage_percent",
		Help: "Usage percentage of the storage volume.",
	})
	registerer.MustRegister(m.StorageVolumeUsagePercent)

	m.StorageVolumeInodesTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_storage_volume_inodes_total",
		Help: "Total number of inodes on the storage volume.",
	})
	registerer.MustRegister(m.StorageVolumeInodesTotal)

	m.StorageVolumeInodesUsed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_storage_volume_inodes_used",
		Help: "Number of used inodes on the storage volume.",
	})
	registerer.MustRegister(m.StorageVolumeInodesUsed)

	m.StoragePressure = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "monitor_storage_pressure",
		Help: "Storage pressure indicator by severity level.",
	}, []string{"severity"})
	registerer.MustRegister(m.StoragePressure)

	m.DBSizeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_db_size_bytes",
		Help: "Size of the repository database file in bytes.",
	})
	registerer.MustRegister(m.DBSizeBytes)

	// -------------------------------------------------------------------
	// Component health metrics
	// -------------------------------------------------------------------

	m.ComponentUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "monitor_component_up",
		Help: "Whether a component is healthy (1) or not (0).",
	}, []string{"component"})
	registerer.MustRegister(m.ComponentUp)

	m.ComponentLastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "monitor_component_last_success_timestamp",
		Help: "Unix timestamp of each component's last successful operation.",
	}, []string{"component"})
	registerer.MustRegister(m.ComponentLastSuccess)

	m.ComponentRestarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_component_restarts_total",
		Help: "Total component restarts.",
	}, []string{"component", "reason"})
	registerer.MustRegister(m.ComponentRestarts)

	return m
}

// New creates a Metrics instance registered against the default Prometheus
// registry. This is a convenience wrapper for use in production code and
// tests that do not need an isolated registry.
func New() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// RecordProbe records the outcome of a single probe.
func (m *Metrics) RecordProbe(serverID int64, outcome string, duration float64) {
	label := fmt.Sprintf("%d", serverID)
	m.ProbesTotal.WithLabelValues(label, outcome).Inc()
	m.ProbeDuration.WithLabelValues(label).Observe(duration)
}

// RecordTransition increments the transition counter for a server.
func (m *Metrics) RecordTransition(serverID int64) {
	m.TransitionsTotal.WithLabelValues(fmt.Sprintf("%d", serverID)).Inc()
}

// RecordNotification records the outcome of a single notification dispatch.
func (m *Metrics) RecordNotification(provider, outcome string, duration float64) {
	m.NotificationsSentTotal.WithLabelValues(provider, outcome).Inc()
	m.NotificationDuration.WithLabelValues(provider).Observe(duration)
}

// RecordRepositoryCall records the latency and outcome of a repository
// operation.
func (m *Metrics) RecordRepositoryCall(operation string, duration float64, err error) {
	m.RepositoryOperationDuration.WithLabelValues(operation).Observe(duration)
	if err != nil {
		m.RepositoryOperationErrors.WithLabelValues(operation).Inc()
	}
}
