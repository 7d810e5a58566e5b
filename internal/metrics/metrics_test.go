package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewMetricsDoesNotPanic verifies that creating metrics against a fresh
// registry completes without panicking.
func TestNewMetricsDoesNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		m := NewMetrics(reg)
		require.NotNil(t, m)
	})
}

// TestMetricsCanBeIncremented verifies that representative metrics from each
// category can be used after registration.
func TestMetricsCanBeIncremented(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ProbesTotal.WithLabelValues("1", "success").Inc()
	m.ProbeDuration.WithLabelValues("1").Observe(0.2)
	m.ActiveProbers.Set(3)
	m.TransitionsTotal.WithLabelValues("1").Inc()

	m.ObservationsProcessedTotal.WithLabelValues("1").Inc()
	m.ControlMessagesProcessedTotal.WithLabelValues("add_server").Inc()
	m.ObservationChannelDepth.Set(4)

	m.NotificationsSentTotal.WithLabelValues("telegram", "success").Inc()
	m.NotificationDuration.WithLabelValues("telegram").Observe(0.1)
	m.NotifierBootstrapSkippedTotal.WithLabelValues("unknown_provider").Inc()

	m.RepositoryOperationDuration.WithLabelValues("insert_server_log").Observe(0.003)
	m.RepositoryOperationErrors.WithLabelValues("insert_server_log").Inc()

	m.CleanupRunsTotal.WithLabelValues("success").Inc()
	m.CleanupDuration.Observe(2.3)
	m.CleanupRecordsDeleted.Inc()
	m.CleanupRecordsEligible.Set(42)
	m.CleanupOldestRecordAge.Set(86400)

	m.StorageVolumeSizeBytes.Set(10737418240)
	m.StorageVolumeUsedBytes.Set(5368709120)
	m.StorageVolumeAvailableBytes.Set(5368709120)
	m.StorageVolumeUsagePercent.Set(50)
	m.StorageVolumeInodesTotal.Set(1000000)
	m.StorageVolumeInodesUsed.Set(50000)
	m.StoragePressure.WithLabelValues("warning").Set(1)
	m.DBSizeBytes.Set(1048576)

	m.ComponentUp.WithLabelValues("orchestrator").Set(1)
	m.ComponentLastSuccess.WithLabelValues("orchestrator").Set(1234567890)
	m.ComponentRestarts.WithLabelValues("orchestrator", "error").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Greater(t, len(families), 0, "expected at least one metric family to be gathered")
}

// TestNoDuplicateRegistration ensures that creating two separate Metrics
// instances on two fresh registries does not panic (no global state leaks).
func TestNoDuplicateRegistration(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	assert.NotPanics(t, func() {
		_ = NewMetrics(reg1)
	})
	assert.NotPanics(t, func() {
		_ = NewMetrics(reg2)
	})
}

// TestDuplicateRegistrationPanics verifies that registering metrics twice on
// the same registry panics, confirming we are using MustRegister correctly.
func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewMetrics(reg)

	assert.Panics(t, func() {
		_ = NewMetrics(reg)
	})
}

// TestRecordProbeHelper verifies the RecordProbe convenience method updates
// both the counter and the histogram.
func TestRecordProbeHelper(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NotPanics(t, func() {
		m.RecordProbe(42, "failure", 0.05)
		m.RecordTransition(42)
		m.RecordNotification("discord", "success", 0.2)
		m.RecordRepositoryCall("update_server_status", 0.01, nil)
	})
}
