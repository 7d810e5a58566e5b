package repository

import (
	"time"

	"github.com/jerrydevmouse/responsed/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a testify/mock implementation of the Repository
// interface, used by internal/monitor and internal/notify tests.
type MockRepository struct {
	mock.Mock
}

// Ensure MockRepository satisfies the Repository interface at compile time.
var _ Repository = (*MockRepository)(nil)

// Close mocks the Close method.
func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Ping mocks the Ping method.
func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// ListAllServers mocks the ListAllServers method.
func (m *MockRepository) ListAllServers() ([]models.Server, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Server), args.Error(1)
}

// UpdateServerStatus mocks the UpdateServerStatus method.
func (m *MockRepository) UpdateServerStatus(serverID int64, reason string, statusCode int) error {
	args := m.Called(serverID, reason, statusCode)
	return args.Error(0)
}

// InsertServerLog mocks the InsertServerLog method.
func (m *MockRepository) InsertServerLog(entry models.ServerLogCreate) (models.ServerLog, error) {
	args := m.Called(entry)
	if args.Get(0) == nil {
		return models.ServerLog{}, args.Error(1)
	}
	return args.Get(0).(models.ServerLog), args.Error(1)
}

// ListActiveNotifiers mocks the ListActiveNotifiers method.
func (m *MockRepository) ListActiveNotifiers() ([]models.Notifier, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notifier), args.Error(1)
}

// GetCleanupEligible mocks the GetCleanupEligible method.
func (m *MockRepository) GetCleanupEligible(retentionPeriod time.Duration) ([]models.ServerLog, error) {
	args := m.Called(retentionPeriod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServerLog), args.Error(1)
}

// DeleteServerLog mocks the DeleteServerLog method.
func (m *MockRepository) DeleteServerLog(id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

// RunIncrementalVacuum mocks the RunIncrementalVacuum method.
func (m *MockRepository) RunIncrementalVacuum() error {
	args := m.Called()
	return args.Error(0)
}

// GetDatabaseSizeBytes mocks the GetDatabaseSizeBytes method.
func (m *MockRepository) GetDatabaseSizeBytes() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}
