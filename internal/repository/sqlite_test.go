package repository

import (
	"testing"
	"time"

	"github.com/jerrydevmouse/responsed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestRepository creates an in-memory SQLite repository for testing.
func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	logger := zap.NewNop()
	r, err := NewSQLiteRepository(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func insertTestServer(t *testing.T, r *SQLiteRepository, name string) int64 {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := r.db.Exec(
		`INSERT INTO servers (owner_user_id, name, url, timeout_seconds, interval_seconds, is_enabled, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		1, name, "http://example.com/"+name, 5, 30, 1, now, now,
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestListAllServers(t *testing.T) {
	r := newTestRepository(t)
	insertTestServer(t, r, "a")
	insertTestServer(t, r, "b")

	servers, err := r.ListAllServers()
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Equal(t, "a", servers[0].Name)
	assert.True(t, servers[0].IsEnabled)
	assert.Nil(t, servers[0].LastSeenStatus)
	assert.Nil(t, servers[0].LastSeenReason)
}

func TestUpdateServerStatus(t *testing.T) {
	r := newTestRepository(t)
	id := insertTestServer(t, r, "a")

	require.NoError(t, r.UpdateServerStatus(id, "HTTP 500", 500))

	servers, err := r.ListAllServers()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	require.NotNil(t, servers[0].LastSeenStatus)
	assert.Equal(t, 500, *servers[0].LastSeenStatus)
	require.NotNil(t, servers[0].LastSeenReason)
	assert.Equal(t, "HTTP 500", *servers[0].LastSeenReason)
}

func TestInsertServerLog(t *testing.T) {
	r := newTestRepository(t)
	id := insertTestServer(t, r, "a")

	log, err := r.InsertServerLog(models.ServerLogCreate{
		ServerID:   id,
		Failed:     false,
		StatusCode: 200,
		Body:       "ok",
	})
	require.NoError(t, err)
	assert.NotZero(t, log.ID)
	assert.Equal(t, id, log.ServerID)
	assert.False(t, log.Failed)
	assert.Equal(t, 200, log.StatusCode)
	assert.Equal(t, "ok", log.Body)
}

func TestListActiveNotifiers(t *testing.T) {
	r := newTestRepository(t)
	serverID := insertTestServer(t, r, "a")
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := r.db.Exec(
		`INSERT INTO notifiers (owner_user_id, server_id, provider, credentials, format, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		1, serverID, models.ProviderTelegram, `{"chat_id":1,"token":"t"}`, "{{log.status_code}}", 1, now, now,
	)
	require.NoError(t, err)
	_, err = r.db.Exec(
		`INSERT INTO notifiers (owner_user_id, server_id, provider, credentials, format, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		1, serverID, models.ProviderDiscord, `{"webhook_url":"http://x"}`, "{{log.status_code}}", 0, now, now,
	)
	require.NoError(t, err)

	notifiers, err := r.ListActiveNotifiers()
	require.NoError(t, err)
	require.Len(t, notifiers, 1)
	assert.Equal(t, models.ProviderTelegram, notifiers[0].Provider)
	assert.True(t, notifiers[0].Active)
}

func TestGetCleanupEligibleAndDelete(t *testing.T) {
	r := newTestRepository(t)
	serverID := insertTestServer(t, r, "a")

	old := time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339)
	_, err := r.db.Exec(
		`INSERT INTO server_logs (server_id, failed, status_code, body, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		serverID, 0, 200, "ok", "", old,
	)
	require.NoError(t, err)

	_, err = r.InsertServerLog(models.ServerLogCreate{ServerID: serverID, StatusCode: 200})
	require.NoError(t, err)

	eligible, err := r.GetCleanupEligible(48 * time.Hour)
	require.NoError(t, err)
	require.Len(t, eligible, 1)

	require.NoError(t, r.DeleteServerLog(eligible[0].ID))

	remaining, err := r.GetCleanupEligible(48 * time.Hour)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRunIncrementalVacuumAndDatabaseSize(t *testing.T) {
	r := newTestRepository(t)
	insertTestServer(t, r, "a")

	require.NoError(t, r.RunIncrementalVacuum())

	size, err := r.GetDatabaseSizeBytes()
	require.NoError(t, err)
	assert.Greater(t, size, int64(0))
}

func TestPing(t *testing.T) {
	r := newTestRepository(t)
	assert.NoError(t, r.Ping())
}
