package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jerrydevmouse/responsed/internal/models"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

// SQLiteRepository implements Repository using SQLite with the go-sqlite3
// driver.
type SQLiteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// Ensure SQLiteRepository satisfies the Repository interface at compile time.
var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (or creates) a SQLite database at dbPath,
// applies PRAGMAs for WAL mode, incremental auto-vacuum, foreign keys, and a
// busy timeout, then creates the servers/server_logs/notifiers tables and
// their indexes if they do not already exist.
func NewSQLiteRepository(dbPath string, logger *zap.Logger) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Limit to a single connection so WAL mode works correctly for an
	// embedded database and we avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	r := &SQLiteRepository{
		db:     db,
		logger: logger,
	}

	if err := r.applyPragmas(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := r.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("sqlite repository initialised", zap.String("path", dbPath))
	return r, nil
}

// applyPragmas sets the SQLite PRAGMAs required for correct operation.
func (r *SQLiteRepository) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA auto_vacuum=INCREMENTAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := r.db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

// createSchema creates the servers, server_logs, and notifiers tables and
// their supporting indexes.
func (r *SQLiteRepository) createSchema() error {
	const createTables = `
CREATE TABLE IF NOT EXISTS servers (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_user_id        INTEGER NOT NULL,
    name                 TEXT NOT NULL UNIQUE,
    url                  TEXT NOT NULL,
    timeout_seconds      INTEGER NOT NULL DEFAULT 5,
    interval_seconds     INTEGER NOT NULL DEFAULT 30,
    is_enabled           INTEGER NOT NULL DEFAULT 1,
    last_seen_status_code INTEGER,
    last_seen_reason     TEXT,
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS server_logs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id    INTEGER NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
    failed       INTEGER NOT NULL,
    status_code  INTEGER NOT NULL,
    body         TEXT NOT NULL DEFAULT '',
    reason       TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notifiers (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_user_id  INTEGER NOT NULL,
    server_id      INTEGER NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
    provider       TEXT NOT NULL,
    credentials    TEXT NOT NULL DEFAULT '',
    format         TEXT NOT NULL DEFAULT '',
    active         INTEGER NOT NULL DEFAULT 1,
    created_at     TEXT NOT NULL,
    updated_at     TEXT NOT NULL
);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_server_logs_server_id ON server_logs (server_id);`,
		`CREATE INDEX IF NOT EXISTS idx_server_logs_created_at ON server_logs (created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_notifiers_server_id ON notifiers (server_id, active);`,
	}

	if _, err := r.db.Exec(createTables); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	for _, idx := range indexes {
		if _, err := r.db.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ping verifies the database connection is alive.
func (r *SQLiteRepository) Ping() error {
	return r.db.Ping()
}

// ListAllServers returns every persisted server row.
func (r *SQLiteRepository) ListAllServers() ([]models.Server, error) {
	const query = `SELECT
    id, owner_user_id, name, url, timeout_seconds, interval_seconds,
    is_enabled, last_seen_status_code, last_seen_reason, created_at, updated_at
FROM servers`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list all servers: %w", err)
	}
	defer rows.Close()

	var out []models.Server
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan server: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpdateServerStatus persists a server's observed last-seen status code and
// reason, along with a fresh updated_at timestamp.
func (r *SQLiteRepository) UpdateServerStatus(serverID int64, reason string, statusCode int) error {
	const query = `UPDATE servers SET last_seen_status_code = ?, last_seen_reason = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.Exec(query, statusCode, reason, time.Now().UTC().Format(time.RFC3339), serverID)
	if err != nil {
		return fmt.Errorf("update server status: %w", err)
	}
	return nil
}

// InsertServerLog appends a ServerLog row and returns it with its assigned
// id and timestamp.
func (r *SQLiteRepository) InsertServerLog(entry models.ServerLogCreate) (models.ServerLog, error) {
	now := time.Now().UTC()
	const query = `INSERT INTO server_logs (server_id, failed, status_code, body, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.Exec(query, entry.ServerID, boolToInt(entry.Failed), entry.StatusCode, entry.Body, entry.Reason, now.Format(time.RFC3339))
	if err != nil {
		return models.ServerLog{}, fmt.Errorf("insert server log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.ServerLog{}, fmt.Errorf("insert server log: last insert id: %w", err)
	}
	return models.ServerLog{
		ID:         id,
		ServerID:   entry.ServerID,
		Failed:     entry.Failed,
		StatusCode: entry.StatusCode,
		Body:       entry.Body,
		Reason:     entry.Reason,
		CreatedAt:  now,
	}, nil
}

// ListActiveNotifiers returns every notifier row with active = true.
func (r *SQLiteRepository) ListActiveNotifiers() ([]models.Notifier, error) {
	const query = `SELECT
    id, owner_user_id, server_id, provider, credentials, format, active, created_at, updated_at
FROM notifiers WHERE active = 1`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list active notifiers: %w", err)
	}
	defer rows.Close()

	var out []models.Notifier
	for rows.Next() {
		n, err := scanNotifier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notifier: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// GetCleanupEligible returns server_log rows older than retentionPeriod.
func (r *SQLiteRepository) GetCleanupEligible(retentionPeriod time.Duration) ([]models.ServerLog, error) {
	cutoff := time.Now().Add(-retentionPeriod).UTC().Format(time.RFC3339)
	const query = `SELECT id, server_id, failed, status_code, body, reason, created_at FROM server_logs WHERE created_at < ?`

	rows, err := r.db.Query(query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("get cleanup eligible: %w", err)
	}
	defer rows.Close()

	var out []models.ServerLog
	for rows.Next() {
		var l models.ServerLog
		var failed int
		var createdAt string
		if err := rows.Scan(&l.ID, &l.ServerID, &failed, &l.StatusCode, &l.Body, &l.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan server log: %w", err)
		}
		l.Failed = failed != 0
		l.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// DeleteServerLog permanently removes a server_log row by id.
func (r *SQLiteRepository) DeleteServerLog(id int64) error {
	const query = `DELETE FROM server_logs WHERE id = ?`
	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("delete server log: %w", err)
	}
	return nil
}

// RunIncrementalVacuum triggers an incremental vacuum to reclaim unused pages.
func (r *SQLiteRepository) RunIncrementalVacuum() error {
	_, err := r.db.Exec("PRAGMA incremental_vacuum")
	if err != nil {
		return fmt.Errorf("incremental vacuum: %w", err)
	}
	return nil
}

// GetDatabaseSizeBytes returns the current size of the database in bytes,
// computed as page_count * page_size.
func (r *SQLiteRepository) GetDatabaseSizeBytes() (int64, error) {
	var pageCount int64
	if err := r.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("page_count: %w", err)
	}
	var pageSize int64
	if err := r.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("page_size: %w", err)
	}
	return pageCount * pageSize, nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanServer(row rowScanner) (models.Server, error) {
	var s models.Server
	var lastSeenStatus sql.NullInt64
	var lastSeenReason sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&s.ID, &s.OwnerUserID, &s.Name, &s.URL, &s.TimeoutSeconds, &s.IntervalSeconds,
		&s.IsEnabled, &lastSeenStatus, &lastSeenReason, &createdAt, &updatedAt,
	)
	if err != nil {
		return models.Server{}, err
	}

	if lastSeenStatus.Valid {
		code := int(lastSeenStatus.Int64)
		s.LastSeenStatus = &code
	}
	if lastSeenReason.Valid {
		reason := lastSeenReason.String
		s.LastSeenReason = &reason
	}

	s.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Server{}, fmt.Errorf("parse created_at: %w", err)
	}
	s.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return models.Server{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return s, nil
}

func scanNotifier(row rowScanner) (models.Notifier, error) {
	var n models.Notifier
	var active int
	var createdAt, updatedAt string

	err := row.Scan(
		&n.ID, &n.OwnerUserID, &n.ServerID, &n.Provider, &n.Credentials, &n.Format,
		&active, &createdAt, &updatedAt,
	)
	if err != nil {
		return models.Notifier{}, err
	}
	n.Active = active != 0

	n.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Notifier{}, fmt.Errorf("parse created_at: %w", err)
	}
	n.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return models.Notifier{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
