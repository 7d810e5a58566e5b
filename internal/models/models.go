// Package models defines the data structures persisted and exchanged
// throughout the responsed monitoring core.
package models

import (
	"fmt"
	"time"
)

// Notifier provider constants. The provider registry is a closed set at
// the core level; new providers are added by registering a constructor in
// internal/notify, not by extending this list casually.
const (
	ProviderTelegram = "telegram"
	ProviderDiscord  = "discord"
)

// Server is a monitored HTTP(S) endpoint. It mirrors the servers table.
type Server struct {
	ID              int64     `json:"id"`
	OwnerUserID     int64     `json:"owner_user_id"`
	Name            string    `json:"name"`
	URL             string    `json:"url"`
	TimeoutSeconds  int       `json:"timeout"`
	IntervalSeconds int       `json:"interval"`
	IsEnabled       bool      `json:"is_enabled"`
	LastSeenStatus  *int      `json:"last_seen_status_code,omitempty"`
	LastSeenReason  *string   `json:"last_seen_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Timeout returns the configured per-probe timeout as a time.Duration.
func (s Server) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Interval returns the configured probe interval as a time.Duration.
func (s Server) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// LastSeenSuccess reports whether the server's persisted last-seen status
// code, if any, was a successful HTTP status. Absent status codes are
// treated as success so a freshly seeded server starts in the "up" state.
func (s Server) LastSeenSuccess() bool {
	if s.LastSeenStatus == nil {
		return true
	}
	return IsSuccess(*s.LastSeenStatus)
}

// IsSuccess reports whether code is in the HTTP success range [200, 300).
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

// ServerLog is one persisted probe observation. Rows are append-only: one
// is inserted for every observation delivered by a Prober, regardless of
// whether it changed the server's cached status.
type ServerLog struct {
	ID         int64     `json:"id"`
	ServerID   int64     `json:"server_id"`
	Failed     bool      `json:"failed"`
	StatusCode int       `json:"status_code"`
	Body       string    `json:"body,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ServerLogCreate carries the fields needed to insert a ServerLog row.
type ServerLogCreate struct {
	ServerID   int64
	Failed     bool
	StatusCode int
	Body       string
	Reason     string
}

// ServerLogLine is the rendering context handed to the TemplateEngine: the
// server snapshot paired with the log row that triggered a notification.
type ServerLogLine struct {
	Server Server    `json:"server"`
	Log    ServerLog `json:"log"`
}

// Notifier binds a server to a notification provider, its opaque
// credentials, and the message template used when it fires.
type Notifier struct {
	ID          int64     `json:"id"`
	OwnerUserID int64     `json:"owner_user_id"`
	ServerID    int64     `json:"server_id"`
	Provider    string    `json:"provider"`
	Credentials string    `json:"credentials"`
	Format      string    `json:"format"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TemplateKey derives the stable, notifier-scoped key the TemplateEngine
// registers this notifier's format under: "{id}.{server_id}.{user_id}.{provider}".
func (n Notifier) TemplateKey() string {
	return fmt.Sprintf("%d.%d.%d.%s", n.ID, n.ServerID, n.OwnerUserID, n.Provider)
}

// HealthResponse is the liveness probe body, carried over unchanged from
// the ambient health/metrics server.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse is the readiness probe body.
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}
