package notify

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jerrydevmouse/responsed/internal/metrics"
	"github.com/jerrydevmouse/responsed/internal/models"
	"github.com/jerrydevmouse/responsed/internal/repository"
	"go.uber.org/zap"
)

// notifierMeta is the in-memory record kept per registered notifier.
type notifierMeta struct {
	serverID  int64
	provider  string
	key       string
	transport NotifierTransport
}

// Manager maps a server id to its set of configured notifiers, builds
// transport instances from credentials, and dispatches rendered messages to
// them on demand. State is protected by a readers-writer lock: notify takes
// the read side, every mutation takes the write side.
type Manager struct {
	mu        sync.RWMutex
	byID      map[int64]notifierMeta
	byServer  map[int64]map[int64]struct{}
	templates *TemplateEngine
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewManager returns an empty Manager.
func NewManager(logger *zap.Logger, m *metrics.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		byID:      make(map[int64]notifierMeta),
		byServer:  make(map[int64]map[int64]struct{}),
		templates: NewTemplateEngine(),
		logger:    logger,
		metrics:   m,
	}
}

// Bootstrap replaces the manager's state from persistence: every active
// notifier is resolved, its transport constructed, and its template
// registered. An entry with an unknown provider or a construction failure
// is logged and skipped; it does not abort the bootstrap.
func (m *Manager) Bootstrap(repo repository.Repository) error {
	notifiers, err := repo.ListActiveNotifiers()
	if err != nil {
		return fmt.Errorf("notify: bootstrap: list active notifiers: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = make(map[int64]notifierMeta)
	m.byServer = make(map[int64]map[int64]struct{})

	for _, n := range notifiers {
		if err := m.addLocked(n); err != nil {
			m.logger.Warn("skipping notifier at bootstrap",
				zap.Int64("notifier_id", n.ID),
				zap.String("provider", n.Provider),
				zap.Error(err))
			if m.metrics != nil {
				reason := "construction_failure"
				if errors.Is(err, ErrUnknownProvider) {
					reason = "unknown_provider"
				}
				m.metrics.NotifierBootstrapSkippedTotal.WithLabelValues(reason).Inc()
			}
			continue
		}
	}
	return nil
}

// Add resolves the notifier's provider, constructs its transport, registers
// its template, and inserts it into both indexes.
func (m *Manager) Add(n models.Notifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(n)
}

// addLocked assumes m.mu is already held for writing.
func (m *Manager) addLocked(n models.Notifier) error {
	transport, err := BuildTransport(n.Provider, n.Credentials)
	if err != nil {
		return err
	}

	key := n.TemplateKey()
	if err := m.templates.Register(key, n.Format); err != nil {
		return err
	}

	m.byID[n.ID] = notifierMeta{serverID: n.ServerID, provider: n.Provider, key: key, transport: transport}
	if m.byServer[n.ServerID] == nil {
		m.byServer[n.ServerID] = make(map[int64]struct{})
	}
	m.byServer[n.ServerID][n.ID] = struct{}{}
	return nil
}

// RemoveByNotifierID removes a notifier from both indexes, pruning its
// per-server set if it becomes empty. A missing id is a no-op.
func (m *Manager) RemoveByNotifierID(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta, ok := m.byID[id]
	if !ok {
		return
	}
	delete(m.byID, id)
	m.templates.Unregister(meta.key)

	set := m.byServer[meta.serverID]
	delete(set, id)
	if len(set) == 0 {
		delete(m.byServer, meta.serverID)
	}
}

// RemoveByServerID removes every notifier registered to serverID.
func (m *Manager) RemoveByServerID(serverID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.byServer[serverID]
	if !ok {
		return
	}
	for id := range set {
		meta := m.byID[id]
		m.templates.Unregister(meta.key)
		delete(m.byID, id)
	}
	delete(m.byServer, serverID)
}

// Notify renders and dispatches line to every notifier registered for
// serverID, in ascending notifier-id order so dispatch is
// deterministic regardless of Go's randomized map iteration. The first
// error encountered (render or dispatch) is returned after every notifier
// for the server has been attempted; callers should treat this as a
// logged, non-fatal outcome.
func (m *Manager) Notify(serverID int64, line models.ServerLogLine) error {
	m.mu.RLock()
	ids := make([]int64, 0, len(m.byServer[serverID]))
	for id := range m.byServer[serverID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	metas := make([]notifierMeta, 0, len(ids))
	for _, id := range ids {
		metas = append(metas, m.byID[id])
	}
	m.mu.RUnlock()

	data := renderContext(line)

	var firstErr error
	for i, meta := range metas {
		start := time.Now()
		text, err := m.templates.Render(meta.key, data)
		if err != nil {
			m.logger.Warn("template render failed, skipping notifier",
				zap.Int64("notifier_id", ids[i]), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		err = meta.transport.Send(text)
		duration := time.Since(start).Seconds()
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		if m.metrics != nil {
			m.metrics.RecordNotification(meta.provider, outcome, duration)
		}
		if err != nil {
			wrapped := fmt.Errorf("%w: notifier %d: %v", ErrNotifierDispatchError, ids[i], err)
			m.logger.Warn("notifier dispatch failed",
				zap.Int64("notifier_id", ids[i]), zap.Error(err))
			if firstErr == nil {
				firstErr = wrapped
			}
		}
	}
	return firstErr
}

// renderContext builds the Handlebars-compatible context ServerLogLine
// templates render against: a nested map so paths like {{log.status_code}}
// resolve regardless of the Go struct's exported field casing.
func renderContext(line models.ServerLogLine) map[string]interface{} {
	return map[string]interface{}{
		"server": map[string]interface{}{
			"id":               line.Server.ID,
			"owner_user_id":    line.Server.OwnerUserID,
			"name":             line.Server.Name,
			"url":              line.Server.URL,
			"timeout_seconds":  line.Server.TimeoutSeconds,
			"interval_seconds": line.Server.IntervalSeconds,
			"is_enabled":       line.Server.IsEnabled,
		},
		"log": map[string]interface{}{
			"id":          line.Log.ID,
			"server_id":   line.Log.ServerID,
			"failed":      line.Log.Failed,
			"status_code": line.Log.StatusCode,
			"body":        line.Log.Body,
			"reason":      line.Log.Reason,
			"created_at":  line.Log.CreatedAt.Format(time.RFC3339),
		},
	}
}
