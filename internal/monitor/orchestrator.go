// Package monitor implements the monitoring core: the Prober that detects
// server status transitions, the MonitorOrchestrator that owns prober
// lifecycles and reacts to the administrative control plane, and the
// transient types and in-memory status cache that tie them together.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/jerrydevmouse/responsed/internal/metrics"
	"github.com/jerrydevmouse/responsed/internal/models"
	"github.com/jerrydevmouse/responsed/internal/notify"
	"github.com/jerrydevmouse/responsed/internal/repository"
	"go.uber.org/zap"
)

// channelErrorReason is the reason synthesized for a ChannelError
// observation, since the prober's transport error never carries a useful
// HTTP reason phrase.
const channelErrorReason = "Error occurred during fetching"

// channelErrorStatusCode is the status code synthesized for a ChannelError
// observation.
const channelErrorStatusCode = 500

// Orchestrator owns the lifecycle of every Prober and the two concurrent
// loops (observation, control) that keep the system consistent with the
// administrative control plane and the live observation stream.
type Orchestrator struct {
	repo     repository.Repository
	notifier *notify.Manager
	client   *http.Client
	metrics  *metrics.Metrics
	logger   *zap.Logger

	observationBuffer int

	control chan ControlMessage

	mu       sync.Mutex
	cancels  map[int64]context.CancelFunc
	proberWG sync.WaitGroup
}

// New builds an Orchestrator. observationBuffer sizes the fan-in channel;
// it should be generous enough that a healthy fleet of probers never blocks
// on it (spec.md describes the channel as unbounded).
func New(repo repository.Repository, notifier *notify.Manager, client *http.Client, m *metrics.Metrics, logger *zap.Logger, observationBuffer int) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observationBuffer <= 0 {
		observationBuffer = 1024
	}
	return &Orchestrator{
		repo:              repo,
		notifier:          notifier,
		client:            client,
		metrics:           m,
		logger:            logger,
		observationBuffer: observationBuffer,
		control:           make(chan ControlMessage, 64),
		cancels:           make(map[int64]context.CancelFunc),
	}
}

// Control returns the channel administrative callers send ControlMessages
// on. Sends are not deduplicated or validated beyond what the control loop
// itself enforces.
func (o *Orchestrator) Control() chan<- ControlMessage {
	return o.control
}

// Run performs startup, then blocks running the observation and control
// loops until ctx is cancelled or a Shutdown control message arrives. It
// returns once both loops have returned.
func (o *Orchestrator) Run(ctx context.Context) error {
	servers, err := o.repo.ListAllServers()
	if err != nil {
		return fmt.Errorf("%w: listing servers at startup: %v", ErrRepositoryCall, err)
	}

	observations := make(chan Observation, o.observationBuffer)
	cache := newStatusCache()

	for _, server := range servers {
		code := 0
		reason := ""
		if server.LastSeenStatus != nil {
			code = *server.LastSeenStatus
		}
		if server.LastSeenReason != nil {
			reason = *server.LastSeenReason
		}
		cache.seed(server.ID, code, reason)

		lastSeenSuccess := models.IsSuccess(code)
		if server.LastSeenStatus == nil {
			lastSeenSuccess = true
		}
		o.spawnProber(ctx, server, observations, lastSeenSuccess)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		o.runObservationLoop(observations, cache)
	}()

	go func() {
		defer wg.Done()
		o.runControlLoop(ctx, cache, observations)
		// Every prober has now been cancelled; wait for them to actually
		// exit before closing the fan-in channel, so the observation loop
		// can drain whatever they sent before cancellation and then stop.
		o.proberWG.Wait()
		close(observations)
	}()

	wg.Wait()
	return nil
}

// spawnProber starts a Prober for server under a cancellation handle derived
// from ctx, recording the handle keyed by server id.
func (o *Orchestrator) spawnProber(ctx context.Context, server models.Server, out chan<- Observation, lastSeenSuccess bool) {
	proberCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	o.cancels[server.ID] = cancel
	o.mu.Unlock()

	prober := NewProber(server, o.client, out, o.metrics, o.logger, lastSeenSuccess)
	if o.metrics != nil {
		o.metrics.ActiveProbers.Inc()
	}

	o.proberWG.Add(1)
	go func() {
		defer o.proberWG.Done()
		defer func() {
			if o.metrics != nil {
				o.metrics.ActiveProbers.Dec()
			}
		}()
		prober.Run(proberCtx)
	}()
}

// cancelProber cancels and forgets the prober registered for serverID,
// returning false if none was registered.
func (o *Orchestrator) cancelProber(serverID int64) bool {
	o.mu.Lock()
	cancel, ok := o.cancels[serverID]
	if ok {
		delete(o.cancels, serverID)
	}
	o.mu.Unlock()

	if !ok {
		return false
	}
	cancel()
	return true
}

// runObservationLoop is the single writer of the status cache and of server
// status updates/log inserts; no external lock is required for that data
// because only this goroutine touches it.
func (o *Orchestrator) runObservationLoop(observations <-chan Observation, cache *statusCache) {
	for obs := range observations {
		o.processObservation(obs, cache)
	}
}

// processObservation implements spec.md's per-observation algorithm: derive
// (code, reason, body), compute whether it transitions the cached status,
// persist on transition, always log, and notify after a successful log
// insert.
func (o *Orchestrator) processObservation(obs Observation, cache *statusCache) {
	var (
		code   int
		reason string
		body   []byte
	)

	switch obs.Kind {
	case ObservationOnline:
		code, reason, body = obs.StatusCode, "", obs.Body
	case ObservationUnreachable:
		code, reason, body = obs.StatusCode, obs.Reason, obs.Body
	case ObservationChannelError:
		code, reason, body = channelErrorStatusCode, channelErrorReason, nil
	}

	serverID := obs.Server.ID
	changed := cache.isChanged(serverID, code, reason)

	if changed {
		cache.update(serverID, code, reason)
		if err := o.repo.UpdateServerStatus(serverID, reason, code); err != nil {
			o.logger.Error("failed to persist server status",
				zap.Int64("server_id", serverID), zap.Error(err))
		} else if o.metrics != nil {
			o.metrics.RecordTransition(serverID)
		}
	}

	log, err := o.repo.InsertServerLog(models.ServerLogCreate{
		ServerID:   serverID,
		Failed:     !models.IsSuccess(code),
		StatusCode: code,
		Body:       string(body),
		Reason:     reason,
	})
	if o.metrics != nil {
		o.metrics.ObservationsProcessedTotal.WithLabelValues(fmt.Sprintf("%d", serverID)).Inc()
	}
	if err != nil {
		o.logger.Error("failed to insert server log",
			zap.Int64("server_id", serverID), zap.Error(err))
		return
	}

	if o.notifier == nil {
		return
	}
	line := models.ServerLogLine{Server: obs.Server, Log: log}
	if err := o.notifier.Notify(serverID, line); err != nil {
		o.logger.Warn("notification dispatch failed",
			zap.Int64("server_id", serverID), zap.Error(err))
	}
}

// runControlLoop is the single writer of the prober registry (the cancel
// handle map); it also seeds and removes cache entries on add/modify/remove.
// The control loop and the observation loop run in separate goroutines and
// share cache, whose methods take its internal mutex.
func (o *Orchestrator) runControlLoop(ctx context.Context, cache *statusCache, observations chan<- Observation) {
	for {
		select {
		case <-ctx.Done():
			o.shutdownAllProbers()
			return
		case msg, ok := <-o.control:
			if !ok {
				o.shutdownAllProbers()
				return
			}
			if o.handleControlMessage(ctx, msg, cache, observations) {
				o.shutdownAllProbers()
				return
			}
		}
	}
}

// handleControlMessage applies a single ControlMessage. It returns true when
// the loop should stop (a Shutdown message was processed).
func (o *Orchestrator) handleControlMessage(ctx context.Context, msg ControlMessage, cache *statusCache, observations chan<- Observation) bool {
	if o.metrics != nil {
		o.metrics.ControlMessagesProcessedTotal.WithLabelValues(controlKindLabel(msg.Kind)).Inc()
	}

	switch msg.Kind {
	case ControlAddServer:
		server := msg.Server
		code := 0
		reason := ""
		if server.LastSeenStatus != nil {
			code = *server.LastSeenStatus
		}
		if server.LastSeenReason != nil {
			reason = *server.LastSeenReason
		}
		cache.seed(server.ID, code, reason)
		o.spawnProber(ctx, server, observations, true)

	case ControlRemoveServer:
		if !cache.remove(msg.ServerID) {
			o.logger.Warn("remove_server for unknown server id", zap.Int64("server_id", msg.ServerID))
		}
		if !o.cancelProber(msg.ServerID) {
			o.logger.Warn("remove_server found no prober to cancel", zap.Int64("server_id", msg.ServerID))
		}

	case ControlModifyServer:
		server := msg.Server
		cache.remove(server.ID)
		code := 0
		reason := ""
		if server.LastSeenStatus != nil {
			code = *server.LastSeenStatus
		}
		if server.LastSeenReason != nil {
			reason = *server.LastSeenReason
		}
		cache.seed(server.ID, code, reason)

		o.cancelProber(server.ID)
		o.spawnProber(ctx, server, observations, true)

	case ControlShutdown:
		return true
	}
	return false
}

// controlKindLabel renders a ControlKind as the label value used on the
// control_messages_processed_total counter.
func controlKindLabel(kind ControlKind) string {
	switch kind {
	case ControlAddServer:
		return "add_server"
	case ControlModifyServer:
		return "modify_server"
	case ControlRemoveServer:
		return "remove_server"
	case ControlShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// shutdownAllProbers cancels every registered prober. It does not close the
// observations channel: Run closes it once every prober goroutine has
// returned, and the observation loop keeps draining until then.
func (o *Orchestrator) shutdownAllProbers() {
	o.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(o.cancels))
	for id, cancel := range o.cancels {
		cancels = append(cancels, cancel)
		delete(o.cancels, id)
	}
	o.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
