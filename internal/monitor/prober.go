package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jerrydevmouse/responsed/internal/metrics"
	"github.com/jerrydevmouse/responsed/internal/models"
	"go.uber.org/zap"
)

// unreadableBody is substituted when a response body fails to read; this is
// not treated as a transport failure.
const unreadableBody = "Unable to read body"

// Prober periodically probes a single server's URL and publishes an
// Observation whenever the observed status edge-transitions relative to its
// local view of success/failure.
type Prober struct {
	server      models.Server
	client      *http.Client
	out         chan<- Observation
	metrics     *metrics.Metrics
	logger      *zap.Logger
	localSucess bool
}

// NewProber builds a Prober for server. lastSeenSuccess seeds the prober's
// local edge-detection state: success iff the persisted last_seen_status_code
// was 2xx, or true if it was absent.
func NewProber(server models.Server, client *http.Client, out chan<- Observation, m *metrics.Metrics, logger *zap.Logger, lastSeenSuccess bool) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		server:      server,
		client:      client,
		out:         out,
		metrics:     m,
		logger:      logger,
		localSucess: lastSeenSuccess,
	}
}

// Run loops until ctx is cancelled, probing server.URL every server.Interval
// seconds. A probe in flight always completes or times out naturally;
// cancellation is only observed between work units.
func (p *Prober) Run(ctx context.Context) {
	interval := p.server.Interval()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		obs := p.probe(ctx)
		p.emitIfTransition(ctx, obs)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// probe issues one GET against the server's URL and classifies the result.
func (p *Prober) probe(ctx context.Context) Observation {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, p.server.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.server.URL, nil)
	if err != nil {
		return p.recordOutcome(Observation{Kind: ObservationChannelError, Server: p.server, Cause: err}, start)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return p.recordOutcome(Observation{Kind: ObservationChannelError, Server: p.server, Cause: err}, start)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		body = []byte(unreadableBody)
	}

	if models.IsSuccess(resp.StatusCode) {
		return p.recordOutcome(Observation{
			Kind:       ObservationOnline,
			Server:     p.server,
			StatusCode: resp.StatusCode,
			Body:       body,
		}, start)
	}

	reason := fmt.Sprintf("HTTP %d", resp.StatusCode)
	return p.recordOutcome(Observation{
		Kind:       ObservationUnreachable,
		Server:     p.server,
		StatusCode: resp.StatusCode,
		Reason:     reason,
		Body:       body,
	}, start)
}

// recordOutcome records probe metrics and returns obs unchanged.
func (p *Prober) recordOutcome(obs Observation, start time.Time) Observation {
	if p.metrics == nil {
		return obs
	}
	outcome := "online"
	switch obs.Kind {
	case ObservationUnreachable:
		outcome = "unreachable"
	case ObservationChannelError:
		outcome = "channel_error"
	}
	p.metrics.RecordProbe(p.server.ID, outcome, time.Since(start).Seconds())
	return obs
}

// emitIfTransition sends obs downstream only if it crosses the prober's
// local success/failure edge, updating the local view when it does. The
// send races the cancellation handle so a probe blocked on a backed-up or
// abandoned channel does not outlive shutdown; this is the prober's
// best-effort send semantics.
func (p *Prober) emitIfTransition(ctx context.Context, obs Observation) {
	success := obs.Kind == ObservationOnline

	if p.localSucess == success {
		return
	}
	p.localSucess = success

	select {
	case p.out <- obs:
	case <-ctx.Done():
	}
}
