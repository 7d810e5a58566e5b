package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jerrydevmouse/responsed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServerModel(url string, intervalSeconds int) models.Server {
	return models.Server{
		ID:              1,
		Name:            "test",
		URL:             url,
		TimeoutSeconds:  1,
		IntervalSeconds: intervalSeconds,
		IsEnabled:       true,
	}
}

func TestProberEmitsOnFailureTransition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out := make(chan Observation, 4)
	prober := NewProber(newTestServerModel(srv.URL, 60), srv.Client(), out, nil, zap.NewNop(), true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs := prober.probe(ctx)
	prober.emitIfTransition(ctx, obs)

	select {
	case got := <-out:
		assert.Equal(t, ObservationUnreachable, got.Kind)
		assert.Equal(t, http.StatusInternalServerError, got.StatusCode)
		assert.Equal(t, "HTTP 500", got.Reason)
	default:
		t.Fatal("expected an observation to be emitted on failure transition")
	}
}

func TestProberDoesNotEmitWhenNoTransition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out := make(chan Observation, 4)
	prober := NewProber(newTestServerModel(srv.URL, 60), srv.Client(), out, nil, zap.NewNop(), true)

	ctx := context.Background()
	obs := prober.probe(ctx)
	prober.emitIfTransition(ctx, obs)

	select {
	case got := <-out:
		t.Fatalf("expected no observation, got %+v", got)
	default:
	}
}

func TestProberEmitsOnRecoveryTransition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out := make(chan Observation, 4)
	prober := NewProber(newTestServerModel(srv.URL, 60), srv.Client(), out, nil, zap.NewNop(), false)

	ctx := context.Background()
	obs := prober.probe(ctx)
	prober.emitIfTransition(ctx, obs)

	select {
	case got := <-out:
		assert.Equal(t, ObservationOnline, got.Kind)
		assert.Equal(t, http.StatusOK, got.StatusCode)
	default:
		t.Fatal("expected an observation to be emitted on recovery transition")
	}
}

func TestProberChannelErrorOnTransportFailure(t *testing.T) {
	out := make(chan Observation, 4)
	server := newTestServerModel("http://127.0.0.1:1", 60)
	server.TimeoutSeconds = 1
	prober := NewProber(server, &http.Client{Timeout: 200 * time.Millisecond}, out, nil, zap.NewNop(), true)

	ctx := context.Background()
	obs := prober.probe(ctx)
	assert.Equal(t, ObservationChannelError, obs.Kind)
	require.Error(t, obs.Cause)
}

func TestProberBoundarySuccessCodes(t *testing.T) {
	cases := []struct {
		code    int
		success bool
	}{
		{199, false},
		{200, true},
		{299, true},
		{300, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.success, models.IsSuccess(tc.code), "code %d", tc.code)
	}
}

func TestProberRunStopsOnCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out := make(chan Observation, 4)
	prober := NewProber(newTestServerModel(srv.URL, 1), srv.Client(), out, nil, zap.NewNop(), true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		prober.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("prober did not stop after cancellation")
	}
}
