package discord

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMissingWebhookURL(t *testing.T) {
	_, err := New(`{"webhook_url":""}`)
	assert.Error(t, err)
}

func TestNewRejectsInvalidJSON(t *testing.T) {
	_, err := New(`not-json`)
	assert.Error(t, err)
}

func TestSendPostsExpectedPayload(t *testing.T) {
	var gotBody webhookRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	transport := &Transport{webhookURL: server.URL, client: server.Client()}
	err := transport.Send("server is down")
	require.NoError(t, err)
	assert.Equal(t, "server is down", gotBody.Content)
}

func TestSendNonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	transport := &Transport{webhookURL: server.URL, client: server.Client()}
	err := transport.Send("hi")
	assert.Error(t, err)
}
