// Package discord implements a notify.NotifierTransport that delivers
// messages through a Discord incoming webhook.
package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jerrydevmouse/responsed/internal/notify"
)

func init() {
	notify.RegisterProvider("discord", New)
}

// credentials is the shape expected under Notifier.Credentials for the
// discord provider.
type credentials struct {
	WebhookURL string `json:"webhook_url"`
}

// webhookRequest is the Discord incoming-webhook execute payload.
type webhookRequest struct {
	Content string `json:"content"`
}

// Transport posts text to a single Discord incoming webhook.
type Transport struct {
	webhookURL string
	client     *http.Client
}

// New builds a Transport from credentialsJSON, which must decode into
// {webhook_url}.
func New(credentialsJSON string) (notify.NotifierTransport, error) {
	var creds credentials
	if err := json.Unmarshal([]byte(credentialsJSON), &creds); err != nil {
		return nil, fmt.Errorf("discord: decoding credentials: %w", err)
	}
	if creds.WebhookURL == "" {
		return nil, fmt.Errorf("discord: credentials require webhook_url")
	}

	return &Transport{
		webhookURL: creds.WebhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send posts text as the webhook's message content.
func (t *Transport) Send(text string) error {
	payload, err := json.Marshal(webhookRequest{Content: text})
	if err != nil {
		return fmt.Errorf("discord: marshalling payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, t.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("discord: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
