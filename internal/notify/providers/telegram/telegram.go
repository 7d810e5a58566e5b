// Package telegram implements a notify.NotifierTransport that delivers
// messages through the Telegram Bot HTTP API.
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jerrydevmouse/responsed/internal/notify"
)

// apiBaseURL is a var, not a const, so tests can point it at an httptest
// server.
var apiBaseURL = "https://api.telegram.org"

func init() {
	notify.RegisterProvider("telegram", New)
}

// credentials is the shape expected under Notifier.Credentials for the
// telegram provider.
type credentials struct {
	ChatID int64  `json:"chat_id"`
	Token  string `json:"token"`
}

// sendMessageRequest is the Telegram Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// Transport sends text to a single Telegram chat via a bot token.
type Transport struct {
	chatID int64
	token  string
	client *http.Client
}

// New builds a Transport from credentialsJSON, which must decode into
// {chat_id, token}.
func New(credentialsJSON string) (notify.NotifierTransport, error) {
	var creds credentials
	if err := json.Unmarshal([]byte(credentialsJSON), &creds); err != nil {
		return nil, fmt.Errorf("telegram: decoding credentials: %w", err)
	}
	if creds.Token == "" || creds.ChatID == 0 {
		return nil, fmt.Errorf("telegram: credentials require chat_id and token")
	}

	return &Transport{
		chatID: creds.ChatID,
		token:  creds.Token,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send posts text to the configured chat via sendMessage.
func (t *Transport) Send(text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("telegram: marshalling payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", apiBaseURL, t.token)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram: sendMessage returned status %d", resp.StatusCode)
	}
	return nil
}
