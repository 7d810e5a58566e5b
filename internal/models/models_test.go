package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int {
	return &v
}

func TestServerLastSeenSuccess(t *testing.T) {
	tests := []struct {
		name     string
		server   Server
		expected bool
	}{
		{
			name:     "absent status code defaults to success",
			server:   Server{},
			expected: true,
		},
		{
			name:     "200 is success",
			server:   Server{LastSeenStatus: intPtr(200)},
			expected: true,
		},
		{
			name:     "299 is success",
			server:   Server{LastSeenStatus: intPtr(299)},
			expected: true,
		},
		{
			name:     "300 is not success",
			server:   Server{LastSeenStatus: intPtr(300)},
			expected: false,
		},
		{
			name:     "199 is not success",
			server:   Server{LastSeenStatus: intPtr(199)},
			expected: false,
		},
		{
			name:     "500 is not success",
			server:   Server{LastSeenStatus: intPtr(500)},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.server.LastSeenSuccess())
		})
	}
}

func TestIsSuccess(t *testing.T) {
	assert.False(t, IsSuccess(199))
	assert.True(t, IsSuccess(200))
	assert.True(t, IsSuccess(299))
	assert.False(t, IsSuccess(300))
}

func TestServerTimeoutAndInterval(t *testing.T) {
	s := Server{TimeoutSeconds: 5, IntervalSeconds: 30}
	assert.Equal(t, 5e9, float64(s.Timeout()))
	assert.Equal(t, 30e9, float64(s.Interval()))
}

func TestNotifierTemplateKey(t *testing.T) {
	n := Notifier{ID: 7, ServerID: 3, OwnerUserID: 42, Provider: ProviderTelegram}
	assert.Equal(t, "7.3.42.telegram", n.TemplateKey())
}

func TestProviderConstants(t *testing.T) {
	assert.Equal(t, "telegram", ProviderTelegram)
	assert.Equal(t, "discord", ProviderDiscord)
}
