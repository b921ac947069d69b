package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBotToken = "123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWithFile_Defaults(t *testing.T) {
	path := writeConfig(t, `{"doors": [{"name": "main_door"}, {"name": "side_door"}]}`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"main_door", "side_door"}, cfg.DoorNames())
	assert.Equal(t, time.Second, cfg.Phase.Open.ResendInterval)
	assert.Equal(t, 4*time.Second, cfg.Phase.Open.EstimatedDuration)
	assert.Zero(t, cfg.Phase.Open.Deadline)
	assert.Equal(t, 30*time.Second, cfg.Phase.Close.Deadline)
	assert.Equal(t, TransportLoopback, cfg.Transport.Mode)
	assert.Equal(t, 10*time.Minute, cfg.Registry.Retention)
	assert.Equal(t, 8080, cfg.API.ListenPort)
	assert.Equal(t, []string{"*"}, cfg.API.CORS.AllowOrigins)
	assert.True(t, cfg.API.RateLimit.Enabled)
}

func TestLoadWithFile_FileOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"debug": true,
		"doors": [{"name": "main_door", "description": "1층 출입문"}],
		"phase": {
			"open": {"resend_interval": "500ms", "estimated_duration": "6s", "max_resends": 20, "stall_timeout": "1m"}
		},
		"transport": {"mode": "http", "endpoint": "http://door-controller:9000/requests", "rate_limit": 5},
		"notifier": {"telegram": {"enabled": true, "bot_token": "`+validBotToken+`", "chat_id": 42}},
		"api": {"listen_port": 9090, "cors": {"allow_origins": ["https://ops.example.com"]}}
	}`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "1층 출입문", cfg.Doors[0].Description)
	assert.Equal(t, 500*time.Millisecond, cfg.Phase.Open.ResendInterval)
	assert.Equal(t, 6*time.Second, cfg.Phase.Open.EstimatedDuration)
	assert.Equal(t, 20, cfg.Phase.Open.MaxResends)
	assert.Equal(t, time.Minute, cfg.Phase.Open.StallTimeout)
	assert.Equal(t, time.Second, cfg.Phase.Close.ResendInterval, "지정하지 않은 항목은 기본값을 유지해야 합니다")
	assert.Equal(t, TransportHTTP, cfg.Transport.Mode)
	assert.Equal(t, float64(5), cfg.Transport.RateLimit)
	assert.Equal(t, int64(42), cfg.Notifier.Telegram.ChatID)
	assert.Equal(t, 9090, cfg.API.ListenPort)
	assert.Empty(t, cfg.VerifyRecommendations())
}

func TestLoadWithFile_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"doors": [{"name": "main_door"}]}`)

	t.Setenv("FLEET_DEBUG", "true")
	t.Setenv("FLEET_PHASE__OPEN__RESEND_INTERVAL", "250ms")
	t.Setenv("FLEET_API__LISTEN_PORT", "18080")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 250*time.Millisecond, cfg.Phase.Open.ResendInterval)
	assert.Equal(t, 18080, cfg.API.ListenPort)
}

func TestLoadWithFile_Errors(t *testing.T) {
	t.Run("Fail_FileNotFound", func(t *testing.T) {
		_, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.System))
	})

	t.Run("Fail_MalformedJSON", func(t *testing.T) {
		_, err := LoadWithFile(writeConfig(t, `{"doors": [`))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})

	t.Run("Fail_UnknownField", func(t *testing.T) {
		_, err := LoadWithFile(writeConfig(t, `{"doors": [{"name": "main_door"}], "lifts": []}`))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.System))
	})
}

func TestLoadWithFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "NoDoors",
			content: `{}`,
			wantMsg: "doors",
		},
		{
			name:    "DuplicateDoor",
			content: `{"doors": [{"name": "main_door"}, {"name": "main_door"}]}`,
			wantMsg: "중복된 Door",
		},
		{
			name:    "EmptyDoorName",
			content: `{"doors": [{"name": ""}]}`,
			wantMsg: "name",
		},
		{
			name:    "ZeroResendInterval",
			content: `{"doors": [{"name": "main_door"}], "phase": {"open": {"resend_interval": "0s"}}}`,
			wantMsg: "resend_interval",
		},
		{
			name:    "CloseWithoutFailureCondition",
			content: `{"doors": [{"name": "main_door"}], "phase": {"close": {"deadline": "0s"}}}`,
			wantMsg: "deadline 또는 stall_timeout",
		},
		{
			name:    "HTTPTransportWithoutEndpoint",
			content: `{"doors": [{"name": "main_door"}], "transport": {"mode": "http"}}`,
			wantMsg: "transport.endpoint",
		},
		{
			name:    "UnknownTransport",
			content: `{"doors": [{"name": "main_door"}], "transport": {"mode": "mqtt"}}`,
			wantMsg: "oneof",
		},
		{
			name:    "InvalidBotToken",
			content: `{"doors": [{"name": "main_door"}], "notifier": {"telegram": {"enabled": true, "bot_token": "invalid", "chat_id": 1}}}`,
			wantMsg: "bot_token",
		},
		{
			name:    "InvalidPort",
			content: `{"doors": [{"name": "main_door"}], "api": {"listen_port": 70000}}`,
			wantMsg: "listen_port",
		},
		{
			name:    "InvalidCORSOrigin",
			content: `{"doors": [{"name": "main_door"}], "api": {"cors": {"allow_origins": ["ftp://example.com"]}}}`,
			wantMsg: "CORS Origin",
		},
		{
			name:    "WildcardWithOthers",
			content: `{"doors": [{"name": "main_door"}], "api": {"cors": {"allow_origins": ["*", "https://example.com"]}}}`,
			wantMsg: "와일드카드",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestIsValidOrigin(t *testing.T) {
	valid := []string{"*", "https://example.com", "http://localhost:3000", "http://127.0.0.1:8080", "https://ops.fleet-01.example.com"}
	for _, origin := range valid {
		assert.True(t, isValidOrigin(origin), origin)
	}

	invalid := []string{"", "example.com", "https://example.com/", "https://example.com/path", "https://user@example.com", "https://-bad-.com", "ws://example.com"}
	for _, origin := range invalid {
		assert.False(t, isValidOrigin(origin), origin)
	}
}

func TestVerifyRecommendations(t *testing.T) {
	cfg := Default()
	cfg.API.ListenPort = 80

	warnings := cfg.VerifyRecommendations()
	assert.Len(t, warnings, 3)
}
