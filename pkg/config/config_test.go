package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grass-node/grass-go/pkg/connection"
	"github.com/grass-node/grass-go/pkg/transport"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, transport.DefaultEndpoints, cfg.Proxy.Endpoints)
	assert.True(t, cfg.Proxy.InsecureSkipVerify)
	assert.Equal(t, 3, cfg.API.MaxAttempts)
	assert.Equal(t, time.Second, cfg.API.RetryDelay)
	assert.Equal(t, 3*time.Second, cfg.Proxy.MessagePause)
	assert.Equal(t, 30*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 75.0, cfg.Monitor.Threshold)
	assert.False(t, cfg.Monitor.ReconnectOnLowQuality)
	assert.False(t, cfg.Proxy.BackoffConfig().Enabled(), "reconnect is immediate by default")
}

func TestDefaultDoesNotAliasEndpoints(t *testing.T) {
	cfg := Default()
	cfg.Proxy.Endpoints[0] = "wss://changed.example.test/"
	assert.NotEqual(t, "wss://changed.example.test/", transport.DefaultEndpoints[0])
}

func TestParseEmpty(t *testing.T) {
	for _, data := range []string{"", "\n", "# only a comment\n"} {
		cfg, err := Parse([]byte(data))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	}
}

func TestParseOverrides(t *testing.T) {
	data := `
api:
  base_url: https://api.example.test
  max_attempts: 5
  retry_delay: 250ms
proxy:
  endpoints:
    - wss://broker.example.test:4444/
  insecure_skip_verify: false
  read_timeout: 2m
  message_pause: 0s
  backoff:
    initial: 1s
    max: 1m
    multiplier: 2
    jitter: 0.25
monitor:
  interval: 10s
  threshold: 60
  reconnect_on_low_quality: true
log:
  level: debug
  protocol_log: /tmp/node.glog
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.test", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.API.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.API.RetryDelay)
	assert.Equal(t, []string{"wss://broker.example.test:4444/"}, cfg.Proxy.Endpoints)
	assert.False(t, cfg.Proxy.InsecureSkipVerify)
	assert.Equal(t, 2*time.Minute, cfg.Proxy.ReadTimeout)
	assert.Zero(t, cfg.Proxy.MessagePause)
	assert.Equal(t, 10*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 60.0, cfg.Monitor.Threshold)
	assert.True(t, cfg.Monitor.ReconnectOnLowQuality)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/node.glog", cfg.Log.ProtocolLog)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().API.Origin, cfg.API.Origin)
	assert.Equal(t, Default().Proxy.DeviceRetryDelay, cfg.Proxy.DeviceRetryDelay)

	assert.Equal(t, connection.BackoffConfig{
		Initial:    time.Second,
		Max:        time.Minute,
		Multiplier: 2,
		Jitter:     0.25,
	}, cfg.Proxy.BackoffConfig())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"not yaml", "api: [unclosed", ""},
		{"unknown key", "api:\n  bogus: 1\n", ""},
		{"bad duration", "api:\n  timeout: soon\n", ""},
		{"zero attempts", "api:\n  max_attempts: 0\n", "api.max_attempts"},
		{"relative base url", "api:\n  base_url: /api\n", "api.base_url"},
		{"no endpoints", "proxy:\n  endpoints: []\n", "proxy.endpoints"},
		{"http endpoint", "proxy:\n  endpoints: [\"https://broker.example.test/\"]\n", "proxy.endpoints[0]"},
		{"negative pause", "proxy:\n  message_pause: -1s\n", "proxy.message_pause"},
		{"shrinking backoff", "proxy:\n  backoff:\n    initial: 1s\n    multiplier: 0.5\n", "proxy.backoff.multiplier"},
		{"max below initial", "proxy:\n  backoff:\n    initial: 10s\n    max: 1s\n", "proxy.backoff.max"},
		{"jitter", "proxy:\n  backoff:\n    jitter: 2\n", "proxy.backoff.jitter"},
		{"threshold", "monitor:\n  threshold: 0\n", "monitor.threshold"},
		{"level", "log:\n  level: loud\n", "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le), "got %T", err)
			assert.Equal(t, tt.field, le.Field)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "node.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Log.Level)
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(dir, "missing.yaml")
		_, err := Load(path)

		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, path, le.File)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid file names path", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("monitor:\n  threshold: -1\n"), 0o600))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
		assert.Contains(t, err.Error(), "monitor.threshold")
	})
}
