package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/grass-node/grass-go/pkg/api"
	"github.com/grass-node/grass-go/pkg/api/mocks"
)

func newTestMonitor(t *testing.T, devices api.DeviceResolver, buf *bytes.Buffer, onLow func(api.Device)) *Monitor {
	t.Helper()
	m, err := New(Config{
		Devices: devices,
		OnLow:   onLow,
		Logger:  zerolog.New(buf),
	})
	require.NoError(t, err)
	return m
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &line))
	return line
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoDevices)

	m, err := New(Config{Devices: mocks.NewMockDeviceResolver(t)})
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, m.interval)
	assert.Equal(t, DefaultThreshold, m.threshold)
}

func TestCheck_Threshold(t *testing.T) {
	tests := []struct {
		score   float64
		verdict Verdict
		level   string
		msg     string
	}{
		{74, VerdictLow, "warn", "network quality too low"},
		{74.99, VerdictLow, "warn", "network quality too low"},
		{75, VerdictGood, "info", "network quality good, keeping"},
		{100, VerdictGood, "info", "network quality good, keeping"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v/%s", tt.score, tt.verdict), func(t *testing.T) {
			devices := mocks.NewMockDeviceResolver(t)
			devices.EXPECT().DeviceQuiet(mock.Anything).
				Return(&api.Device{DeviceIP: "203.0.113.7", FinalScore: tt.score}, true).Once()

			var buf bytes.Buffer
			var lowCalls int
			m := newTestMonitor(t, devices, &buf, func(api.Device) { lowCalls++ })

			assert.Equal(t, tt.verdict, m.Check(context.Background()))

			line := lastLine(t, &buf)
			assert.Equal(t, tt.level, line["level"])
			assert.Equal(t, tt.msg, line["message"])
			assert.Equal(t, "monitor", line["component"])
			assert.Equal(t, "203.0.113.7", line["device_ip"])
			assert.InDelta(t, tt.score, line["final_score"], 0.0001)

			if tt.verdict == VerdictLow {
				assert.Equal(t, 1, lowCalls)
			} else {
				assert.Zero(t, lowCalls)
			}
		})
	}
}

func TestCheck_ResolutionFailure(t *testing.T) {
	devices := mocks.NewMockDeviceResolver(t)
	devices.EXPECT().DeviceQuiet(mock.Anything).Return(nil, false).Once()

	var buf bytes.Buffer
	m := newTestMonitor(t, devices, &buf, func(api.Device) { t.Error("OnLow called on failure") })

	assert.Equal(t, VerdictUnknown, m.Check(context.Background()))
	assert.Equal(t, "error", lastLine(t, &buf)["level"])
}

func TestRun_ChecksOnEveryTickAndSurvivesFailures(t *testing.T) {
	devices := mocks.NewMockDeviceResolver(t)
	devices.EXPECT().DeviceQuiet(mock.Anything).Return(nil, false).Once()
	devices.EXPECT().DeviceQuiet(mock.Anything).Return(&api.Device{FinalScore: 80}, true).Once()
	devices.EXPECT().DeviceQuiet(mock.Anything).Return(&api.Device{FinalScore: 10}, true).Once()

	var buf bytes.Buffer
	lows := make(chan api.Device, 1)
	m := newTestMonitor(t, devices, &buf, func(d api.Device) { lows <- d })

	tick := make(chan time.Time)
	var stopped bool
	m.newTicker = func(d time.Duration) (<-chan time.Time, func()) {
		assert.Equal(t, DefaultInterval, d)
		return tick, func() { stopped = true }
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	for i := 0; i < 3; i++ {
		tick <- time.Now()
	}

	select {
	case d := <-lows:
		assert.InDelta(t, 10, d.FinalScore, 0.0001)
	case <-time.After(2 * time.Second):
		t.Fatal("low verdict not reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.True(t, stopped)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "LOW", VerdictLow.String())
	assert.Equal(t, "GOOD", VerdictGood.String())
	assert.Equal(t, "UNKNOWN", VerdictUnknown.String())
}
