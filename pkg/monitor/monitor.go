// Package monitor periodically checks the network quality score of the
// node's device and logs whether it is acceptable.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/grass-node/grass-go/pkg/api"
)

// Monitor defaults.
const (
	DefaultInterval  = 30 * time.Second
	DefaultThreshold = 75.0
)

// ErrNoDevices is returned by New when no resolver is configured.
var ErrNoDevices = errors.New("monitor requires a device resolver")

// Verdict is the outcome of one quality check.
type Verdict uint8

const (
	// VerdictUnknown means the device could not be resolved.
	VerdictUnknown Verdict = iota
	// VerdictLow means the score is below the threshold.
	VerdictLow
	// VerdictGood means the score is at or above the threshold.
	VerdictGood
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictLow:
		return "LOW"
	case VerdictGood:
		return "GOOD"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Monitor.
type Config struct {
	// Devices resolves the device descriptor. Required.
	Devices api.DeviceResolver

	// Interval between checks (default: 30s).
	Interval time.Duration

	// Threshold is the lowest acceptable score (default: 75).
	Threshold float64

	// OnLow is called with the device after a low verdict. Optional.
	OnLow func(device api.Device)

	Logger zerolog.Logger
}

// Monitor observes the device quality score.
type Monitor struct {
	devices   api.DeviceResolver
	interval  time.Duration
	threshold float64
	onLow     func(device api.Device)
	logger    zerolog.Logger

	// newTicker is replaced in tests.
	newTicker func(d time.Duration) (<-chan time.Time, func())
}

// New creates a Monitor.
func New(cfg Config) (*Monitor, error) {
	if cfg.Devices == nil {
		return nil, ErrNoDevices
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	return &Monitor{
		devices:   cfg.Devices,
		interval:  cfg.Interval,
		threshold: cfg.Threshold,
		onLow:     cfg.OnLow,
		logger:    cfg.Logger.With().Str("component", "monitor").Logger(),
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}, nil
}

// Run checks the device every interval until ctx is done. The first check
// happens one interval after Run starts. Run returns ctx.Err().
func (m *Monitor) Run(ctx context.Context) error {
	tick, stop := m.newTicker(m.interval)
	defer stop()

	m.logger.Info().Dur("interval", m.interval).Float64("threshold", m.threshold).Msg("quality monitor started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			m.Check(ctx)
		}
	}
}

// Check resolves the device once and evaluates its score.
func (m *Monitor) Check(ctx context.Context) Verdict {
	device, ok := m.devices.DeviceQuiet(ctx)
	if !ok {
		m.logger.Error().Msg("quality check failed: device info unavailable")
		return VerdictUnknown
	}

	if device.FinalScore < m.threshold {
		m.logger.Warn().
			Str("device_ip", device.DeviceIP).
			Float64("final_score", device.FinalScore).
			Msg("network quality too low")
		if m.onLow != nil {
			m.onLow(*device)
		}
		return VerdictLow
	}

	m.logger.Info().
		Str("device_ip", device.DeviceIP).
		Float64("final_score", device.FinalScore).
		Msg("network quality good, keeping")
	return VerdictGood
}
