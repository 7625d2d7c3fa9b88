// Package config loads the node configuration from YAML.
//
// Every field has a default that reproduces the stock node behavior, so an
// empty or missing file is valid. Durations use Go syntax ("1s", "500ms").
//
// Example:
//
//	api:
//	  max_attempts: 5
//	proxy:
//	  insecure_skip_verify: false
//	  backoff:
//	    initial: 1s
//	    max: 1m
//	    multiplier: 2
//	monitor:
//	  reconnect_on_low_quality: true
//	log:
//	  level: debug
//	  protocol_log: /var/log/grass/node.glog
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/grass-node/grass-go/pkg/api"
	"github.com/grass-node/grass-go/pkg/connection"
	"github.com/grass-node/grass-go/pkg/httpretry"
	"github.com/grass-node/grass-go/pkg/monitor"
	"github.com/grass-node/grass-go/pkg/node"
	"github.com/grass-node/grass-go/pkg/transport"
)

// Config is the complete node configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Monitor MonitorConfig `yaml:"monitor"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig configures the account service client.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Origin         string        `yaml:"origin"`
	UserAgent      string        `yaml:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	Timeout        time.Duration `yaml:"timeout"`
}

// ProxyConfig configures the broker connection.
type ProxyConfig struct {
	Endpoints      []string `yaml:"endpoints"`
	Origin         string   `yaml:"origin"`
	AcceptLanguage string   `yaml:"accept_language"`

	// InsecureSkipVerify disables certificate verification for the broker
	// and the account service.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	MessagePause     time.Duration `yaml:"message_pause"`
	DeviceRetryDelay time.Duration `yaml:"device_retry_delay"`

	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig configures the pause between reconnection attempts.
// The zero value reconnects immediately.
type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	Multiplier float64       `yaml:"multiplier"`
	Jitter     float64       `yaml:"jitter"`
}

// MonitorConfig configures the quality monitor.
type MonitorConfig struct {
	Enabled               bool          `yaml:"enabled"`
	Interval              time.Duration `yaml:"interval"`
	Threshold             float64       `yaml:"threshold"`
	ReconnectOnLowQuality bool          `yaml:"reconnect_on_low_quality"`
}

// LogConfig configures operational logging and protocol capture.
type LogConfig struct {
	// Level is a zerolog level name.
	Level string `yaml:"level"`

	// ProtocolLog is the capture file path. Empty disables file capture.
	ProtocolLog string `yaml:"protocol_log"`

	// ProtocolConsole writes captured events to the console at debug level.
	ProtocolConsole bool `yaml:"protocol_console"`
}

// Default returns the configuration of a stock node.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:        api.DefaultBaseURL,
			Origin:         api.DefaultAppOrigin,
			UserAgent:      api.DefaultUserAgent,
			AcceptLanguage: api.DefaultAcceptLanguage,
			MaxAttempts:    httpretry.DefaultMaxAttempts,
			RetryDelay:     httpretry.DefaultRetryDelay,
			Timeout:        httpretry.DefaultTimeout,
		},
		Proxy: ProxyConfig{
			Endpoints:          append([]string(nil), transport.DefaultEndpoints...),
			Origin:             transport.DefaultOrigin,
			AcceptLanguage:     transport.DefaultAcceptLanguage,
			InsecureSkipVerify: true,
			HandshakeTimeout:   transport.DefaultHandshakeTimeout,
			MessagePause:       node.DefaultMessagePause,
			DeviceRetryDelay:   node.DefaultDeviceRetryDelay,
		},
		Monitor: MonitorConfig{
			Enabled:   true,
			Interval:  monitor.DefaultInterval,
			Threshold: monitor.DefaultThreshold,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &LoadError{Message: "failed to parse YAML", Cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return Config{}, le
		}
		return Config{}, &LoadError{File: path, Message: "invalid configuration", Cause: err}
	}
	return cfg, nil
}

// BackoffConfig returns the reconnect backoff for the connection manager.
func (c ProxyConfig) BackoffConfig() connection.BackoffConfig {
	return connection.BackoffConfig{
		Initial:    c.Backoff.Initial,
		Max:        c.Backoff.Max,
		Multiplier: c.Backoff.Multiplier,
		Jitter:     c.Backoff.Jitter,
	}
}
