package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// LoadError reports a configuration that could not be read or is invalid.
type LoadError struct {
	// File is the path of the configuration file, if any.
	File string

	// Field is the offending key in dotted form, if known.
	Field string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

func invalid(field, format string, args ...any) error {
	return &LoadError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the configuration for values the node cannot run with.
func (c Config) Validate() error {
	if err := validateURL("api.base_url", c.API.BaseURL, "http", "https"); err != nil {
		return err
	}
	if c.API.MaxAttempts < 1 {
		return invalid("api.max_attempts", "must be at least 1, got %d", c.API.MaxAttempts)
	}

	if len(c.Proxy.Endpoints) == 0 {
		return invalid("proxy.endpoints", "at least one endpoint is required")
	}
	for i, ep := range c.Proxy.Endpoints {
		if err := validateURL(fmt.Sprintf("proxy.endpoints[%d]", i), ep, "ws", "wss"); err != nil {
			return err
		}
	}

	durations := []struct {
		field string
		d     time.Duration
	}{
		{"api.retry_delay", c.API.RetryDelay},
		{"api.timeout", c.API.Timeout},
		{"proxy.handshake_timeout", c.Proxy.HandshakeTimeout},
		{"proxy.read_timeout", c.Proxy.ReadTimeout},
		{"proxy.write_timeout", c.Proxy.WriteTimeout},
		{"proxy.message_pause", c.Proxy.MessagePause},
		{"proxy.device_retry_delay", c.Proxy.DeviceRetryDelay},
		{"proxy.backoff.initial", c.Proxy.Backoff.Initial},
		{"proxy.backoff.max", c.Proxy.Backoff.Max},
		{"monitor.interval", c.Monitor.Interval},
	}
	for _, d := range durations {
		if d.d < 0 {
			return invalid(d.field, "must not be negative, got %s", d.d)
		}
	}

	b := c.Proxy.Backoff
	if b.Initial > 0 {
		if b.Multiplier != 0 && b.Multiplier < 1 {
			return invalid("proxy.backoff.multiplier", "must be at least 1, got %g", b.Multiplier)
		}
		if b.Max != 0 && b.Max < b.Initial {
			return invalid("proxy.backoff.max", "must not be less than initial (%s)", b.Initial)
		}
	}
	if b.Jitter < 0 || b.Jitter > 1 {
		return invalid("proxy.backoff.jitter", "must be between 0 and 1, got %g", b.Jitter)
	}

	if c.Monitor.Threshold <= 0 {
		return invalid("monitor.threshold", "must be positive, got %g", c.Monitor.Threshold)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return &LoadError{Field: "log.level", Message: "unknown level", Cause: err}
	}
	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &LoadError{Field: field, Message: "invalid URL", Cause: err}
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return invalid(field, "%q must be an absolute %v URL", raw, schemes)
}
