// Package httpretry issues HTTP requests with a bounded number of attempts
// and a fixed delay between failed attempts.
//
// Every transport-level failure (dial error, TLS error, timeout, truncated
// body) is retried the same way. An HTTP response with any status code is a
// success; interpreting the status is left to the caller.
//
// When all attempts fail, Do returns ErrNoResponse. Callers must check for it
// before touching the response.
package httpretry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Defaults used when a Request or Config leaves a field at its zero value.
const (
	// DefaultMaxAttempts is the number of attempts made per request.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the pause between two failed attempts.
	DefaultRetryDelay = 1 * time.Second

	// DefaultTimeout bounds a single attempt, including reading the body.
	DefaultTimeout = 30 * time.Second
)

// ErrNoResponse is returned after every attempt failed.
var ErrNoResponse = errors.New("no response after retries")

// Doer is the subset of *http.Client used by Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	// HTTPClient performs the requests. It carries the shared session
	// (cookie jar, TLS settings) between calls. Defaults to http.DefaultClient.
	HTTPClient Doer

	// RetryDelay is the pause after a failed attempt (default: 1s).
	RetryDelay time.Duration

	// Logger receives one warning per failed attempt.
	Logger zerolog.Logger
}

// Request describes one logical request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Timeout bounds each attempt (default: 30s).
	Timeout time.Duration

	// MaxAttempts caps the number of attempts (default: 3).
	MaxAttempts int
}

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs requests with bounded retry.
type Client struct {
	doer   Doer
	delay  time.Duration
	logger zerolog.Logger

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a retry client.
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &Client{
		doer:   cfg.HTTPClient,
		delay:  cfg.RetryDelay,
		logger: cfg.Logger.With().Str("component", "httpretry").Logger(),
		sleep:  sleepContext,
	}
}

// Do sends the request, retrying transport failures up to MaxAttempts times.
// It returns the first response received. After the last failed attempt it
// returns an error wrapping both ErrNoResponse and the last cause.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.attempt(ctx, method, r, timeout)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		c.logger.Warn().
			Err(err).
			Str("method", method).
			Str("url", r.URL).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("request failed")

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == attempts {
			break
		}
		if err := c.sleep(ctx, c.delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %s %s: %w", ErrNoResponse, method, r.URL, lastErr)
}

// attempt performs a single round trip and buffers the body.
func (c *Client) attempt(ctx context.Context, method string, r *Request, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
