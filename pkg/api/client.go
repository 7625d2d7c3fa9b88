package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/grass-node/grass-go/pkg/httpretry"
)

// Upstream service defaults.
const (
	// DefaultBaseURL is the account service root.
	DefaultBaseURL = "https://api.getgrass.io"

	// DefaultAppOrigin is the web app origin the service expects.
	DefaultAppOrigin = "https://app.getgrass.io"

	// DefaultUserAgent is the browser user agent presented to the API.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultAcceptLanguage is the Accept-Language header value.
	DefaultAcceptLanguage = "zh-CN,zh;q=0.9"

	loginPath  = "/auth/login"
	devicePath = "/extension/device"
)

// Login errors. Both are fatal for the process.
var (
	ErrLoginFailed = errors.New("login failed")
	ErrNoIdentity  = errors.New("login response has no user id")
)

// UserID is the opaque account identity returned by the login call.
type UserID string

// Device is a snapshot of the device telemetry held by the service.
type Device struct {
	DeviceID   string  `json:"device_id"`
	DeviceIP   string  `json:"device_ip"`
	UserAgent  string  `json:"user_agent"`
	DeviceType string  `json:"device_type"`
	FinalScore float64 `json:"final_score"`

	// Raw is the complete "data" object as returned by the service.
	Raw json.RawMessage `json:"-"`
}

// Config configures a Client.
type Config struct {
	// BaseURL is the API root (default: DefaultBaseURL).
	BaseURL string

	// Origin is sent as Origin and Referer (default: DefaultAppOrigin).
	Origin string

	// UserAgent is sent with every API call (default: DefaultUserAgent).
	UserAgent string

	// AcceptLanguage is sent with every API call (default: DefaultAcceptLanguage).
	AcceptLanguage string

	// MaxAttempts and Timeout are passed to every retried request.
	MaxAttempts int
	Timeout     time.Duration

	// HTTP performs the requests. Required.
	HTTP *httpretry.Client

	Logger zerolog.Logger
}

// Client resolves the user identity and the device descriptor.
// It is safe for concurrent use.
type Client struct {
	cfg    Config
	host   string
	logger zerolog.Logger
}

// NewClient creates an API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.HTTP == nil {
		return nil, errors.New("api: HTTP retry client is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Origin == "" {
		cfg.Origin = DefaultAppOrigin
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = DefaultAcceptLanguage
	}

	host := cfg.BaseURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}

	return &Client{
		cfg:    cfg,
		host:   host,
		logger: cfg.Logger.With().Str("component", "api").Logger(),
	}, nil
}

// headers returns the browser-like header set sent with every call.
func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Authority", c.host)
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", c.cfg.AcceptLanguage)
	h.Set("Content-Type", "application/json")
	h.Set("Origin", c.cfg.Origin)
	h.Set("Referer", c.cfg.Origin+"/")
	h.Set("User-Agent", c.cfg.UserAgent)
	return h
}

// Login exchanges the credentials for the user identity.
// Any error is fatal: the caller has no way to open a proxy session without
// an identity.
func (c *Client) Login(ctx context.Context, username, password string) (UserID, error) {
	c.logger.Debug().Str("user", username).Msg("logging in")

	payload, err := json.Marshal(struct {
		User     string `json:"user"`
		Password string `json:"password"`
	}{username, password})
	if err != nil {
		return "", fmt.Errorf("%w: encode credentials: %w", ErrLoginFailed, err)
	}

	resp, err := c.cfg.HTTP.Do(ctx, &httpretry.Request{
		Method:      http.MethodPost,
		URL:         c.cfg.BaseURL + loginPath,
		Header:      c.headers(),
		Body:        payload,
		Timeout:     c.cfg.Timeout,
		MaxAttempts: c.cfg.MaxAttempts,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	c.logger.Debug().Int("status", resp.StatusCode).Bytes("body", resp.Body).Msg("login response")

	var body struct {
		Data *struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", fmt.Errorf("%w: decode response (status %d): %w", ErrLoginFailed, resp.StatusCode, err)
	}
	if body.Data == nil || body.Data.ID == "" {
		return "", fmt.Errorf("%w: %w (status %d)", ErrLoginFailed, ErrNoIdentity, resp.StatusCode)
	}

	c.logger.Info().Str("user_id", body.Data.ID).Msg("logged in")
	return UserID(body.Data.ID), nil
}

// Device fetches the current device descriptor and logs it.
// ok is false when the service gave no usable answer; the cause is logged.
func (c *Client) Device(ctx context.Context) (*Device, bool) {
	return c.device(ctx, false)
}

// DeviceQuiet is Device without the success log lines.
func (c *Client) DeviceQuiet(ctx context.Context) (*Device, bool) {
	return c.device(ctx, true)
}

func (c *Client) device(ctx context.Context, quiet bool) (*Device, bool) {
	resp, err := c.cfg.HTTP.Do(ctx, &httpretry.Request{
		Method:      http.MethodGet,
		URL:         c.cfg.BaseURL + devicePath,
		Header:      c.headers(),
		Timeout:     c.cfg.Timeout,
		MaxAttempts: c.cfg.MaxAttempts,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("get device failed")
		return nil, false
	}

	c.logger.Debug().Int("status", resp.StatusCode).Bytes("body", resp.Body).Msg("device response")

	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		c.logger.Error().Err(err).Int("status", resp.StatusCode).Msg("get device: malformed response")
		return nil, false
	}
	if isEmptyJSON(body.Data) {
		c.logger.Error().Bytes("body", resp.Body).Msg("get device: no device data")
		return nil, false
	}

	var dev Device
	if err := json.Unmarshal(body.Data, &dev); err != nil {
		c.logger.Error().Err(err).Msg("get device: malformed device data")
		return nil, false
	}
	dev.Raw = body.Data

	if !quiet {
		c.logger.Info().
			Str("device_id", dev.DeviceID).
			Str("device_ip", dev.DeviceIP).
			Float64("final_score", dev.FinalScore).
			Msg("got device")
	}
	return &dev, true
}

// isEmptyJSON reports whether raw is absent, null, or an empty object,
// array or string.
func isEmptyJSON(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "{}", "[]", `""`, "false", "0":
		return true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return len(obj) == 0
	}
	return false
}

// DeviceResolver is implemented by Client. The proxy engine and the quality
// monitor depend on it rather than on Client.
type DeviceResolver interface {
	// Device fetches the descriptor and logs it.
	Device(ctx context.Context) (*Device, bool)

	// DeviceQuiet fetches the descriptor without logging success.
	DeviceQuiet(ctx context.Context) (*Device, bool)
}

// Compile-time interface satisfaction check.
var _ DeviceResolver = (*Client)(nil)
