package transport

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Broker defaults.
const (
	// DefaultOrigin is the browser-extension origin presented to the broker.
	DefaultOrigin = "chrome-extension://ilehaonighjijnmpnagapkhpcdbhclfg"

	// DefaultAcceptLanguage is the Accept-Language header value.
	DefaultAcceptLanguage = "zh-CN,zh;q=0.9"

	// DefaultHandshakeTimeout bounds the TCP, TLS and upgrade handshake.
	DefaultHandshakeTimeout = 30 * time.Second

	// closeGrace bounds the close frame written by Close.
	closeGrace = time.Second
)

// DefaultEndpoints are the broker endpoints tried at random.
var DefaultEndpoints = []string{
	"wss://proxy.wynd.network:4650/",
	"wss://proxy.wynd.network:4444/",
}

// Transport errors.
var (
	ErrNoEndpoints      = errors.New("no broker endpoints configured")
	ErrConnectionClosed = errors.New("connection closed")
)

// DialerConfig configures a Dialer.
type DialerConfig struct {
	// Endpoints are the candidate broker URIs (default: DefaultEndpoints).
	Endpoints []string

	// Origin is sent as the Origin header (default: DefaultOrigin).
	Origin string

	// AcceptLanguage is sent as Accept-Language (default: DefaultAcceptLanguage).
	AcceptLanguage string

	// TLS settings for wss:// endpoints.
	TLS TLSConfig

	// HandshakeTimeout bounds the upgrade (default: 30s).
	HandshakeTimeout time.Duration

	// ReadTimeout bounds each Receive. Zero blocks indefinitely.
	ReadTimeout time.Duration

	// WriteTimeout bounds each Send. Zero blocks indefinitely.
	WriteTimeout time.Duration

	// DisableCompression turns off permessage-deflate negotiation.
	DisableCompression bool

	// Intn returns a random int in [0, n). Defaults to a time-seeded source.
	Intn func(n int) int
}

// Dialer opens WebSocket connections to the broker.
type Dialer struct {
	config DialerConfig
	ws     *websocket.Dialer

	rngMu sync.Mutex
	intn  func(n int) int
}

// NewDialer creates a broker dialer.
func NewDialer(config DialerConfig) (*Dialer, error) {
	if config.Endpoints == nil {
		config.Endpoints = DefaultEndpoints
	}
	if len(config.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	if config.Origin == "" {
		config.Origin = DefaultOrigin
	}
	if config.AcceptLanguage == "" {
		config.AcceptLanguage = DefaultAcceptLanguage
	}
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}

	intn := config.Intn
	if intn == nil {
		intn = rand.New(rand.NewSource(time.Now().UnixNano())).Intn
	}

	return &Dialer{
		config: config,
		ws: &websocket.Dialer{
			Proxy:             http.ProxyFromEnvironment,
			HandshakeTimeout:  config.HandshakeTimeout,
			TLSClientConfig:   NewClientTLSConfig(config.TLS),
			EnableCompression: !config.DisableCompression,
		},
		intn: intn,
	}, nil
}

// PickEndpoint returns one endpoint chosen uniformly at random.
// There is no affinity between successive calls.
func (d *Dialer) PickEndpoint() string {
	d.rngMu.Lock()
	i := d.intn(len(d.config.Endpoints))
	d.rngMu.Unlock()
	return d.config.Endpoints[i]
}

// Header returns the upgrade request headers for the given user agent.
// Upgrade, Connection, Sec-WebSocket-Version, Sec-WebSocket-Key and
// Sec-WebSocket-Extensions are added by the websocket library.
func (d *Dialer) Header(userAgent string) http.Header {
	h := http.Header{}
	h.Set("Pragma", "no-cache")
	h.Set("Origin", d.config.Origin)
	h.Set("Accept-Language", d.config.AcceptLanguage)
	h.Set("Cache-Control", "no-cache")
	if userAgent != "" {
		h.Set("User-Agent", userAgent)
	}
	return h
}

// Dial connects to endpoint.
func (d *Dialer) Dial(ctx context.Context, endpoint, userAgent string) (Conn, error) {
	conn, resp, err := d.ws.DialContext(ctx, endpoint, d.Header(userAgent))
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return &WSConn{
		conn:         conn,
		readTimeout:  d.config.ReadTimeout,
		writeTimeout: d.config.WriteTimeout,
		closeCh:      make(chan struct{}),
	}, nil
}

// WSConn is a broker connection backed by gorilla/websocket.
type WSConn struct {
	conn         *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
	closeCh      chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex
	readMu    sync.Mutex
}

// RemoteAddr returns the remote network address.
func (c *WSConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send writes one text frame.
func (c *WSConn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		defer c.conn.SetWriteDeadline(time.Time{})
	}

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Receive returns the payload of the next text or binary frame.
func (c *WSConn) Receive() ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	default:
	}

	if c.readTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		select {
		case <-c.closeCh:
			return nil, ErrConnectionClosed
		default:
		}
		return nil, err
	}
	return data, nil
}

// Close sends a best-effort close frame and closes the connection.
func (c *WSConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		err = c.conn.Close()
	})
	return err
}
