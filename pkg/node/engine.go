package node

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/grass-node/grass-go/pkg/api"
	"github.com/grass-node/grass-go/pkg/connection"
	"github.com/grass-node/grass-go/pkg/log"
	"github.com/grass-node/grass-go/pkg/transport"
)

// Engine defaults.
const (
	// DefaultMessagePause is the pause after each processed inbound message.
	DefaultMessagePause = 3 * time.Second

	// DefaultDeviceRetryDelay is the wait before retrying a failed device lookup.
	DefaultDeviceRetryDelay = time.Second
)

// Engine errors.
var (
	ErrNoDialer  = errors.New("engine requires a dialer")
	ErrNoDevices = errors.New("engine requires a device resolver")
)

// Config configures an Engine.
type Config struct {
	// Dialer picks endpoints and opens broker connections. Required.
	Dialer transport.ConnDialer

	// Devices resolves the device descriptor before each attempt. Required.
	Devices api.DeviceResolver

	// MessagePause follows every processed inbound message (default: 3s).
	MessagePause time.Duration

	// DeviceRetryDelay separates failed device lookups (default: 1s).
	DeviceRetryDelay time.Duration

	// Backoff paces reconnection. The zero value reconnects immediately.
	Backoff connection.BackoffConfig

	// Logger receives operational logs.
	Logger zerolog.Logger

	// ProtocolLogger receives captured session events (default: discard).
	ProtocolLogger log.Logger

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// Engine keeps one authenticated broker session alive.
type Engine struct {
	dialer           transport.ConnDialer
	devices          api.DeviceResolver
	messagePause     time.Duration
	deviceRetryDelay time.Duration
	logger           zerolog.Logger
	capture          log.Logger
	now              func() time.Time

	manager *connection.Manager

	mu            sync.Mutex
	attempt       *attempt
	onStateChange func(oldState, newState connection.State)

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates a handshake engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Dialer == nil {
		return nil, ErrNoDialer
	}
	if cfg.Devices == nil {
		return nil, ErrNoDevices
	}
	if cfg.MessagePause == 0 {
		cfg.MessagePause = DefaultMessagePause
	}
	if cfg.DeviceRetryDelay == 0 {
		cfg.DeviceRetryDelay = DefaultDeviceRetryDelay
	}
	if cfg.ProtocolLogger == nil {
		cfg.ProtocolLogger = log.NoopLogger{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	e := &Engine{
		dialer:           cfg.Dialer,
		devices:          cfg.Devices,
		messagePause:     cfg.MessagePause,
		deviceRetryDelay: cfg.DeviceRetryDelay,
		logger:           cfg.Logger.With().Str("component", "engine").Logger(),
		capture:          cfg.ProtocolLogger,
		now:              cfg.Now,
		manager:          connection.NewManager(cfg.Backoff),
		sleep:            sleepContext,
	}
	e.manager.OnStateChange(e.stateChanged)
	e.manager.OnRetry(func(attempt int, delay time.Duration, err error) {
		e.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("connection failed, reconnecting")
	})
	return e, nil
}

// State returns the current connection state.
func (e *Engine) State() connection.State {
	return e.manager.State()
}

// Sessions returns how many connection attempts have started.
func (e *Engine) Sessions() int {
	return e.manager.Sessions()
}

// OnStateChange sets a callback for connection state transitions.
// The callback runs on the engine goroutine and must not block.
func (e *Engine) OnStateChange(fn func(oldState, newState connection.State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStateChange = fn
}

// Run keeps a broker session alive for userID until ctx is done.
// It returns ctx.Err().
func (e *Engine) Run(ctx context.Context, userID api.UserID) error {
	e.logger.Info().Str("user_id", string(userID)).Msg("starting broker session loop")
	return e.manager.Run(ctx, func(ctx context.Context) error {
		return e.runAttempt(ctx, userID)
	})
}

// Reconnect closes the current connection, if any. The running attempt
// fails and the engine starts a new one. It reports whether a connection
// was open.
func (e *Engine) Reconnect() bool {
	e.mu.Lock()
	var (
		conn transport.Conn
		id   string
	)
	if e.attempt != nil {
		conn, id = e.attempt.conn, e.attempt.id
	}
	e.mu.Unlock()

	if conn == nil {
		return false
	}
	e.logger.Info().Str("conn_id", id).Msg("forcing reconnect")
	_ = conn.Close()
	return true
}

func (e *Engine) stateChanged(oldState, newState connection.State) {
	e.mu.Lock()
	a := e.attempt
	cb := e.onStateChange
	e.mu.Unlock()

	e.logger.Debug().Stringer("from", oldState).Stringer("to", newState).Msg("state change")

	event := log.Event{
		Timestamp: e.now(),
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: oldState.String(),
			NewState: newState.String(),
		},
	}
	if a != nil {
		a.stamp(&event)
		event.StateChange.Reason = a.failure
	}
	e.capture.Log(event)

	if cb != nil {
		cb(oldState, newState)
	}
}

func (e *Engine) setAttempt(a *attempt) {
	e.mu.Lock()
	e.attempt = a
	e.mu.Unlock()
}

func (e *Engine) setConn(a *attempt, conn transport.Conn) {
	e.mu.Lock()
	a.conn = conn
	e.mu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
