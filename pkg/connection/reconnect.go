package connection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Connection errors.
var (
	// ErrSessionEnded is reported when a session function returned without
	// an error. Sessions are expected to run until they fail.
	ErrSessionEnded = errors.New("session ended")
)

// State represents the connection state.
type State uint8

const (
	// StateDisconnected indicates no connection attempt has started.
	StateDisconnected State = iota

	// StateConnecting indicates an endpoint is being selected and dialed.
	StateConnecting

	// StateAwaitingAuth indicates the socket is open and the node waits
	// for the broker's AUTH request.
	StateAwaitingAuth

	// StateActive indicates the node answered AUTH and exchanges heartbeats.
	StateActive

	// StateFailed indicates the last session ended with an error.
	StateFailed

	// StateClosed indicates the manager stopped because its context ended.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateAwaitingAuth:
		return "AWAITING_AUTH"
	case StateActive:
		return "ACTIVE"
	case StateFailed:
		return "FAILED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// SessionFunc runs one connection attempt until it fails.
// It must return promptly once ctx is done.
type SessionFunc func(ctx context.Context) error

// Manager runs a session function forever, tracking state and pausing
// between attempts according to its backoff.
type Manager struct {
	mu sync.RWMutex

	// Current state
	state State

	// Backoff calculator
	backoff *Backoff

	// Number of sessions started
	sessions int

	// Callbacks
	onStateChange func(oldState, newState State)
	onRetry       func(attempt int, delay time.Duration, err error)

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates a connection manager with the given backoff.
func NewManager(cfg BackoffConfig) *Manager {
	return &Manager{
		state:   StateDisconnected,
		backoff: NewBackoff(cfg),
		sleep:   sleepContext,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsActive returns true if the session is authenticated.
func (m *Manager) IsActive() bool {
	return m.State() == StateActive
}

// SetState records a transition. Entering StateActive resets the backoff.
// Setting the current state again is a no-op.
func (m *Manager) SetState(s State) {
	m.mu.Lock()
	old := m.state
	if old == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	cb := m.onStateChange
	m.mu.Unlock()

	if s == StateActive {
		m.backoff.Reset()
	}
	if cb != nil {
		cb(old, s)
	}
}

// Run calls fn in a loop until ctx is done. Every return from fn is a
// failure: the state moves to StateFailed, the backoff delay elapses, and fn
// runs again. There is no attempt cap.
//
// Run returns ctx.Err() after moving to StateClosed.
func (m *Manager) Run(ctx context.Context, fn SessionFunc) error {
	for {
		if err := ctx.Err(); err != nil {
			m.SetState(StateClosed)
			return err
		}

		m.mu.Lock()
		m.sessions++
		m.mu.Unlock()

		err := fn(ctx)

		if ctxErr := ctx.Err(); ctxErr != nil {
			m.SetState(StateClosed)
			return ctxErr
		}
		if err == nil {
			err = ErrSessionEnded
		}

		m.SetState(StateFailed)

		delay := m.backoff.Next()

		m.mu.RLock()
		cb := m.onRetry
		m.mu.RUnlock()
		if cb != nil {
			cb(m.backoff.Attempts(), delay, err)
		}

		if delay > 0 {
			if err := m.sleep(ctx, delay); err != nil {
				m.SetState(StateClosed)
				return err
			}
		}
	}
}

// Sessions returns how many times the session function has been started.
func (m *Manager) Sessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions
}

// BackoffAttempts returns the number of failures since the last Active state.
func (m *Manager) BackoffAttempts() int {
	return m.backoff.Attempts()
}

// OnStateChange sets a callback for state changes.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnRetry sets a callback invoked after each failure, before the delay.
func (m *Manager) OnRetry(fn func(attempt int, delay time.Duration, err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRetry = fn
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
