package transport

import (
	"context"
	"net"
)

// Conn is one open broker connection.
// Implemented by WSConn. Send and Receive must not be called concurrently
// with themselves; Close may be called from any goroutine.
type Conn interface {
	// Receive blocks until the next data frame arrives.
	Receive() ([]byte, error)

	// Send writes one text frame.
	Send(data []byte) error

	// RemoteAddr returns the broker's network address.
	RemoteAddr() net.Addr

	// Close closes the connection. Safe to call more than once.
	Close() error
}

// ConnDialer opens broker connections.
// Implemented by Dialer.
type ConnDialer interface {
	// PickEndpoint returns one of the configured endpoints at random.
	PickEndpoint() string

	// Dial connects to endpoint presenting userAgent as the User-Agent.
	Dial(ctx context.Context, endpoint, userAgent string) (Conn, error)
}

// Compile-time interface satisfaction checks.
var (
	_ Conn       = (*WSConn)(nil)
	_ ConnDialer = (*Dialer)(nil)
)
