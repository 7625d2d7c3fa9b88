package log

import (
	"time"
)

// Event is one captured broker session event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies one broker connection attempt (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Endpoint is the broker URI the connection was dialed to.
	Endpoint string `cbor:"5,keyasint,omitempty"`

	// DeviceID is the device identifier resolved for the attempt.
	DeviceID string `cbor:"6,keyasint,omitempty"`

	// UserID is the account identity the session runs as.
	UserID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Message     *MessageEvent     `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"12,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates a message received from the broker.
	DirectionIn Direction = 0
	// DirectionOut indicates a message sent to the broker.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// ParseDirection converts a name produced by String back to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "IN", "in":
		return DirectionIn, true
	case "OUT", "out":
		return DirectionOut, true
	}
	return 0, false
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a broker message (AUTH, PING, PONG, ...).
	CategoryMessage Category = 0
	// CategoryState indicates a connection state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory converts a name produced by String back to a Category.
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "MESSAGE", "message":
		return CategoryMessage, true
	case "STATE", "state":
		return CategoryState, true
	case "ERROR", "error":
		return CategoryError, true
	}
	return 0, false
}

// MessageEvent captures one broker message.
type MessageEvent struct {
	// Action is the message action ("AUTH", "PING", "PONG", ...).
	Action string `cbor:"1,keyasint"`

	// MessageID is the message id, empty if the message had none.
	MessageID string `cbor:"2,keyasint,omitempty"`

	// Payload is the raw JSON text of the message.
	Payload []byte `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures a connection lifecycle transition.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures a session error.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
