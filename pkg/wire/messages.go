// Package wire defines the JSON messages exchanged with the proxy broker.
//
// Every inbound message carries an "action" tag. The engine interprets AUTH
// and PONG; anything else decodes to Unknown, which keeps the raw bytes so
// it can be logged or forwarded untouched.
//
// Outbound messages are replies (AuthReply, PongAck), identified by
// "origin_action", and requests (PingRequest), identified by "action".
package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Action is the discriminator of a wire message.
type Action string

// Known actions.
const (
	ActionAuth Action = "AUTH"
	ActionPing Action = "PING"
	ActionPong Action = "PONG"
)

// Protocol versions sent by the node.
const (
	// AuthVersion is reported in the AUTH reply.
	AuthVersion = "2.5.0"

	// PingVersion is sent with every PING request.
	PingVersion = "1.0.0"
)

// Decode errors.
var (
	ErrMalformed     = errors.New("malformed message")
	ErrMissingAction = errors.New("message has no action")
	ErrMissingID     = errors.New("message has no id")
)

// Message is a decoded inbound message.
type Message interface {
	// MessageID returns the id the broker assigned to the message.
	MessageID() string

	// MessageAction returns the action tag.
	MessageAction() Action

	// Raw returns the message exactly as received.
	Raw() json.RawMessage
}

type envelope struct {
	ID     string `json:"id"`
	Action Action `json:"action"`
}

// Auth asks the node to authenticate.
type Auth struct {
	ID  string
	raw json.RawMessage
}

func (m *Auth) MessageID() string     { return m.ID }
func (m *Auth) MessageAction() Action { return ActionAuth }
func (m *Auth) Raw() json.RawMessage  { return m.raw }

// Pong is the broker's heartbeat. The node acknowledges it by id.
type Pong struct {
	ID  string
	raw json.RawMessage
}

func (m *Pong) MessageID() string     { return m.ID }
func (m *Pong) MessageAction() Action { return ActionPong }
func (m *Pong) Raw() json.RawMessage  { return m.raw }

// Unknown is any message whose action the node does not handle.
type Unknown struct {
	ID     string
	Action Action
	raw    json.RawMessage
}

func (m *Unknown) MessageID() string     { return m.ID }
func (m *Unknown) MessageAction() Action { return m.Action }
func (m *Unknown) Raw() json.RawMessage  { return m.raw }

// Decode parses one inbound frame.
//
// A frame that is not a JSON object, or has no action, is an error. A PONG
// without an id is an error because it cannot be acknowledged.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if env.Action == "" {
		return nil, ErrMissingAction
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)

	switch env.Action {
	case ActionAuth:
		return &Auth{ID: env.ID, raw: raw}, nil
	case ActionPong:
		if env.ID == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingID, env.Action)
		}
		return &Pong{ID: env.ID, raw: raw}, nil
	default:
		return &Unknown{ID: env.ID, Action: env.Action, raw: raw}, nil
	}
}

// Outbound is a message the node sends.
type Outbound interface {
	// MessageID returns the id of the message.
	MessageID() string

	// Kind returns the action or origin action, for logging.
	Kind() Action
}

// AuthResult is the node's identity as reported in the AUTH reply.
type AuthResult struct {
	BrowserID  string `json:"browser_id"`
	UserID     string `json:"user_id"`
	UserAgent  string `json:"user_agent"`
	Timestamp  int64  `json:"timestamp"`
	DeviceType string `json:"device_type"`
	Version    string `json:"version"`
}

// AuthReply answers an AUTH request.
type AuthReply struct {
	ID           string     `json:"id"`
	OriginAction Action     `json:"origin_action"`
	Result       AuthResult `json:"result"`
}

func (m AuthReply) MessageID() string { return m.ID }
func (m AuthReply) Kind() Action      { return m.OriginAction }

// PongAck acknowledges a PONG, echoing its id.
type PongAck struct {
	ID           string `json:"id"`
	OriginAction Action `json:"origin_action"`
}

func (m PongAck) MessageID() string { return m.ID }
func (m PongAck) Kind() Action      { return m.OriginAction }

// PingRequest is the node's heartbeat.
type PingRequest struct {
	ID      string   `json:"id"`
	Version string   `json:"version"`
	Action  Action   `json:"action"`
	Data    struct{} `json:"data"`
}

func (m PingRequest) MessageID() string { return m.ID }
func (m PingRequest) Kind() Action      { return m.Action }

// NewAuthReply builds an AUTH reply with a fresh id. Version defaults to
// AuthVersion.
func NewAuthReply(result AuthResult) AuthReply {
	if result.Version == "" {
		result.Version = AuthVersion
	}
	return AuthReply{
		ID:           uuid.NewString(),
		OriginAction: ActionAuth,
		Result:       result,
	}
}

// NewPongAck builds the acknowledgement for the PONG with the given id.
func NewPongAck(id string) PongAck {
	return PongAck{ID: id, OriginAction: ActionPong}
}

// NewPing builds a PING request with a fresh id.
func NewPing() PingRequest {
	return PingRequest{
		ID:      uuid.NewString(),
		Version: PingVersion,
		Action:  ActionPing,
	}
}

// Encode serializes an outbound message.
func Encode(m Outbound) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	return data, nil
}

// Compile-time interface satisfaction checks.
var (
	_ Message  = (*Auth)(nil)
	_ Message  = (*Pong)(nil)
	_ Message  = (*Unknown)(nil)
	_ Outbound = AuthReply{}
	_ Outbound = PongAck{}
	_ Outbound = PingRequest{}
)
