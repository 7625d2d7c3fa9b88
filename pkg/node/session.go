package node

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/grass-node/grass-go/pkg/api"
	"github.com/grass-node/grass-go/pkg/connection"
	"github.com/grass-node/grass-go/pkg/log"
	"github.com/grass-node/grass-go/pkg/transport"
	"github.com/grass-node/grass-go/pkg/wire"
)

// attempt is one pass through Connecting -> AwaitingAuth -> Active.
type attempt struct {
	id       string
	endpoint string
	userID   api.UserID
	device   *api.Device

	// conn is guarded by Engine.mu.
	conn transport.Conn

	// failure is the error that ended the attempt, for the Failed event.
	failure string
}

// stamp fills the identifying fields of a captured event.
func (a *attempt) stamp(event *log.Event) {
	event.ConnectionID = a.id
	event.Endpoint = a.endpoint
	event.UserID = string(a.userID)
	if a.device != nil {
		event.DeviceID = a.device.DeviceID
	}
}

func (e *Engine) runAttempt(ctx context.Context, userID api.UserID) error {
	a := &attempt{id: uuid.NewString(), userID: userID}
	e.setAttempt(a)

	err := e.connectAndServe(ctx, a)
	if err != nil {
		a.failure = err.Error()
		if ctx.Err() == nil {
			e.captureError(a, err, "session")
		}
	}
	return err
}

func (e *Engine) connectAndServe(ctx context.Context, a *attempt) error {
	e.manager.SetState(connection.StateConnecting)

	device, err := e.resolveDevice(ctx, a)
	if err != nil {
		return err
	}
	a.device = device

	logger := e.logger.With().
		Str("conn_id", a.id).
		Str("endpoint", a.endpoint).
		Str("device_id", device.DeviceID).
		Logger()

	logger.Info().Msg("connecting to broker")
	conn, err := e.dialer.Dial(ctx, a.endpoint, device.UserAgent)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	e.setConn(a, conn)
	defer func() {
		e.setConn(a, nil)
		_ = conn.Close()
	}()

	// Receive has no context; closing the socket unblocks it.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	e.manager.SetState(connection.StateAwaitingAuth)

	for {
		data, err := conn.Receive()
		if err != nil {
			return fmt.Errorf("receive: %w", err)
		}

		msg, err := wire.Decode(data)
		if err != nil {
			e.captureInbound(a, "", "", data)
			return fmt.Errorf("decode: %w", err)
		}
		e.captureInbound(a, string(msg.MessageAction()), msg.MessageID(), msg.Raw())
		logger.Debug().Str("action", string(msg.MessageAction())).Str("msg_id", msg.MessageID()).Msg("received")

		if err := e.dispatch(a, conn, msg); err != nil {
			return err
		}

		if err := e.sleep(ctx, e.messagePause); err != nil {
			return err
		}
	}
}

// resolveDevice picks an endpoint and looks up the device, repeating both
// until a device is available.
func (e *Engine) resolveDevice(ctx context.Context, a *attempt) (*api.Device, error) {
	for {
		a.endpoint = e.dialer.PickEndpoint()

		device, ok := e.devices.Device(ctx)
		if ok {
			return device, nil
		}

		e.logger.Error().Str("conn_id", a.id).Dur("retry_in", e.deviceRetryDelay).Msg("device info unavailable, retrying")
		if err := e.sleep(ctx, e.deviceRetryDelay); err != nil {
			return nil, err
		}
	}
}

// dispatch answers one inbound message.
func (e *Engine) dispatch(a *attempt, conn transport.Conn, msg wire.Message) error {
	switch m := msg.(type) {
	case *wire.Auth:
		reply := wire.NewAuthReply(wire.AuthResult{
			BrowserID:  a.device.DeviceID,
			UserID:     string(a.userID),
			UserAgent:  a.device.UserAgent,
			Timestamp:  e.now().Unix(),
			DeviceType: a.device.DeviceType,
		})
		if err := e.send(a, conn, reply); err != nil {
			return err
		}
		if err := e.send(a, conn, wire.NewPing()); err != nil {
			return err
		}
		e.manager.SetState(connection.StateActive)

	case *wire.Pong:
		if err := e.send(a, conn, wire.NewPongAck(m.ID)); err != nil {
			return err
		}
		if err := e.send(a, conn, wire.NewPing()); err != nil {
			return err
		}

	default:
		e.logger.Debug().Str("conn_id", a.id).Str("action", string(msg.MessageAction())).Msg("ignoring message")
	}
	return nil
}

func (e *Engine) send(a *attempt, conn transport.Conn, m wire.Outbound) error {
	data, err := wire.Encode(m)
	if err != nil {
		return err
	}
	if err := conn.Send(data); err != nil {
		return fmt.Errorf("send %s: %w", m.Kind(), err)
	}

	e.logger.Debug().Str("conn_id", a.id).Str("action", string(m.Kind())).Str("msg_id", m.MessageID()).Msg("sent")

	event := log.Event{
		Timestamp: e.now(),
		Direction: log.DirectionOut,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Action:    string(m.Kind()),
			MessageID: m.MessageID(),
			Payload:   data,
		},
	}
	a.stamp(&event)
	e.capture.Log(event)
	return nil
}

func (e *Engine) captureInbound(a *attempt, action, id string, payload []byte) {
	event := log.Event{
		Timestamp: e.now(),
		Direction: log.DirectionIn,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Action:    action,
			MessageID: id,
			Payload:   payload,
		},
	}
	a.stamp(&event)
	e.capture.Log(event)
}

func (e *Engine) captureError(a *attempt, err error, where string) {
	event := log.Event{
		Timestamp: e.now(),
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Message: err.Error(),
			Context: where,
		},
	}
	a.stamp(&event)
	e.capture.Log(event)
}
