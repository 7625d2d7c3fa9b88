package log

import (
	"github.com/rs/zerolog"
)

// ZerologAdapter writes session events to a zerolog.Logger.
// Useful for development when you want to see broker traffic in the console.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a ZerologAdapter that writes to logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Log writes the event at Debug level.
func (a *ZerologAdapter) Log(event Event) {
	e := a.logger.Debug().
		Str("conn_id", event.ConnectionID).
		Str("direction", event.Direction.String()).
		Str("category", event.Category.String())

	if event.Endpoint != "" {
		e = e.Str("endpoint", event.Endpoint)
	}
	if event.DeviceID != "" {
		e = e.Str("device_id", event.DeviceID)
	}

	switch {
	case event.Message != nil:
		e = e.Str("action", event.Message.Action)
		if event.Message.MessageID != "" {
			e = e.Str("msg_id", event.Message.MessageID)
		}
		if len(event.Message.Payload) > 0 {
			e = e.RawJSON("payload", event.Message.Payload)
		}
	case event.StateChange != nil:
		e = e.Str("old_state", event.StateChange.OldState).
			Str("new_state", event.StateChange.NewState)
		if event.StateChange.Reason != "" {
			e = e.Str("reason", event.StateChange.Reason)
		}
	case event.Error != nil:
		e = e.Str("error_msg", event.Error.Message).
			Str("error_context", event.Error.Context)
	}

	e.Msg("protocol")
}

// Compile-time interface satisfaction check.
var _ Logger = (*ZerologAdapter)(nil)
