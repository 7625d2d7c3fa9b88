package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/grass-node/grass-go/pkg/log"
)

// jsonEvent is the JSONL export shape. Payloads are embedded as JSON.
type jsonEvent struct {
	Timestamp    string          `json:"timestamp"`
	ConnectionID string          `json:"connection_id,omitempty"`
	Direction    string          `json:"direction,omitempty"`
	Category     string          `json:"category"`
	Endpoint     string          `json:"endpoint,omitempty"`
	DeviceID     string          `json:"device_id,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
	Action       string          `json:"action,omitempty"`
	MessageID    string          `json:"message_id,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	OldState     string          `json:"old_state,omitempty"`
	NewState     string          `json:"new_state,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Error        string          `json:"error,omitempty"`
	ErrorContext string          `json:"error_context,omitempty"`
}

func toJSONEvent(e log.Event) jsonEvent {
	out := jsonEvent{
		Timestamp:    e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		ConnectionID: e.ConnectionID,
		Category:     e.Category.String(),
		Endpoint:     e.Endpoint,
		DeviceID:     e.DeviceID,
		UserID:       e.UserID,
	}
	switch {
	case e.Message != nil:
		out.Direction = e.Direction.String()
		out.Action = e.Message.Action
		out.MessageID = e.Message.MessageID
		if json.Valid(e.Message.Payload) {
			out.Payload = e.Message.Payload
		}
	case e.StateChange != nil:
		out.OldState = e.StateChange.OldState
		out.NewState = e.StateChange.NewState
		out.Reason = e.StateChange.Reason
	case e.Error != nil:
		out.Error = e.Error.Message
		out.ErrorContext = e.Error.Context
	}
	return out
}

// RunExport writes the events of path matching opts to w as "jsonl" or "csv".
func RunExport(path, format string, opts FilterOptions, w io.Writer) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	filter, err := BuildFilter(opts)
	if err != nil {
		return err
	}
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	if format == "jsonl" {
		enc := json.NewEncoder(w)
		return forEach(reader, func(e log.Event) error {
			if err := enc.Encode(toJSONEvent(e)); err != nil {
				return fmt.Errorf("failed to encode event: %w", err)
			}
			return nil
		})
	}

	cw := csv.NewWriter(w)
	header := []string{"timestamp", "connection_id", "direction", "category", "endpoint", "device_id", "action", "message_id", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	err = forEach(reader, func(e log.Event) error {
		j := toJSONEvent(e)
		detail := j.NewState
		if j.Error != "" {
			detail = j.Error
		}
		row := []string{j.Timestamp, j.ConnectionID, j.Direction, j.Category, j.Endpoint, j.DeviceID, j.Action, j.MessageID, detail}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
	cw.Flush()
	if err != nil {
		return err
	}
	return cw.Error()
}
