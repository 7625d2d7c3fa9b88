package commands

import (
	"fmt"
	"io"

	"github.com/grass-node/grass-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
//
//	2026-01-28T10:15:32.123456Z [conn:abc12345] IN  MESSAGE AUTH
//	  MessageID: 4f1c...
//	  Payload: {"id":"4f1c...","action":"AUTH"}
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	label := "Unknown"
	switch {
	case event.Message != nil:
		label = event.Message.Action
		if label == "" {
			label = "(no action)"
		}
	case event.StateChange != nil:
		label = "State"
	case event.Error != nil:
		label = "Error"
	}

	dir := event.Direction.String()
	if event.Category != log.CategoryMessage {
		dir = "-"
	}
	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n", ts, shortenConnID(event.ConnectionID), dir, event.Category, label)

	switch {
	case event.Message != nil:
		if event.Message.MessageID != "" {
			fmt.Fprintf(w, "  MessageID: %s\n", event.Message.MessageID)
		}
		if len(event.Message.Payload) > 0 {
			fmt.Fprintf(w, "  Payload: %s\n", event.Message.Payload)
		}
	case event.StateChange != nil:
		if event.StateChange.OldState != "" {
			fmt.Fprintf(w, "  %s -> %s\n", event.StateChange.OldState, event.StateChange.NewState)
		} else {
			fmt.Fprintf(w, "  -> %s\n", event.StateChange.NewState)
		}
		if event.StateChange.Reason != "" {
			fmt.Fprintf(w, "  Reason: %s\n", event.StateChange.Reason)
		}
		if event.Endpoint != "" {
			fmt.Fprintf(w, "  Endpoint: %s\n", event.Endpoint)
		}
	case event.Error != nil:
		fmt.Fprintf(w, "  Message: %s\n", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, "  Context: %s\n", event.Error.Context)
		}
	}

	fmt.Fprintln(w)
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// RunView prints the events of path matching opts.
func RunView(path string, opts FilterOptions, output io.Writer) error {
	filter, err := BuildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	return forEach(reader, func(event log.Event) error {
		formatEvent(output, event)
		return nil
	})
}
