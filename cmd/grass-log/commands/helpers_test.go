package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/grass-node/grass-go/pkg/log"
)

var base = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

// sessionEvents is one failed attempt followed by an authorized one.
func sessionEvents() []log.Event {
	const (
		c1 = "11111111-aaaa-bbbb-cccc-000000000001"
		c2 = "22222222-aaaa-bbbb-cccc-000000000002"
		ep = "wss://broker.example.test:4444/"
	)
	return []log.Event{
		{Timestamp: base, ConnectionID: c1, Category: log.CategoryState, Endpoint: ep,
			StateChange: &log.StateChangeEvent{OldState: "DISCONNECTED", NewState: "CONNECTING"}},
		{Timestamp: base.Add(time.Second), ConnectionID: c1, Category: log.CategoryError, Endpoint: ep,
			Error: &log.ErrorEventData{Message: "connect: tls handshake timeout", Context: "session"}},
		{Timestamp: base.Add(time.Second), ConnectionID: c1, Category: log.CategoryState, Endpoint: ep,
			StateChange: &log.StateChangeEvent{OldState: "CONNECTING", NewState: "FAILED", Reason: "connect: tls handshake timeout"}},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: c2, Category: log.CategoryState, Endpoint: ep, DeviceID: "dev-1",
			StateChange: &log.StateChangeEvent{OldState: "FAILED", NewState: "CONNECTING"}},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: c2, Direction: log.DirectionIn, Category: log.CategoryMessage, Endpoint: ep, DeviceID: "dev-1",
			Message: &log.MessageEvent{Action: "AUTH", MessageID: "auth-1", Payload: []byte(`{"id":"auth-1","action":"AUTH"}`)}},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: c2, Direction: log.DirectionOut, Category: log.CategoryMessage, Endpoint: ep, DeviceID: "dev-1",
			Message: &log.MessageEvent{Action: "AUTH", MessageID: "r-1", Payload: []byte(`{"id":"r-1","origin_action":"AUTH"}`)}},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: c2, Direction: log.DirectionOut, Category: log.CategoryMessage, Endpoint: ep, DeviceID: "dev-1",
			Message: &log.MessageEvent{Action: "PING", MessageID: "p-1"}},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: c2, Category: log.CategoryState, Endpoint: ep, DeviceID: "dev-1",
			StateChange: &log.StateChangeEvent{OldState: "AWAITING_AUTH", NewState: "ACTIVE"}},
		{Timestamp: base.Add(10 * time.Second), ConnectionID: c2, Direction: log.DirectionIn, Category: log.CategoryMessage, Endpoint: ep, DeviceID: "dev-1",
			Message: &log.MessageEvent{Action: "PONG", MessageID: "pong-1"}},
	}
}

func writeCapture(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.glog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}
