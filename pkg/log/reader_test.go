package log

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeEvents(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.glog")
	logger, err := NewFileLogger(path)
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

func sampleEvents(base time.Time) []Event {
	return []Event{
		{Timestamp: base, ConnectionID: "c1", Direction: DirectionIn, Category: CategoryMessage, DeviceID: "d1",
			Message: &MessageEvent{Action: "AUTH", MessageID: "a"}},
		{Timestamp: base.Add(time.Second), ConnectionID: "c1", Direction: DirectionOut, Category: CategoryMessage, DeviceID: "d1",
			Message: &MessageEvent{Action: "AUTH", MessageID: "b"}},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: "c1", Direction: DirectionOut, Category: CategoryMessage, DeviceID: "d1",
			Message: &MessageEvent{Action: "PING", MessageID: "c"}},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: "c1", Category: CategoryState,
			StateChange: &StateChangeEvent{OldState: "AWAITING_AUTH", NewState: "ACTIVE"}},
		{Timestamp: base.Add(4 * time.Second), ConnectionID: "c2", Category: CategoryError, DeviceID: "d2", Endpoint: "wss://b.example.test/",
			Error: &ErrorEventData{Message: "EOF", Context: "receive"}},
	}
}

func collect(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, e)
	}
}

func TestReaderReadsAll(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	path := writeEvents(t, sampleEvents(base))

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	got := collect(t, r)
	if len(got) != 5 {
		t.Fatalf("got %d events, want 5", len(got))
	}
	if got[3].StateChange == nil || got[3].StateChange.NewState != "ACTIVE" {
		t.Errorf("event 3: got %+v", got[3])
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	path := writeEvents(t, sampleEvents(base))

	out := DirectionOut
	state := CategoryState
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"connection", Filter{ConnectionID: "c2"}, 1},
		{"direction", Filter{Direction: &out}, 2},
		{"category", Filter{Category: &state}, 1},
		{"device", Filter{DeviceID: "d1"}, 3},
		{"action", Filter{Action: "AUTH"}, 2},
		{"action excludes non-messages", Filter{Action: "ACTIVE"}, 0},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"action ignores case", Filter{Action: "ping"}, 1},
		{"endpoint", Filter{Endpoint: "wss://b.example.test/"}, 1},
		{"combined", Filter{Direction: &out, Action: "PING"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()

			if got := collect(t, r); len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.glog")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReaderEvents(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	path := writeEvents(t, sampleEvents(base))

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	var ids []string
	for event, err := range r.Events() {
		if err != nil {
			t.Fatalf("Events yielded error: %v", err)
		}
		ids = append(ids, event.ConnectionID)
		if len(ids) == 2 {
			break
		}
	}
	if len(ids) != 2 {
		t.Fatalf("got %d events before break, want 2", len(ids))
	}

	// Breaking out of the loop leaves the reader positioned after event 2.
	next, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if next.Message == nil || next.Message.Action != "PING" {
		t.Errorf("next event: got %+v, want PING", next.Message)
	}

	h, ok := r.Header()
	if !ok {
		t.Fatal("no header read")
	}
	if h.Agent != DefaultAgent || h.Version != FormatVersion {
		t.Errorf("header: got %+v", h)
	}
}

func TestReaderTruncatedFile(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	path := writeEvents(t, sampleEvents(base))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := os.WriteFile(path, data[:len(data)-3], 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	var (
		count   int
		lastErr error
	)
	for _, err := range r.Events() {
		if err != nil {
			lastErr = err
			continue
		}
		count++
	}
	if count != 4 {
		t.Errorf("got %d complete events, want 4", count)
	}
	if !errors.Is(lastErr, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want io.ErrUnexpectedEOF", lastErr)
	}
}
