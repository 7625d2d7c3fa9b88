package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
)

func TestExportJSONL(t *testing.T) {
	path := writeCapture(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunExport(path, "jsonl", FilterOptions{}, &buf); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 9 {
		t.Fatalf("got %d lines, want 9", len(lines))
	}

	var auth map[string]any
	if err := json.Unmarshal([]byte(lines[4]), &auth); err != nil {
		t.Fatalf("line 4 is not JSON: %v", err)
	}
	if auth["action"] != "AUTH" || auth["direction"] != "IN" || auth["message_id"] != "auth-1" {
		t.Errorf("unexpected line: %v", auth)
	}
	payload, ok := auth["payload"].(map[string]any)
	if !ok || payload["id"] != "auth-1" {
		t.Errorf("payload not embedded: %v", auth["payload"])
	}

	var failed map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &failed); err != nil {
		t.Fatalf("line 2 is not JSON: %v", err)
	}
	if failed["new_state"] != "FAILED" || failed["direction"] != nil {
		t.Errorf("unexpected state line: %v", failed)
	}
}

func TestExportCSV(t *testing.T) {
	path := writeCapture(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunExport(path, "csv", FilterOptions{Category: "error"}, &buf); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want header + 1", len(records))
	}
	if records[0][0] != "timestamp" {
		t.Errorf("header: %v", records[0])
	}
	if records[1][3] != "ERROR" || records[1][8] != "connect: tls handshake timeout" {
		t.Errorf("row: %v", records[1])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := writeCapture(t, nil)
	if err := RunExport(path, "xml", FilterOptions{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
