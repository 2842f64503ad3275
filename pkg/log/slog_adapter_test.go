package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func logJSON(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsLineEvent(t *testing.T) {
	entry := logJSON(t, Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
		Chassis:      "192.168.1.10",
		Line:         &LineEvent{Text: "<OK>", Size: 6},
	})

	if entry["conn_id"] != "conn-123" {
		t.Errorf("conn_id: got %v", entry["conn_id"])
	}
	if entry["direction"] != "IN" {
		t.Errorf("direction: got %v", entry["direction"])
	}
	if entry["chassis"] != "192.168.1.10" {
		t.Errorf("chassis: got %v", entry["chassis"])
	}
	if entry["line"] != "<OK>" {
		t.Errorf("line: got %v", entry["line"])
	}
}

func TestSlogAdapterLogsCommandEvent(t *testing.T) {
	d := 3 * time.Millisecond
	entry := logJSON(t, Event{
		ConnectionID: "conn-1",
		Layer:        LayerWire,
		Command: &CommandEvent{
			Address:  "0/1",
			Mnemonic: "p_reservation",
			Args:     []string{"reserve"},
			Status:   "<OK>",
			Duration: &d,
		},
	})

	if entry["mnemonic"] != "p_reservation" {
		t.Errorf("mnemonic: got %v", entry["mnemonic"])
	}
	if entry["address"] != "0/1" {
		t.Errorf("address: got %v", entry["address"])
	}
	if entry["status"] != "<OK>" {
		t.Errorf("status: got %v", entry["status"])
	}
}

func TestSlogAdapterLogsStateChange(t *testing.T) {
	entry := logJSON(t, Event{
		Category: CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityReservation,
			Object:   "10.0.0.1/0/1",
			OldState: "RELEASED",
			NewState: "RESERVED_BY_YOU",
		},
	})

	if entry["entity"] != "RESERVATION" {
		t.Errorf("entity: got %v", entry["entity"])
	}
	if entry["object"] != "10.0.0.1/0/1" {
		t.Errorf("object: got %v", entry["object"])
	}
}
