package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := Event{
		Timestamp:    time.Now(),
		ConnectionID: "test-conn",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
	}
	logger.Log(event)

	event.Line = &LineEvent{Text: "<OK>", Size: 5}
	logger.Log(event)

	event.Line = nil
	event.Command = &CommandEvent{Mnemonic: "c_logon"}
	logger.Log(event)

	event.Command = nil
	event.StateChange = &StateChangeEvent{Entity: StateEntityConnection, NewState: "connected"}
	logger.Log(event)

	event.StateChange = nil
	event.ControlMsg = &ControlMsgEvent{Type: ControlMsgKeepAlive}
	logger.Log(event)

	event.ControlMsg = nil
	event.Error = &ErrorEventData{Message: "test error"}
	logger.Log(event)
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})
}

func TestEnumStrings(t *testing.T) {
	if DirectionOut.String() != "OUT" || Direction(9).String() != "UNKNOWN" {
		t.Error("Direction.String mismatch")
	}
	if LayerService.String() != "SERVICE" {
		t.Errorf("LayerService = %s", LayerService)
	}
	if CategoryControl.String() != "CONTROL" {
		t.Errorf("CategoryControl = %s", CategoryControl)
	}
	if StateEntityTraffic.String() != "TRAFFIC" {
		t.Errorf("StateEntityTraffic = %s", StateEntityTraffic)
	}
	if ControlMsgKeepAliveReply.String() != "KEEPALIVE_REPLY" {
		t.Errorf("ControlMsgKeepAliveReply = %s", ControlMsgKeepAliveReply)
	}
}

// recorder records events for testing.
type recorder struct {
	events []Event
}

func (r *recorder) Log(event Event) {
	r.events = append(r.events, event)
}

func TestTeeCallsEveryLogger(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	var viaFunc []string

	tee := Tee(a, nil, b, LoggerFunc(func(e Event) { viaFunc = append(viaFunc, e.ConnectionID) }))
	tee.Log(Event{ConnectionID: "conn-123", Chassis: "10.0.0.1"})

	for i, r := range []*recorder{a, b} {
		if len(r.events) != 1 || r.events[0].ConnectionID != "conn-123" {
			t.Errorf("logger %d: got %+v", i, r.events)
		}
	}
	if len(viaFunc) != 1 || viaFunc[0] != "conn-123" {
		t.Errorf("LoggerFunc got %v", viaFunc)
	}
}

func TestTeeCollapses(t *testing.T) {
	if l := Tee(); l != nil {
		t.Errorf("Tee() = %v, want nil", l)
	}
	if l := Tee(nil, nil); l != nil {
		t.Errorf("Tee(nil, nil) = %v, want nil", l)
	}
	r := &recorder{}
	if l := Tee(nil, r); l != Logger(r) {
		t.Errorf("Tee(nil, r) = %v, want r itself", l)
	}
}
