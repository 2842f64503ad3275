package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the chassis connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates line flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the chassis address (IP:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Chassis is the chassis name within the session.
	Chassis string `cbor:"7,keyasint,omitempty"`

	// Owner is the reservation owner of the session.
	Owner string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Line        *LineEvent        `cbor:"10,keyasint,omitempty"` // Transport layer
	Command     *CommandEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Port/connection state
	ControlMsg  *ControlMsgEvent  `cbor:"13,keyasint,omitempty"` // Keep-alive/close
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of line flow.
type Direction uint8

const (
	// DirectionIn indicates a line read from the chassis.
	DirectionIn Direction = 0
	// DirectionOut indicates a line written to the chassis.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the line layer (raw text).
	LayerTransport Layer = 0
	// LayerWire is the command layer (decoded lines).
	LayerWire Layer = 1
	// LayerService is the resource tree layer.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a command or reply line.
	CategoryMessage Category = 0
	// CategoryControl indicates a control exchange (keep-alive, close).
	CategoryControl Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LineEvent captures a raw protocol line at the transport layer.
type LineEvent struct {
	// Text is the line without terminator (may be truncated for long lines).
	Text string `cbor:"1,keyasint"`

	// Size is the line size in bytes including the terminator.
	Size int `cbor:"2,keyasint"`

	// Truncated indicates if Text was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// CommandEvent captures a decoded command and the outcome of its exchange.
type CommandEvent struct {
	// Address is the resource address ("" for chassis commands).
	Address string `cbor:"1,keyasint,omitempty"`

	// Mnemonic is the command parameter name.
	Mnemonic string `cbor:"2,keyasint"`

	// Args are the command arguments.
	Args []string `cbor:"3,keyasint,omitempty"`

	// Query is true for "?" queries.
	Query bool `cbor:"4,keyasint,omitempty"`

	// Status is the reply status token for set commands, or empty.
	Status string `cbor:"5,keyasint,omitempty"`

	// ReplyLines is the number of value lines in the reply.
	ReplyLines int `cbor:"6,keyasint,omitempty"`

	// Duration is the exchange round trip (nanoseconds).
	Duration *time.Duration `cbor:"7,keyasint,omitempty"`
}

// StateChangeEvent captures connection and port lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// Object is the name of the tree node that changed (empty for connections).
	Object string `cbor:"2,keyasint,omitempty"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"3,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"4,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"5,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntitySession indicates a logon/owner change.
	StateEntitySession StateEntity = 1
	// StateEntityReservation indicates a port reservation change.
	StateEntityReservation StateEntity = 2
	// StateEntityTraffic indicates a port traffic state change.
	StateEntityTraffic StateEntity = 3
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntitySession:
		return "SESSION"
	case StateEntityReservation:
		return "RESERVATION"
	case StateEntityTraffic:
		return "TRAFFIC"
	default:
		return "UNKNOWN"
	}
}

// ControlMsgEvent captures transport-level control exchanges.
type ControlMsgEvent struct {
	// Type of control message.
	Type ControlMsgType `cbor:"1,keyasint"`

	// Sequence is the keep-alive sequence number.
	Sequence uint32 `cbor:"2,keyasint,omitempty"`
}

// ControlMsgType indicates the type of control message.
type ControlMsgType uint8

const (
	// ControlMsgKeepAlive indicates a keep-alive probe.
	ControlMsgKeepAlive ControlMsgType = 0
	// ControlMsgKeepAliveReply indicates a keep-alive reply.
	ControlMsgKeepAliveReply ControlMsgType = 1
	// ControlMsgClose indicates the connection was closed locally.
	ControlMsgClose ControlMsgType = 2
)

// String returns the control message type name.
func (c ControlMsgType) String() string {
	switch c {
	case ControlMsgKeepAlive:
		return "KEEPALIVE"
	case ControlMsgKeepAliveReply:
		return "KEEPALIVE_REPLY"
	case ControlMsgClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Status is the reply status token if the chassis rejected a command.
	Status string `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
