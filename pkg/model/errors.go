package model

import (
	"errors"
	"fmt"

	"github.com/xena-tools/xenamanager-go/pkg/poll"
)

// Resource tree errors.
var (
	// ErrProtocol indicates the chassis rejected a command or returned a
	// reply that could not be parsed.
	ErrProtocol = errors.New("protocol error")

	// ErrReservationConflict indicates a port is reserved by another owner.
	ErrReservationConflict = errors.New("port reserved by another owner")

	// ErrTimeout indicates a polled state was not reached in time.
	ErrTimeout = poll.ErrTimeout

	// ErrNotFound indicates no object with the requested name exists.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidLocation indicates a malformed port location.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrNoCommander indicates the node is not attached to a chassis connection.
	ErrNoCommander = errors.New("no chassis connection")

	// ErrDuplicateName indicates a node name already used in the tree.
	ErrDuplicateName = errors.New("duplicate object name")
)

// ProtocolError describes a command the chassis rejected or answered with
// an unparseable reply.
type ProtocolError struct {
	// Command is the line that was sent.
	Command string

	// Reply is the offending reply line, if any.
	Reply string

	// Err is the underlying cause (a *wire.StatusError or wire.ErrMalformedReply).
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%q: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%q: unexpected reply %q", e.Command, e.Reply)
}

// Unwrap returns ErrProtocol and the underlying cause.
func (e *ProtocolError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrProtocol, e.Err}
	}
	return []error{ErrProtocol}
}

// ReservationError is returned when a port cannot be reserved because
// another owner holds it.
type ReservationError struct {
	// Port is the port name.
	Port string

	// Holder is the current owner as reported by the chassis.
	Holder string
}

func (e *ReservationError) Error() string {
	return fmt.Sprintf("port %s reserved by %q", e.Port, e.Holder)
}

func (e *ReservationError) Unwrap() error {
	return ErrReservationConflict
}
