package model

import "strings"

// ReservationState is the reservation status of a port as seen by this
// session.
type ReservationState uint8

const (
	ReservationUnknown ReservationState = iota
	ReservationReleased
	ReservationReservedByYou
	ReservationReservedByOther
)

// String returns the protocol token for the state.
func (s ReservationState) String() string {
	switch s {
	case ReservationReleased:
		return "RELEASED"
	case ReservationReservedByYou:
		return "RESERVED_BY_YOU"
	case ReservationReservedByOther:
		return "RESERVED_BY_OTHER"
	default:
		return "UNKNOWN"
	}
}

// ParseReservationState decodes a p_reservation value.
func ParseReservationState(s string) ReservationState {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RELEASED":
		return ReservationReleased
	case "RESERVED_BY_YOU":
		return ReservationReservedByYou
	case "RESERVED_BY_OTHER":
		return ReservationReservedByOther
	default:
		return ReservationUnknown
	}
}

// TrafficState is the traffic generation status of a port.
type TrafficState uint8

const (
	TrafficUnknown TrafficState = iota
	TrafficOff
	TrafficOn
)

// String returns the protocol token for the state.
func (s TrafficState) String() string {
	switch s {
	case TrafficOff:
		return "off"
	case TrafficOn:
		return "on"
	default:
		return "unknown"
	}
}

// ParseTrafficState decodes a p_traffic value.
func ParseTrafficState(s string) TrafficState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return TrafficOff
	case "on":
		return TrafficOn
	default:
		return TrafficUnknown
	}
}
