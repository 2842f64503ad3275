package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Location identifies a port across a session: "<chassis>/<module>/<port>".
type Location struct {
	Chassis string
	Module  int
	Port    int
}

// ParseLocation parses a session-wide port location.
func ParseLocation(s string) (Location, error) {
	i := strings.Index(s, "/")
	if i <= 0 {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}
	m, p, err := ParsePortAddress(s[i+1:])
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}
	return Location{Chassis: s[:i], Module: m, Port: p}, nil
}

// ParsePortAddress parses a chassis-relative port address "<module>/<port>".
func ParsePortAddress(s string) (module, port int, err error) {
	ms, ps, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}
	module, err = strconv.Atoi(ms)
	if err != nil || module < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}
	port, err = strconv.Atoi(ps)
	if err != nil || port < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}
	return module, port, nil
}

// Address returns the chassis-relative port address.
func (l Location) Address() string {
	return PortAddress(l.Module, l.Port)
}

// String returns the session-wide location.
func (l Location) String() string {
	return l.Chassis + "/" + l.Address()
}

// PortAddress formats a chassis-relative port address.
func PortAddress(module, port int) string {
	return strconv.Itoa(module) + "/" + strconv.Itoa(port)
}
