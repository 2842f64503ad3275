package transport

import (
	"context"
)

// Commander sends command lines to one chassis and returns the replies.
// Implemented by Conn.
type Commander interface {
	// Exchange writes one line and returns the single reply line.
	Exchange(ctx context.Context, line string) (string, error)

	// ExchangeMulti writes one line and returns every reply line up to
	// the end-of-block marker.
	ExchangeMulti(ctx context.Context, line string) ([]string, error)

	// Close closes the connection.
	Close() error
}

// LineReadWriter provides line framed I/O.
// Implemented by Framer.
type LineReadWriter interface {
	// ReadLine reads one line without its terminator.
	ReadLine() (string, error)

	// WriteLine writes one line followed by the terminator.
	WriteLine(line string) error
}

// Compile-time interface satisfaction checks.
var (
	_ Commander      = (*Conn)(nil)
	_ LineReadWriter = (*Framer)(nil)
)
