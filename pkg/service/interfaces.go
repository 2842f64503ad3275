package service

import (
	"context"

	"github.com/xena-tools/xenamanager-go/pkg/transport"
)

// Connector opens chassis connections.
// Implemented by *transport.Client through ClientConnector.
type Connector interface {
	Connect(ctx context.Context, address string) (transport.Commander, error)
}

// prober is implemented by connections that support keep-alive probes.
type prober interface {
	Probe(ctx context.Context, seq uint32) error
}

// identified is implemented by connections with a log identity.
type identified interface {
	ID() string
}

// ClientConnector adapts a transport.Client to Connector.
type ClientConnector struct {
	Client *transport.Client
}

// Connect dials the chassis.
func (c ClientConnector) Connect(ctx context.Context, address string) (transport.Commander, error) {
	conn, err := c.Client.Connect(ctx, address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Compile-time interface satisfaction checks.
var (
	_ Connector  = ClientConnector{}
	_ prober     = (*transport.Conn)(nil)
	_ identified = (*transport.Conn)(nil)
)
