package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/xena-tools/xenamanager-go/pkg/wire"
)

// SendCommand sends "<address> <mnemonic> <args...>" and expects the
// chassis to acknowledge it. Arguments are sent as given.
func (n *Node) SendCommand(ctx context.Context, mnemonic string, args ...string) error {
	line := wire.NewCommand(n.address, mnemonic, args...).String()
	reply, err := n.exchange(ctx, line)
	if err != nil {
		return err
	}

	s, ok := wire.ParseStatus(reply)
	if !ok {
		return &ProtocolError{Command: line, Reply: reply}
	}
	if s != wire.StatusOK {
		return &ProtocolError{Command: line, Reply: reply, Err: wire.CheckStatus(reply)}
	}
	return nil
}

// SendQuery sends "<address> <mnemonic> ?" and returns the raw reply line.
func (n *Node) SendQuery(ctx context.Context, mnemonic string) (string, error) {
	line := wire.NewQuery(n.address, mnemonic).String()
	reply, err := n.exchange(ctx, line)
	if err != nil {
		return "", err
	}
	if err := wire.CheckStatus(reply); err != nil {
		return "", &ProtocolError{Command: line, Reply: reply, Err: err}
	}
	return reply, nil
}

// GetAttribute queries a single parameter and returns its value.
func (n *Node) GetAttribute(ctx context.Context, name string) (string, error) {
	line := wire.NewQuery(n.address, name).String()
	reply, err := n.exchange(ctx, line)
	if err != nil {
		return "", err
	}
	value, err := wire.ParseScalar(reply, name)
	if err != nil {
		return "", &ProtocolError{Command: line, Reply: reply, Err: err}
	}
	return value, nil
}

// GetAttributes issues a multi-parameter query such as "c_info" and returns
// the values keyed by lower-cased parameter name without the query's
// family prefix: "C_PORTCOUNTS 4 0 2" is returned under "portcounts".
func (n *Node) GetAttributes(ctx context.Context, query string) (map[string]string, error) {
	line := wire.NewQuery(n.address, query).String()
	cmd, err := n.Commander()
	if err != nil {
		return nil, err
	}
	replies, err := cmd.ExchangeMulti(ctx, line)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", line, err)
	}
	attrs, err := wire.ParseAttributes(replies, query)
	if err != nil {
		return nil, &ProtocolError{Command: line, Reply: strings.Join(replies, "\n"), Err: err}
	}
	return attrs, nil
}

func (n *Node) exchange(ctx context.Context, line string) (string, error) {
	cmd, err := n.Commander()
	if err != nil {
		return "", err
	}
	reply, err := cmd.Exchange(ctx, line)
	if err != nil {
		return "", fmt.Errorf("%s: %w", line, err)
	}
	return reply, nil
}
