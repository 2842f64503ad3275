package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xena-tools/xenamanager-go/pkg/transport"
	"github.com/xena-tools/xenamanager-go/pkg/transport/mocks"
	"github.com/xena-tools/xenamanager-go/pkg/wire"
)

func attachedTree(t *testing.T) (*Node, *mocks.MockCommander) {
	t.Helper()
	root := buildTree(t)
	c, err := root.ObjectByName("10.0.0.1")
	require.NoError(t, err)
	cmd := mocks.NewMockCommander(t)
	c.Node().SetCommander(cmd)
	return root, cmd
}

func node(t *testing.T, root *Node, name string) *Node {
	t.Helper()
	o, err := root.ObjectByName(name)
	require.NoError(t, err)
	return o.Node()
}

func TestSendCommandAddressing(t *testing.T) {
	root, cmd := attachedTree(t)
	ctx := context.Background()

	cmd.EXPECT().Exchange(mock.Anything, `c_owner "alice"`).Return("<OK>", nil).Once()
	cmd.EXPECT().Exchange(mock.Anything, "2 m_comment x").Return("<OK>", nil).Once()
	cmd.EXPECT().Exchange(mock.Anything, "0/1 p_reservation reserve").Return("<OK>", nil).Once()

	require.NoError(t, node(t, root, "10.0.0.1").SendCommand(ctx, "c_owner", wire.Quote("alice")))
	require.NoError(t, node(t, root, "10.0.0.1/2").SendCommand(ctx, "m_comment", "x"))
	require.NoError(t, node(t, root, "10.0.0.1/0/1").SendCommand(ctx, "p_reservation", "reserve"))
}

func TestSendCommandRejected(t *testing.T) {
	root, cmd := attachedTree(t)
	cmd.EXPECT().Exchange(mock.Anything, "0/0 p_speed bogus").Return("<BADVALUE>", nil).Once()

	err := node(t, root, "10.0.0.1/0/0").SendCommand(context.Background(), "p_speed", "bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)

	var statusErr *wire.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, wire.StatusBadValue, statusErr.Status)

	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Equal(t, "0/0 p_speed bogus", protoErr.Command)
}

func TestSendCommandValueReply(t *testing.T) {
	root, cmd := attachedTree(t)
	cmd.EXPECT().Exchange(mock.Anything, "0/0 p_reset").Return("0/0 P_TRAFFIC OFF", nil).Once()

	err := node(t, root, "10.0.0.1/0/0").SendCommand(context.Background(), "p_reset")
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestSendCommandTransportError(t *testing.T) {
	root, cmd := attachedTree(t)
	cmd.EXPECT().Exchange(mock.Anything, "0/0 p_reset").Return("", transport.ErrReplyTimeout).Once()

	err := node(t, root, "10.0.0.1/0/0").SendCommand(context.Background(), "p_reset")
	assert.ErrorIs(t, err, transport.ErrReplyTimeout)
	assert.False(t, errors.Is(err, ErrProtocol))
}

func TestGetAttribute(t *testing.T) {
	root, cmd := attachedTree(t)
	cmd.EXPECT().Exchange(mock.Anything, "0/1 p_reservation ?").
		Return("0/1  P_RESERVATION  RESERVED_BY_YOU", nil).Once()
	cmd.EXPECT().Exchange(mock.Anything, "2 m_portcount ?").Return("<NOTREADABLE>", nil).Once()
	cmd.EXPECT().Exchange(mock.Anything, "0/0 p_traffic ?").Return("0/0 P_SPEED 1000", nil).Once()

	ctx := context.Background()
	v, err := node(t, root, "10.0.0.1/0/1").GetAttribute(ctx, "p_reservation")
	require.NoError(t, err)
	assert.Equal(t, "RESERVED_BY_YOU", v)

	_, err = node(t, root, "10.0.0.1/2").GetAttribute(ctx, "m_portcount")
	assert.ErrorIs(t, err, ErrProtocol)

	_, err = node(t, root, "10.0.0.1/0/0").GetAttribute(ctx, "p_traffic")
	assert.ErrorIs(t, err, ErrProtocol)
	assert.ErrorIs(t, err, wire.ErrMalformedReply)
}

func TestGetAttributes(t *testing.T) {
	root, cmd := attachedTree(t)
	cmd.EXPECT().ExchangeMulti(mock.Anything, "c_info ?").Return([]string{
		`C_NAME "lab chassis"`,
		"C_PORTCOUNTS 2 0 1",
		"C_SERIALNO 1234",
	}, nil).Once()

	attrs, err := node(t, root, "10.0.0.1").GetAttributes(context.Background(), "c_info")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"name":       `"lab chassis"`,
		"portcounts": "2 0 1",
		"serialno":   "1234",
	}, attrs)
}

func TestGetAttributesMalformed(t *testing.T) {
	root, cmd := attachedTree(t)
	cmd.EXPECT().ExchangeMulti(mock.Anything, "0 m_info ?").Return([]string{"<NOTVALID>"}, nil).Once()
	cmd.EXPECT().ExchangeMulti(mock.Anything, "2 m_info ?").Return(nil, nil).Once()

	_, err := node(t, root, "10.0.0.1/0").GetAttributes(context.Background(), "m_info")
	assert.ErrorIs(t, err, ErrProtocol)

	_, err = node(t, root, "10.0.0.1/2").GetAttributes(context.Background(), "m_info")
	assert.ErrorIs(t, err, ErrProtocol)
	assert.ErrorIs(t, err, wire.ErrEmptyReply)
}

func TestSendQuery(t *testing.T) {
	root, cmd := attachedTree(t)
	cmd.EXPECT().Exchange(mock.Anything, "0/0 ps_indices ?").Return("0/0 PS_INDICES 0 1 2", nil).Once()

	reply, err := node(t, root, "10.0.0.1/0/0").SendQuery(context.Background(), "ps_indices")
	require.NoError(t, err)
	assert.Equal(t, "0/0 PS_INDICES 0 1 2", reply)
}
