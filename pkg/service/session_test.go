package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xena-tools/xenamanager-go/internal/simulator"
	"github.com/xena-tools/xenamanager-go/pkg/log"
	"github.com/xena-tools/xenamanager-go/pkg/model"
)

func TestAddChassisLogsOn(t *testing.T) {
	_, c, sim := connectSession(t, testConfig(), defaultLayout())

	assert.Equal(t, "127.0.0.1", c.Name())
	assert.Equal(t, []string{`c_logon "xena"`, `c_owner "alice"`}, sim.Commands())
}

func TestAddChassisIdempotent(t *testing.T) {
	s, c, sim := connectSession(t, testConfig(), defaultLayout())

	again, err := s.AddChassis(context.Background(), "127.0.0.1", 1, "ignored")
	require.NoError(t, err)
	assert.Same(t, c, again)
	assert.Len(t, s.Chassis(), 1)
	assert.Len(t, sim.CommandsWith("c_logon"), 1)
	assert.Equal(t, 1, sim.ConnectionCount())
}

func TestAddChassisBadPassword(t *testing.T) {
	_, port := startSimulator(t, defaultLayout())
	s := NewSession(testConfig())

	_, err := s.AddChassis(context.Background(), "127.0.0.1", port, "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrProtocol)
	assert.Empty(t, s.Chassis())
}

func TestAddChassisUnreachable(t *testing.T) {
	_, port := startSimulator(t, defaultLayout())
	cfg := testConfig()
	s := NewSession(cfg)

	_, err := s.AddChassis(context.Background(), "127.0.0.1", port+1, simulator.DefaultPassword)
	require.Error(t, err)
	assert.Empty(t, s.Chassis())
}

func TestInventory(t *testing.T) {
	s, c, sim := connectSession(t, testConfig(), defaultLayout())

	require.NoError(t, s.Inventory(context.Background()))

	modules := c.Modules()
	require.Len(t, modules, 2)
	assert.Contains(t, modules, 0)
	assert.Contains(t, modules, 2)
	assert.Len(t, modules[0].Ports(), 2)
	assert.Len(t, modules[2].Ports(), 4)

	ports := s.Ports()
	assert.Len(t, ports, 6)
	assert.Contains(t, ports, "127.0.0.1/2/3")
	assert.Equal(t, "10000", ports["127.0.0.1/0/1"].Info()["speed"])
	assert.Equal(t, "2 0 4", c.Info()["portcounts"])

	assert.Equal(t, []string{"0 m_portcount ?"}, sim.CommandsWith("m_portcount"))
	assert.Equal(t, []string{"2 m_cfpconfig ?"}, sim.CommandsWith("m_cfpconfig"))
}

func TestInventoryIsRepeatable(t *testing.T) {
	s, _, _ := connectSession(t, testConfig(), defaultLayout())
	ctx := context.Background()

	require.NoError(t, s.Inventory(ctx))
	require.NoError(t, s.Inventory(ctx))
	assert.Len(t, s.Ports(), 6)
}

func TestReservePorts(t *testing.T) {
	s, _, sim := connectSession(t, testConfig(), defaultLayout())

	ports, err := s.ReservePorts(context.Background(), []string{"127.0.0.1/0/0", "127.0.0.1/2/1"}, false)
	require.NoError(t, err)
	require.Len(t, ports, 2)

	for _, addr := range []string{"0/0", "2/1"} {
		st, ok := sim.Port(addr)
		require.True(t, ok)
		assert.Equal(t, testOwner, st.Owner, addr)
		assert.Equal(t, 1, st.Resets, addr)
	}
	assert.Equal(t, model.ReservationReservedByYou, ports["127.0.0.1/2/1"].ReservationState())
	assert.Equal(t, []string{"0/0 p_reservation reserve", "2/1 p_reservation reserve"},
		filter(sim.CommandsWith("p_reservation"), "reserve"))
}

func TestReservePortsAlreadyOwned(t *testing.T) {
	s, _, sim := connectSession(t, testConfig(), defaultLayout())
	ctx := context.Background()
	loc := []string{"127.0.0.1/0/0"}

	_, err := s.ReservePorts(ctx, loc, false)
	require.NoError(t, err)
	_, err = s.ReservePorts(ctx, loc, false)
	require.NoError(t, err)

	assert.Len(t, filter(sim.CommandsWith("p_reservation"), "reserve"), 1)
	assert.Len(t, s.Ports(), 1)
}

func TestReservePortsConflict(t *testing.T) {
	s, _, sim := connectSession(t, testConfig(), defaultLayout())
	sim.SetOwner("0/0", "bob")

	_, err := s.ReservePorts(context.Background(), []string{"127.0.0.1/0/0"}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrReservationConflict)

	var resErr *model.ReservationError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "bob", resErr.Holder)
	assert.Equal(t, "127.0.0.1/0/0", resErr.Port)

	st, _ := sim.Port("0/0")
	assert.Equal(t, "bob", st.Owner)
	assert.Empty(t, filter(sim.CommandsWith("p_reservation"), "relinquish"))
}

func TestReservePortsForce(t *testing.T) {
	s, _, sim := connectSession(t, testConfig(), defaultLayout())
	sim.SetOwner("0/0", "bob")

	_, err := s.ReservePorts(context.Background(), []string{"127.0.0.1/0/0"}, true)
	require.NoError(t, err)

	st, _ := sim.Port("0/0")
	assert.Equal(t, testOwner, st.Owner)
	assert.Equal(t, []string{"0/0 p_reservation relinquish"}, filter(sim.CommandsWith("p_reservation"), "relinquish"))
}

func TestReservePortsValidatesFirst(t *testing.T) {
	s, _, sim := connectSession(t, testConfig(), defaultLayout())
	ctx := context.Background()

	_, err := s.ReservePorts(ctx, []string{"127.0.0.1/0/0", "10.9.9.9/0/0"}, false)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.ReservePorts(ctx, []string{"127.0.0.1/0/0", "127.0.0.1/0"}, false)
	assert.ErrorIs(t, err, model.ErrInvalidLocation)

	assert.Empty(t, sim.CommandsWith("p_reservation"))
	assert.Empty(t, s.Ports())
}

func TestReleasePortsOnlyOwn(t *testing.T) {
	s, _, sim := connectSession(t, testConfig(), defaultLayout())
	ctx := context.Background()

	require.NoError(t, s.Inventory(ctx))
	_, err := s.ReservePorts(ctx, []string{"127.0.0.1/0/0", "127.0.0.1/0/1"}, false)
	require.NoError(t, err)
	sim.SetOwner("2/0", "bob")

	require.NoError(t, s.ReleasePorts(ctx))

	assert.Equal(t, []string{"0/0 p_reservation release", "0/1 p_reservation release"},
		filter(sim.CommandsWith("p_reservation"), "release"))
	st, _ := sim.Port("2/0")
	assert.Equal(t, "bob", st.Owner)
	st, _ = sim.Port("0/0")
	assert.Empty(t, st.Owner)
	assert.Equal(t, model.ReservationReleased, s.Ports()["127.0.0.1/0/0"].ReservationState())
}

func TestAttachPorts(t *testing.T) {
	s, _, sim := connectSession(t, testConfig(), defaultLayout())
	ctx := context.Background()
	sim.SetOwner("0/0", testOwner)
	sim.SetOwner("0/1", "bob")

	ports, err := s.AttachPorts(ctx, []string{"127.0.0.1/0/0", "127.0.0.1/0/1", "127.0.0.1/2/3"})
	require.NoError(t, err)
	require.Len(t, ports, 3)
	assert.Equal(t, model.ReservationReservedByYou, ports["127.0.0.1/0/0"].ReservationState())
	assert.Equal(t, model.ReservationReservedByOther, ports["127.0.0.1/0/1"].ReservationState())
	assert.Equal(t, model.ReservationReleased, ports["127.0.0.1/2/3"].ReservationState())
	assert.Empty(t, filter(sim.CommandsWith("p_reservation"), "reserve"))

	require.NoError(t, s.ReleasePorts(ctx))
	assert.Equal(t, []string{"0/0 p_reservation release"}, filter(sim.CommandsWith("p_reservation"), "release"))
}

func TestAttachPortsUnknownChassis(t *testing.T) {
	s, _, _ := connectSession(t, testConfig(), defaultLayout())
	_, err := s.AttachPorts(context.Background(), []string{"10.9.9.9/0/0"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStartTrafficNonBlocking(t *testing.T) {
	s, _, sim := connectSession(t, testConfig(), defaultLayout())
	ctx := context.Background()
	_, err := s.ReservePorts(ctx, []string{"127.0.0.1/0/0", "127.0.0.1/0/1"}, false)
	require.NoError(t, err)
	sim.ResetCommands()

	require.NoError(t, s.StartTraffic(ctx, false))

	assert.Equal(t, []string{"c_traffic on 0 0 0 1"}, sim.Commands())
	for _, addr := range []string{"0/0", "0/1"} {
		st, _ := sim.Port(addr)
		assert.True(t, st.TrafficOn, addr)
	}
	assert.Equal(t, model.TrafficOn, s.Ports()["127.0.0.1/0/0"].TrafficState())
}

func TestStartTrafficBlocking(t *testing.T) {
	layout := defaultLayout()
	layout.TrafficDuration = 100 * time.Millisecond
	s, _, sim := connectSession(t, testConfig(), layout)
	ctx := context.Background()
	_, err := s.ReservePorts(ctx, []string{"127.0.0.1/0/0", "127.0.0.1/2/0"}, false)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, s.StartTraffic(ctx, true))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	for _, addr := range []string{"0/0", "2/0"} {
		st, _ := sim.Port(addr)
		assert.False(t, st.TrafficOn, addr)
	}
	assert.Equal(t, model.TrafficOff, s.Ports()["127.0.0.1/2/0"].TrafficState())
	assert.NotEmpty(t, sim.CommandsWith("p_traffic"))
}

func TestStartTrafficRunTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.RunTimeout = 50 * time.Millisecond
	s, _, _ := connectSession(t, cfg, defaultLayout())
	ctx := context.Background()
	_, err := s.ReservePorts(ctx, []string{"127.0.0.1/0/0"}, false)
	require.NoError(t, err)

	err = s.StartTraffic(ctx, true)
	assert.ErrorIs(t, err, model.ErrTimeout)
}

func TestStartTrafficBlockingCancelled(t *testing.T) {
	s, _, _ := connectSession(t, testConfig(), defaultLayout())
	_, err := s.ReservePorts(context.Background(), []string{"127.0.0.1/0/0"}, false)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = s.StartTraffic(ctx, true)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStopTraffic(t *testing.T) {
	s, _, sim := connectSession(t, testConfig(), defaultLayout())
	ctx := context.Background()
	_, err := s.ReservePorts(ctx, []string{"127.0.0.1/0/0", "127.0.0.1/0/1"}, false)
	require.NoError(t, err)
	require.NoError(t, s.StartTraffic(ctx, false))

	p := s.Ports()["127.0.0.1/0/1"]
	require.NoError(t, s.StopTraffic(ctx, p))

	st, _ := sim.Port("0/1")
	assert.False(t, st.TrafficOn)
	st, _ = sim.Port("0/0")
	assert.True(t, st.TrafficOn)
	assert.Equal(t, []string{"c_traffic on 0 0 0 1", "c_traffic off 0 1"}, sim.CommandsWith("c_traffic"))
	assert.Equal(t, []string{"0/1 p_traffic ?"}, sim.CommandsWith("p_traffic"))
}

func TestTrafficNotReserved(t *testing.T) {
	s, _, sim := connectSession(t, testConfig(), defaultLayout())
	ctx := context.Background()
	_, err := s.ReservePorts(ctx, []string{"127.0.0.1/0/0"}, false)
	require.NoError(t, err)
	sim.SetOwner("0/0", "bob")

	err = s.StartTraffic(ctx, false)
	assert.ErrorIs(t, err, model.ErrProtocol)
}

func TestClearStats(t *testing.T) {
	s, _, sim := connectSession(t, testConfig(), defaultLayout())
	ctx := context.Background()
	_, err := s.ReservePorts(ctx, []string{"127.0.0.1/0/0", "127.0.0.1/0/1"}, false)
	require.NoError(t, err)
	require.NoError(t, s.StartTraffic(ctx, false))
	require.NoError(t, s.StopTraffic(ctx))

	st, _ := sim.Port("0/0")
	require.Equal(t, int64(1000), st.TxPackets)

	require.NoError(t, s.ClearStats(ctx))

	for _, addr := range []string{"0/0", "0/1"} {
		st, _ := sim.Port(addr)
		assert.Zero(t, st.TxPackets, addr)
		assert.Zero(t, st.RxPackets, addr)
	}
	assert.Len(t, sim.CommandsWith("pt_clear"), 2)
	assert.Len(t, sim.CommandsWith("pr_clear"), 2)
}

func TestDisconnectReleasesAndCloses(t *testing.T) {
	sim, port := startSimulator(t, defaultLayout())
	s := NewSession(testConfig())
	ctx := context.Background()

	_, err := s.AddChassis(ctx, "127.0.0.1", port, simulator.DefaultPassword)
	require.NoError(t, err)
	_, err = s.ReservePorts(ctx, []string{"127.0.0.1/0/0"}, false)
	require.NoError(t, err)

	require.NoError(t, s.Disconnect(ctx))

	st, _ := sim.Port("0/0")
	assert.Empty(t, st.Owner)
	assert.Eventually(t, func() bool { return sim.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestAddChassisAfterDisconnect(t *testing.T) {
	sim, port := startSimulator(t, defaultLayout())
	s := NewSession(testConfig())
	ctx := context.Background()

	first, err := s.AddChassis(ctx, "127.0.0.1", port, simulator.DefaultPassword)
	require.NoError(t, err)
	require.NoError(t, s.Disconnect(ctx))
	assert.Empty(t, s.Chassis())

	second, err := s.AddChassis(ctx, "127.0.0.1", port, simulator.DefaultPassword)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Disconnect(ctx) })
	assert.NotSame(t, first, second)
	require.Len(t, s.Chassis(), 1)

	require.NoError(t, s.Inventory(ctx))
	assert.Len(t, second.Modules(), 2)
	assert.Eventually(t, func() bool { return sim.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestCloseKeepsReservations(t *testing.T) {
	sim, port := startSimulator(t, defaultLayout())
	ctx := context.Background()

	first := NewSession(testConfig())
	_, err := first.AddChassis(ctx, "127.0.0.1", port, simulator.DefaultPassword)
	require.NoError(t, err)
	_, err = first.ReservePorts(ctx, []string{"127.0.0.1/0/0"}, false)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	st, _ := sim.Port("0/0")
	assert.Equal(t, testOwner, st.Owner)

	second := NewSession(testConfig())
	_, err = second.AddChassis(ctx, "127.0.0.1", port, simulator.DefaultPassword)
	require.NoError(t, err)
	ports, err := second.AttachPorts(ctx, []string{"127.0.0.1/0/0"})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationReservedByYou, ports["127.0.0.1/0/0"].ReservationState())

	require.NoError(t, second.Disconnect(ctx))
	st, _ = sim.Port("0/0")
	assert.Empty(t, st.Owner)
}

func TestKeepAliveProbes(t *testing.T) {
	cfg := testConfig()
	cfg.DisableKeepAlive = false
	cfg.KeepAlive.Interval = 10 * time.Millisecond
	_, _, sim := connectSession(t, cfg, defaultLayout())

	assert.Eventually(t, func() bool { return len(sim.CommandsWith("sync")) >= 2 },
		2*time.Second, 10*time.Millisecond)
}

func TestStateChangesLogged(t *testing.T) {
	rec := &recordingLogger{}
	cfg := testConfig()
	cfg.ProtocolLogger = rec
	s, _, _ := connectSession(t, cfg, defaultLayout())
	ctx := context.Background()

	_, err := s.ReservePorts(ctx, []string{"127.0.0.1/0/0"}, false)
	require.NoError(t, err)
	require.NoError(t, s.ReleasePorts(ctx))

	var states []string
	for _, ch := range rec.stateChanges(log.StateEntityReservation) {
		assert.Equal(t, "127.0.0.1/0/0", ch.Object)
		states = append(states, ch.NewState)
	}
	assert.Equal(t, []string{"RELEASED", "RESERVED_BY_YOU", "RELEASED"}, states)
	assert.NotEmpty(t, rec.stateChanges(log.StateEntitySession))
}

func TestSessionConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultSessionConfig("alice").Validate())
	assert.ErrorIs(t, DefaultSessionConfig("").Validate(), ErrInvalidConfig)

	cfg := DefaultSessionConfig("alice")
	cfg.RunTimeout = -time.Second
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

// filter returns the lines ending with the given argument.
func filter(lines []string, arg string) []string {
	var out []string
	for _, l := range lines {
		if strings.HasSuffix(l, " "+arg) {
			out = append(out, l)
		}
	}
	return out
}
