package commands

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xena-tools/xenamanager-go/internal/simulator"
	"github.com/xena-tools/xenamanager-go/pkg/config"
	"github.com/xena-tools/xenamanager-go/pkg/model"
	"github.com/xena-tools/xenamanager-go/pkg/statstore"
)

func startLab(t *testing.T) (*simulator.Chassis, *config.Config) {
	t.Helper()
	sim := simulator.New(simulator.Config{
		Name:            "lab",
		Modules:         []simulator.ModuleConfig{{Ports: 2, Model: "M2"}},
		TrafficDuration: 30 * time.Millisecond,
	})
	addr, err := sim.Start()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sim.Close() })

	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	cfg, err := config.Parse([]byte(fmt.Sprintf(`
owner: alice
chassis:
  - address: 127.0.0.1
    port: %s
ports:
  - 127.0.0.1/0/0
  - 127.0.0.1/0/1
poll_interval: 5ms
traffic_timeout: 2s
`, port)))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return sim, cfg
}

func newRunner(t *testing.T, cfg *config.Config) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r := NewRunner(Options{Config: cfg, Out: &out})
	require.NoError(t, r.Connect(context.Background()))
	t.Cleanup(func() { _ = r.Close() })
	return r, &out
}

func TestInventory(t *testing.T) {
	_, cfg := startLab(t)
	r, out := newRunner(t, cfg)

	require.NoError(t, r.Inventory(context.Background()))
	assert.Contains(t, out.String(), "Chassis 127.0.0.1  name=lab")
	assert.Contains(t, out.String(), "  Module 0  model=M2 cfptype=NOTCFP ports=2")
	assert.Contains(t, out.String(), "    Port 127.0.0.1/0/1  speed=10000 sync=IN_SYNC")
}

func TestReserveSurvivesClose(t *testing.T) {
	sim, cfg := startLab(t)
	ctx := context.Background()

	first, out := newRunner(t, cfg)
	require.NoError(t, first.Reserve(ctx))
	assert.Contains(t, out.String(), "127.0.0.1/0/0 RESERVED_BY_YOU")
	require.NoError(t, first.Close())

	st, _ := sim.Port("0/1")
	assert.Equal(t, "alice", st.Owner)

	second, out := newRunner(t, cfg)
	require.NoError(t, second.Release(ctx))
	assert.Contains(t, out.String(), "127.0.0.1/0/1 RELEASED")
	st, _ = sim.Port("0/1")
	assert.Empty(t, st.Owner)
}

func TestStartStopAcrossInvocations(t *testing.T) {
	sim, cfg := startLab(t)
	sim.SetTrafficDuration(0)
	ctx := context.Background()

	r, out := newRunner(t, cfg)
	require.NoError(t, r.Reserve(ctx))
	require.NoError(t, r.Start(ctx, false))
	assert.Contains(t, out.String(), "Traffic started")
	st, _ := sim.Port("0/0")
	assert.True(t, st.TrafficOn)

	require.NoError(t, r.Stop(ctx))
	st, _ = sim.Port("0/0")
	assert.False(t, st.TrafficOn)
}

func TestRunRecordsStats(t *testing.T) {
	sim, cfg := startLab(t)
	ctx := context.Background()
	db := filepath.Join(t.TempDir(), "stats.db")

	r, out := newRunner(t, cfg)
	require.NoError(t, r.Run(ctx, db, "smoke"))

	assert.Contains(t, out.String(), "Traffic completed after")
	assert.Contains(t, out.String(), "pt_total_packets")
	assert.Contains(t, out.String(), "Recorded run ")

	for _, p := range r.Session().Ports() {
		assert.Equal(t, model.ReservationReleased, p.ReservationState())
	}
	st, _ := sim.Port("0/0")
	assert.Empty(t, st.Owner)
	assert.Equal(t, 1, len(sim.CommandsWith("c_traffic")))

	store, err := statstore.Open(db)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "smoke", runs[0].Label)
	assert.Equal(t, "alice", runs[0].Owner)

	samples, err := store.Samples(ctx, runs[0].ID)
	require.NoError(t, err)
	var packets int64
	for _, s := range samples {
		if s.Stat == "pt_total_packets" {
			packets += s.Value
		}
	}
	assert.Equal(t, int64(2000), packets)
}

func TestRunInterruptedReleasesPorts(t *testing.T) {
	sim, cfg := startLab(t)
	sim.SetTrafficDuration(0)
	r, out := newRunner(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := r.Run(ctx, "", "")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, out.String(), "Traffic completed after")

	for _, addr := range []string{"0/0", "0/1"} {
		st, _ := sim.Port(addr)
		assert.Empty(t, st.Owner, addr)
		assert.False(t, st.TrafficOn, addr)
	}
	for _, p := range r.Session().Ports() {
		assert.Equal(t, model.ReservationReleased, p.ReservationState())
	}
}

func TestClear(t *testing.T) {
	sim, cfg := startLab(t)
	ctx := context.Background()

	r, _ := newRunner(t, cfg)
	require.NoError(t, r.Reserve(ctx))
	require.NoError(t, r.Start(ctx, true))
	st, _ := sim.Port("0/0")
	require.Equal(t, int64(1000), st.TxPackets)

	require.NoError(t, r.Clear(ctx))
	st, _ = sim.Port("0/0")
	assert.Zero(t, st.TxPackets)
}

func TestStatsWithoutDatabase(t *testing.T) {
	_, cfg := startLab(t)
	r, out := newRunner(t, cfg)

	require.NoError(t, r.Stats(context.Background(), "", ""))
	assert.Contains(t, out.String(), "127.0.0.1/0/0")
	assert.NotContains(t, out.String(), "Recorded run")
}

func TestCommandsNeedPorts(t *testing.T) {
	_, cfg := startLab(t)
	cfg.Ports = nil
	r, _ := newRunner(t, cfg)
	ctx := context.Background()

	assert.ErrorIs(t, r.Reserve(ctx), ErrNoPorts)
	assert.ErrorIs(t, r.Release(ctx), ErrNoPorts)
	assert.ErrorIs(t, r.Start(ctx, false), ErrNoPorts)
	assert.ErrorIs(t, r.Stats(ctx, "", ""), ErrNoPorts)
}

func TestConnectBadPassword(t *testing.T) {
	_, cfg := startLab(t)
	cfg.Chassis[0].Password = "wrong"

	r := NewRunner(Options{Config: cfg})
	assert.Error(t, r.Connect(context.Background()))
}
