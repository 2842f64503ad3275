package stats

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xena-tools/xenamanager-go/internal/simulator"
	"github.com/xena-tools/xenamanager-go/pkg/service"
)

func TestFlatten(t *testing.T) {
	s := Statistics{
		"10.0.0.1/0/0": {
			"pt_total": {"packets": 10, "bytes": 640},
			"pr_extra": {"fcserrors": 1},
		},
		"10.0.0.1/0/1": {
			"pt_total": {"packets": 20},
		},
	}

	flat := Flatten(s)
	assert.Equal(t, FlatStats{
		"10.0.0.1/0/0": {"pt_total_packets": 10, "pt_total_bytes": 640, "pr_extra_fcserrors": 1},
		"10.0.0.1/0/1": {"pt_total_packets": 20},
	}, flat)
	assert.Equal(t, []string{"10.0.0.1/0/0", "10.0.0.1/0/1"}, flat.Rows())
	assert.Equal(t, []string{"pr_extra_fcserrors", "pt_total_bytes", "pt_total_packets"}, flat.Columns())
}

func TestFlattenEmpty(t *testing.T) {
	assert.Empty(t, Flatten(nil))
}

func TestPortsViewRead(t *testing.T) {
	sim := simulator.New(simulator.Config{Modules: []simulator.ModuleConfig{{Ports: 2}}})
	addr, err := sim.Start()
	require.NoError(t, err)
	defer sim.Close()
	_, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)

	cfg := service.DefaultSessionConfig("alice")
	cfg.DisableKeepAlive = true
	cfg.PollInterval = 5 * time.Millisecond
	s := service.NewSession(cfg)
	ctx := context.Background()
	_, err = s.AddChassis(ctx, "127.0.0.1", port, simulator.DefaultPassword)
	require.NoError(t, err)
	defer s.Disconnect(ctx)

	_, err = s.ReservePorts(ctx, []string{"127.0.0.1/0/0", "127.0.0.1/0/1"}, false)
	require.NoError(t, err)
	require.NoError(t, s.StartTraffic(ctx, false))

	view := NewPortsView(s)
	got, err := view.Read(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got["127.0.0.1/0/1"]["pt_total"]["packets"])
	assert.Len(t, got["127.0.0.1/0/0"], len(service.StatsCaptions))

	flat := view.Flat()
	assert.Equal(t, int64(1000), flat["127.0.0.1/0/0"]["pr_total_packets"])
	assert.Equal(t, got, view.Statistics())
}
