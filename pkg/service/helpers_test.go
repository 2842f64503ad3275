package service

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xena-tools/xenamanager-go/internal/simulator"
	"github.com/xena-tools/xenamanager-go/pkg/log"
)

const testOwner = "alice"

// recordingLogger collects protocol log events.
type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingLogger) stateChanges(entity log.StateEntity) []log.StateChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []log.StateChangeEvent
	for _, e := range r.events {
		if e.StateChange != nil && e.StateChange.Entity == entity {
			out = append(out, *e.StateChange)
		}
	}
	return out
}

func testConfig() SessionConfig {
	cfg := DefaultSessionConfig(testOwner)
	cfg.PollInterval = 5 * time.Millisecond
	cfg.TrafficTimeout = 2 * time.Second
	cfg.DisableKeepAlive = true
	cfg.Client.ReplyTimeout = 2 * time.Second
	cfg.Client.ConnectTimeout = 2 * time.Second
	return cfg
}

// defaultLayout is module 0 with two ports, an empty slot 1 and a CFP
// module 2 with four ports.
func defaultLayout() simulator.Config {
	return simulator.Config{
		Modules: []simulator.ModuleConfig{
			{Ports: 2},
			{},
			{Ports: 4, CFPType: "CFP4"},
		},
	}
}

func startSimulator(t *testing.T, cfg simulator.Config) (*simulator.Chassis, int) {
	t.Helper()
	sim := simulator.New(cfg)
	addr, err := sim.Start()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sim.Close() })

	_, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return sim, port
}

// connectSession starts a simulator and a session connected to it as
// chassis "127.0.0.1".
func connectSession(t *testing.T, cfg SessionConfig, layout simulator.Config) (*Session, *Chassis, *simulator.Chassis) {
	t.Helper()
	sim, port := startSimulator(t, layout)

	s := NewSession(cfg)
	c, err := s.AddChassis(context.Background(), "127.0.0.1", port, simulator.DefaultPassword)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Disconnect(context.Background()) })
	return s, c, sim
}
