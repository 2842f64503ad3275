package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Keep-alive constants.
const (
	// DefaultKeepAliveInterval is the default interval between probes.
	DefaultKeepAliveInterval = 10 * time.Second

	// DefaultProbeTimeout is the default timeout for a single probe.
	DefaultProbeTimeout = 5 * time.Second

	// DefaultMaxMissedProbes is the default number of consecutive failed
	// probes before the connection is considered dead.
	DefaultMaxMissedProbes = 3
)

// KeepAliveConfig configures keep-alive behavior.
type KeepAliveConfig struct {
	// Interval is the interval between probes.
	Interval time.Duration

	// ProbeTimeout bounds a single probe exchange.
	ProbeTimeout time.Duration

	// MaxMissed is the number of consecutive failed probes before timeout.
	MaxMissed int
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		Interval:     DefaultKeepAliveInterval,
		ProbeTimeout: DefaultProbeTimeout,
		MaxMissed:    DefaultMaxMissedProbes,
	}
}

// DetectionDelay calculates the maximum delay before a dead connection is
// reported.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	return (c.Interval + c.ProbeTimeout) * time.Duration(c.MaxMissed)
}

// ProbeFunc sends one keep-alive probe and waits for its reply.
type ProbeFunc func(ctx context.Context, seq uint32) error

// KeepAlive periodically probes a connection so the chassis does not expire
// the session.
type KeepAlive struct {
	config KeepAliveConfig

	probe     ProbeFunc
	onTimeout func()

	sequence  atomic.Uint32
	missed    int
	lastProbe time.Time
	lastReply time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewKeepAlive creates a new keep-alive manager.
func NewKeepAlive(config KeepAliveConfig, probe ProbeFunc, onTimeout func()) *KeepAlive {
	if config.Interval == 0 {
		config.Interval = DefaultKeepAliveInterval
	}
	if config.ProbeTimeout == 0 {
		config.ProbeTimeout = DefaultProbeTimeout
	}
	if config.MaxMissed == 0 {
		config.MaxMissed = DefaultMaxMissedProbes
	}

	return &KeepAlive{
		config:    config,
		probe:     probe,
		onTimeout: onTimeout,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the keep-alive loop.
func (ka *KeepAlive) Start(ctx context.Context) {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	if ka.running {
		return
	}
	ka.running = true
	ka.stopCh = make(chan struct{})

	ka.wg.Add(1)
	go ka.loop(ctx, ka.stopCh)
}

// Stop stops the keep-alive loop and waits for an in-flight probe.
func (ka *KeepAlive) Stop() {
	ka.mu.Lock()
	if !ka.running {
		ka.mu.Unlock()
		return
	}
	ka.running = false
	close(ka.stopCh)
	ka.mu.Unlock()

	ka.wg.Wait()
}

// IsRunning returns true if the keep-alive loop is active.
func (ka *KeepAlive) IsRunning() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.running
}

// Stats returns current keep-alive statistics.
func (ka *KeepAlive) Stats() KeepAliveStats {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return KeepAliveStats{
		LastProbeTime: ka.lastProbe,
		LastReplyTime: ka.lastReply,
		MissedProbes:  ka.missed,
		CurrentSeq:    ka.sequence.Load(),
	}
}

// KeepAliveStats contains keep-alive statistics.
type KeepAliveStats struct {
	LastProbeTime time.Time
	LastReplyTime time.Time
	MissedProbes  int
	CurrentSeq    uint32
}

func (ka *KeepAlive) loop(ctx context.Context, stopCh chan struct{}) {
	defer ka.wg.Done()

	ticker := time.NewTicker(ka.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ka.markStopped(stopCh)
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if dead := ka.sendProbe(ctx); dead {
				ka.markStopped(stopCh)
				select {
				case <-stopCh:
				default:
					if ka.onTimeout != nil {
						ka.onTimeout()
					}
				}
				return
			}
		}
	}
}

// sendProbe runs one probe and reports whether the miss limit was reached.
func (ka *KeepAlive) sendProbe(ctx context.Context) bool {
	seq := ka.sequence.Add(1)

	ka.mu.Lock()
	ka.lastProbe = time.Now()
	ka.mu.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, ka.config.ProbeTimeout)
	err := ka.probe(probeCtx, seq)
	cancel()

	ka.mu.Lock()
	defer ka.mu.Unlock()

	if err != nil {
		ka.missed++
		return ka.missed >= ka.config.MaxMissed
	}
	ka.missed = 0
	ka.lastReply = time.Now()
	return false
}

// markStopped clears the running flag when the loop ends on its own.
func (ka *KeepAlive) markStopped(stopCh chan struct{}) {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	if ka.running && ka.stopCh == stopCh {
		ka.running = false
	}
}
