package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/xena-tools/xenamanager-go/pkg/log"
	"github.com/xena-tools/xenamanager-go/pkg/transport"
)

// Service errors.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknownStat   = errors.New("unknown statistics group")
)

// Defaults.
const (
	// DefaultPassword is the factory chassis password.
	DefaultPassword = "xena"

	// DefaultPollInterval is the sleep between state queries.
	DefaultPollInterval = time.Second

	// DefaultTrafficTimeout bounds the wait for traffic to stop.
	DefaultTrafficTimeout = 40 * time.Second

	// DefaultLinkTimeout bounds WaitForUp when no timeout is given.
	DefaultLinkTimeout = 40 * time.Second
)

// SessionConfig configures a Session.
type SessionConfig struct {
	// Owner is the reservation owner announced to every chassis.
	Owner string

	// Client configures the chassis connections.
	Client transport.ClientConfig

	// Connector opens chassis connections. Nil dials with a
	// transport.Client built from Client.
	Connector Connector

	// KeepAlive configures the per-chassis keep-alive.
	KeepAlive transport.KeepAliveConfig

	// DisableKeepAlive turns the keep-alive off.
	DisableKeepAlive bool

	// PollInterval is the sleep between state queries (default: 1s).
	PollInterval time.Duration

	// TrafficTimeout bounds the wait for ports to report traffic off
	// after a stop command (default: 40s).
	TrafficTimeout time.Duration

	// RunTimeout bounds the run-to-completion wait of a blocking start.
	// Zero waits until the context ends.
	RunTimeout time.Duration

	// ProtocolLogger receives state change events. It is also handed to
	// the chassis connections unless Client.ProtocolLogger is set.
	// Nil disables protocol logging.
	ProtocolLogger log.Logger

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig(owner string) SessionConfig {
	return SessionConfig{
		Owner:          owner,
		KeepAlive:      transport.DefaultKeepAliveConfig(),
		PollInterval:   DefaultPollInterval,
		TrafficTimeout: DefaultTrafficTimeout,
	}
}

// Validate checks the configuration.
func (c SessionConfig) Validate() error {
	if c.Owner == "" {
		return errors.Join(ErrInvalidConfig, errors.New("owner is required"))
	}
	if c.PollInterval < 0 || c.TrafficTimeout < 0 || c.RunTimeout < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("durations must not be negative"))
	}
	return nil
}

func (c *SessionConfig) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.TrafficTimeout == 0 {
		c.TrafficTimeout = DefaultTrafficTimeout
	}
	if c.Client.ProtocolLogger == nil {
		c.Client.ProtocolLogger = c.ProtocolLogger
	}
	if c.Client.Logger == nil {
		c.Client.Logger = c.Logger
	}
	if c.ProtocolLogger == nil {
		c.ProtocolLogger = log.NoopLogger{}
	}
}
