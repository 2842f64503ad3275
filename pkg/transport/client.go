package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/xena-tools/xenamanager-go/pkg/log"
)

// DefaultPort is the chassis scripting port.
const DefaultPort = 22611

// Client errors.
var (
	// ErrDialFailed indicates the chassis could not be reached.
	ErrDialFailed = errors.New("dial failed")
)

// ClientConfig configures a chassis client.
type ClientConfig struct {
	// ConnectTimeout bounds a single dial attempt (default: 10s).
	ConnectTimeout time.Duration

	// ConnectRetries is the number of additional dial attempts after the
	// first one fails (default: 0).
	ConnectRetries int

	// Backoff configures the delay between dial attempts.
	Backoff BackoffConfig

	// ReplyTimeout bounds the wait for a reply line (default: 10s).
	ReplyTimeout time.Duration

	// MaxLineSize is the maximum line size (default: 64KB).
	MaxLineSize int

	// ProtocolLogger receives line and command events. Nil disables it.
	ProtocolLogger log.Logger

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Client dials chassis connections.
type Client struct {
	config ClientConfig
	dial   func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewClient creates a new chassis client.
func NewClient(config ClientConfig) *Client {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.ReplyTimeout == 0 {
		config.ReplyTimeout = 10 * time.Second
	}
	if config.MaxLineSize == 0 {
		config.MaxLineSize = DefaultMaxLineSize
	}

	dialer := &net.Dialer{}
	return &Client{
		config: config,
		dial:   dialer.DialContext,
	}
}

// JoinHostPort formats a chassis endpoint; port 0 selects DefaultPort.
func JoinHostPort(host string, port int) string {
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Connect establishes a connection to the chassis at address (host:port).
// Failed dials are retried ConnectRetries times with exponential backoff.
func (c *Client) Connect(ctx context.Context, address string) (*Conn, error) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDialFailed, err)
	}

	backoff := NewBackoff(c.config.Backoff)
	var lastErr error
	for attempt := 0; attempt <= c.config.ConnectRetries; attempt++ {
		if attempt > 0 {
			delay := backoff.Next()
			c.debugLog("Connect: retrying", "address", address, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		netConn, err := c.dialOnce(ctx, address)
		if err == nil {
			return c.newConn(netConn, host), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %s: %w", ErrDialFailed, address, lastErr)
}

func (c *Client) dialOnce(ctx context.Context, address string) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()
	return c.dial(dialCtx, "tcp", address)
}

func (c *Client) newConn(netConn net.Conn, chassis string) *Conn {
	conn := &Conn{
		conn:         netConn,
		framer:       NewFramer(netConn, c.config.MaxLineSize),
		id:           uuid.New().String(),
		chassis:      chassis,
		replyTimeout: c.config.ReplyTimeout,
		protoLogger:  c.config.ProtocolLogger,
		logger:       c.config.Logger,
		closeCh:      make(chan struct{}),
	}
	if conn.protoLogger != nil {
		conn.framer.SetLogger(conn.protoLogger, conn.id)
	}
	conn.logState("", "CONNECTED", netConn.RemoteAddr().String())
	c.debugLog("Connect: connected", "address", netConn.RemoteAddr().String(), "connID", conn.id)
	return conn
}

func (c *Client) debugLog(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, args...)
	}
}
