package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/xena-tools/xenamanager-go/pkg/log"
	"github.com/xena-tools/xenamanager-go/pkg/wire"
)

// MaxReplyLines bounds the number of lines accepted in a multi-line reply.
const MaxReplyLines = 4096

// Connection errors.
var (
	// ErrConnectionClosed indicates the connection was closed.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrReplyTimeout indicates the chassis did not answer in time.
	ErrReplyTimeout = errors.New("reply timeout")

	// ErrReplyTooLong indicates a multi-line reply without end marker.
	ErrReplyTooLong = errors.New("reply exceeds maximum line count")
)

// Conn is a connection to one chassis. Exchanges are serialized: a line is
// written and its reply read while holding a single lock.
//
// An exchange abandoned by a reply timeout or a cancelled context leaves
// the connection open. The next exchange first writes a sync command and
// discards lines until every outstanding "<SYNC>" is read, so late replies
// are never taken for the answer to a newer command. Write errors, end of
// stream and oversized lines close the connection.
type Conn struct {
	conn         net.Conn
	framer       *Framer
	id           string
	chassis      string
	replyTimeout time.Duration
	protoLogger  log.Logger
	logger       *slog.Logger

	mu           sync.Mutex
	stale        bool
	pendingSyncs int
	closeOnce    sync.Once
	closeCh   chan struct{}
}

// ID returns the unique connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the chassis network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Done returns a channel that is closed when the connection closes.
func (c *Conn) Done() <-chan struct{} {
	return c.closeCh
}

// Exchange writes one line and returns the single reply line.
func (c *Conn) Exchange(ctx context.Context, line string) (string, error) {
	lines, err := c.exchange(ctx, line, false)
	if err != nil {
		return "", err
	}
	return lines[0], nil
}

// ExchangeMulti writes one line followed by a sync command and returns the
// reply lines preceding "<SYNC>".
func (c *Conn) ExchangeMulti(ctx context.Context, line string) ([]string, error) {
	return c.exchange(ctx, line, true)
}

// Probe sends a sync command and expects "<SYNC>". Used as keep-alive probe.
func (c *Conn) Probe(ctx context.Context, seq uint32) error {
	c.logControl(log.ControlMsgKeepAlive, seq)
	reply, err := c.Exchange(ctx, wire.SyncCommand)
	if err != nil {
		return err
	}
	if s, ok := wire.ParseStatus(reply); !ok || s != wire.StatusSync {
		return fmt.Errorf("unexpected keep-alive reply %q", reply)
	}
	c.logControl(log.ControlMsgKeepAliveReply, seq)
	return nil
}

func (c *Conn) exchange(ctx context.Context, line string, multi bool) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed() {
		return nil, ErrConnectionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.replyTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)

	// Cancellation unblocks the pending read by expiring the deadline.
	cancelled := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
		close(cancelled)
	})
	defer func() {
		if !stop() {
			<-cancelled
		}
		_ = c.conn.SetDeadline(time.Time{})
	}()

	start := time.Now()
	lines, err := c.roundTrip(line, multi)
	if err != nil {
		var netErr net.Error
		var we *writeError
		transient := !errors.As(err, &we) &&
			(errors.Is(err, ErrReplyTooLong) || (errors.As(err, &netErr) && netErr.Timeout()))
		switch {
		case c.isClosed():
			err = ErrConnectionClosed
			transient = false
		case ctx.Err() != nil:
			err = ctx.Err()
		case ctxExpired(ctx):
			err = context.DeadlineExceeded
		case errors.As(err, &netErr) && netErr.Timeout():
			err = fmt.Errorf("%w: %q", ErrReplyTimeout, line)
		}
		c.logError(line, err)
		if transient {
			c.stale = true
			c.debugLog("Conn: exchange abandoned", "connID", c.id, "line", line, "error", err)
			return nil, err
		}
		_ = c.shutdown("exchange failed: " + err.Error())
		return nil, err
	}

	c.logCommand(line, lines, time.Since(start))
	return lines, nil
}

func (c *Conn) roundTrip(line string, multi bool) ([]string, error) {
	if err := c.resync(); err != nil {
		return nil, err
	}
	if err := c.writeLine(line); err != nil {
		return nil, err
	}
	if !multi {
		reply, err := c.readLine()
		if err != nil {
			return nil, err
		}
		return []string{reply}, nil
	}

	if err := c.writeLine(wire.SyncCommand); err != nil {
		return nil, err
	}
	var lines []string
	for {
		reply, err := c.readLine()
		if err != nil {
			return nil, err
		}
		if s, ok := wire.ParseStatus(reply); ok && s == wire.StatusSync {
			return lines, nil
		}
		if len(lines) == MaxReplyLines {
			return nil, ErrReplyTooLong
		}
		lines = append(lines, reply)
	}
}

// resync brings a stale reply stream back in step with the command stream.
func (c *Conn) resync() error {
	if !c.stale {
		return nil
	}
	if err := c.writeLine(wire.SyncCommand); err != nil {
		return err
	}
	for c.pendingSyncs > 0 {
		if _, err := c.readLine(); err != nil {
			return err
		}
	}
	c.stale = false
	c.debugLog("Conn: resynchronized", "connID", c.id)
	return nil
}

type writeError struct{ err error }

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

func (c *Conn) writeLine(line string) error {
	if err := c.framer.WriteLine(line); err != nil {
		return &writeError{err}
	}
	if line == wire.SyncCommand {
		c.pendingSyncs++
	}
	return nil
}

func (c *Conn) readLine() (string, error) {
	line, err := c.framer.ReadLine()
	if err != nil {
		return "", err
	}
	if s, ok := wire.ParseStatus(line); ok && s == wire.StatusSync && c.pendingSyncs > 0 {
		c.pendingSyncs--
	}
	return line, nil
}

// Close closes the connection. A pending exchange fails immediately.
func (c *Conn) Close() error {
	return c.shutdown("closed by client")
}

func (c *Conn) shutdown(reason string) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
		c.logControl(log.ControlMsgClose, 0)
		c.logState("CONNECTED", "CLOSED", reason)
		c.debugLog("Conn: closed", "connID", c.id, "reason", reason)
	})
	return err
}

// ctxExpired reports whether the context deadline has passed, which can
// be observed by the socket before the context itself is marked done.
func ctxExpired(ctx context.Context) bool {
	d, ok := ctx.Deadline()
	return ok && !time.Now().Before(d)
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *Conn) logCommand(line string, replies []string, d time.Duration) {
	if c.protoLogger == nil {
		return
	}
	cmd, err := wire.ParseCommand(line)
	if err != nil {
		return
	}
	ev := &log.CommandEvent{
		Address:    cmd.Address,
		Mnemonic:   cmd.Mnemonic,
		Args:       cmd.Args,
		Query:      cmd.IsQuery(),
		ReplyLines: len(replies),
		Duration:   &d,
	}
	if len(replies) == 1 {
		if _, ok := wire.ParseStatus(replies[0]); ok {
			ev.Status = replies[0]
		}
	}
	c.protoLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Chassis:      c.chassis,
		Command:      ev,
	})
}

func (c *Conn) logControl(t log.ControlMsgType, seq uint32) {
	if c.protoLogger == nil {
		return
	}
	dir := log.DirectionOut
	if t == log.ControlMsgKeepAliveReply {
		dir = log.DirectionIn
	}
	c.protoLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryControl,
		Chassis:      c.chassis,
		ControlMsg:   &log.ControlMsgEvent{Type: t, Sequence: seq},
	})
}

func (c *Conn) logState(oldState, newState, reason string) {
	if c.protoLogger == nil {
		return
	}
	c.protoLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		RemoteAddr:   c.conn.RemoteAddr().String(),
		Chassis:      c.chassis,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (c *Conn) logError(line string, err error) {
	if c.protoLogger == nil {
		return
	}
	c.protoLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Layer:        log.LayerTransport,
		Category:     log.CategoryError,
		Chassis:      c.chassis,
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: err.Error(),
			Context: line,
		},
	})
}

func (c *Conn) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
