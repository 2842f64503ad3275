// Package poll reconciles asynchronous hardware state by repeatedly querying
// a value until it reaches one of a set of expected values.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultInterval is the sleep between queries when Poller.Interval is zero.
const DefaultInterval = time.Second

// ErrTimeout is returned when the expected state is not reached in time.
var ErrTimeout = errors.New("timed out waiting for state")

// TimeoutError describes a wait that ran out of time.
type TimeoutError struct {
	Expected []string
	Last     string
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s (last value %q)",
		e.Elapsed.Round(time.Millisecond), strings.Join(e.Expected, "|"), e.Last)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// QueryFunc reads the current value of the polled state.
type QueryFunc func(ctx context.Context) (string, error)

// Poller waits for a queried value to become one of the expected values.
// The zero value polls every DefaultInterval without a deadline.
type Poller struct {
	// Interval is the fixed sleep between queries.
	Interval time.Duration

	// Timeout bounds the wait. Zero waits until the context ends.
	Timeout time.Duration

	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger
}

// WaitFor queries until the value matches one of expected (case-insensitive)
// and returns the matching value. The first query is issued immediately.
// Query errors end the wait and are returned as is.
func (p Poller) WaitFor(ctx context.Context, query QueryFunc, expected ...string) (string, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	start := time.Now()
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for attempt := 1; ; attempt++ {
		value, err := query(ctx)
		if err != nil {
			return "", err
		}
		if Matches(value, expected...) {
			p.debugLog("poll: state reached", "value", value, "attempts", attempt)
			return value, nil
		}

		elapsed := time.Since(start)
		if p.Timeout > 0 && elapsed >= p.Timeout {
			return value, &TimeoutError{Expected: expected, Last: value, Elapsed: elapsed}
		}

		wait := interval
		if p.Timeout > 0 && p.Timeout-elapsed < wait {
			wait = p.Timeout - elapsed
		}
		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			return value, ctx.Err()
		case <-timer.C:
		}
	}
}

// Matches reports whether value equals one of expected, ignoring case and
// surrounding whitespace.
func Matches(value string, expected ...string) bool {
	value = strings.TrimSpace(value)
	for _, e := range expected {
		if strings.EqualFold(value, strings.TrimSpace(e)) {
			return true
		}
	}
	return false
}

func (p Poller) debugLog(msg string, args ...any) {
	if p.Logger != nil {
		p.Logger.Debug(msg, args...)
	}
}
