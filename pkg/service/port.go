package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xena-tools/xenamanager-go/pkg/log"
	"github.com/xena-tools/xenamanager-go/pkg/model"
	"github.com/xena-tools/xenamanager-go/pkg/wire"
)

// Port is a test port.
type Port struct {
	chassis *Chassis
	node    *model.Node
	index   int

	mu          sync.Mutex
	reservation model.ReservationState
	traffic     model.TrafficState
	info        map[string]string
	streams     []int
}

// Node returns the port node.
func (p *Port) Node() *model.Node {
	return p.node
}

// Name returns "<chassis>/<module>/<port>".
func (p *Port) Name() string {
	return p.node.Name()
}

// Address returns the chassis-relative address "<module>/<port>".
func (p *Port) Address() string {
	return p.node.Address()
}

// Index returns the port index within its module.
func (p *Port) Index() int {
	return p.index
}

// Chassis returns the owning chassis.
func (p *Port) Chassis() *Chassis {
	return p.chassis
}

// ReservationState returns the last known reservation state.
func (p *Port) ReservationState() model.ReservationState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reservation
}

// TrafficState returns the last known traffic state.
func (p *Port) TrafficState() model.TrafficState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.traffic
}

// Info returns the p_info attributes read by the last Inventory.
func (p *Port) Info() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.info))
	for k, v := range p.info {
		out[k] = v
	}
	return out
}

// Streams returns the stream indices reported after the last LoadConfig.
func (p *Port) Streams() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.streams...)
}

// Inventory reads the port information.
func (p *Port) Inventory(ctx context.Context) error {
	info, err := p.node.GetAttributes(ctx, "p_info")
	if err != nil {
		return fmt.Errorf("port %s inventory: %w", p.Name(), err)
	}
	p.mu.Lock()
	p.info = info
	p.mu.Unlock()
	return nil
}

// Reserve reserves the port for the session owner. A port already reserved
// by the owner is left as is. A port held by another owner fails with a
// *ReservationError unless force is set, in which case the reservation is
// relinquished first.
func (p *Port) Reserve(ctx context.Context, force bool) error {
	state, err := p.queryReservation(ctx)
	if err != nil {
		return err
	}

	switch state {
	case model.ReservationReservedByYou:
		return nil
	case model.ReservationReservedByOther:
		if !force {
			holder, _ := p.node.GetAttribute(ctx, "p_reservedby")
			return &model.ReservationError{Port: p.Name(), Holder: wire.Unquote(holder)}
		}
		if err := p.Relinquish(ctx); err != nil {
			return err
		}
	}

	if err := p.node.SendCommand(ctx, "p_reservation", "reserve"); err != nil {
		return fmt.Errorf("reserve %s: %w", p.Name(), err)
	}
	p.setReservation(model.ReservationReservedByYou, "reserve")
	return nil
}

// Relinquish takes the port away from its current owner, if any.
func (p *Port) Relinquish(ctx context.Context) error {
	state, err := p.queryReservation(ctx)
	if err != nil {
		return err
	}
	if state == model.ReservationReleased {
		return nil
	}
	if err := p.node.SendCommand(ctx, "p_reservation", "relinquish"); err != nil {
		return fmt.Errorf("relinquish %s: %w", p.Name(), err)
	}
	p.setReservation(model.ReservationReleased, "relinquish")
	return nil
}

// Release releases the port.
func (p *Port) Release(ctx context.Context) error {
	if err := p.node.SendCommand(ctx, "p_reservation", "release"); err != nil {
		return fmt.Errorf("release %s: %w", p.Name(), err)
	}
	p.setReservation(model.ReservationReleased, "release")
	return nil
}

// Reset restores the port factory defaults.
func (p *Port) Reset(ctx context.Context) error {
	if err := p.node.SendCommand(ctx, "p_reset"); err != nil {
		return fmt.Errorf("reset %s: %w", p.Name(), err)
	}
	p.setTraffic(model.TrafficOff, "reset")
	p.mu.Lock()
	p.streams = nil
	p.mu.Unlock()
	return nil
}

// WaitForStates polls attribute until its value is one of expected and
// returns that value. A zero timeout waits until the context ends.
func (p *Port) WaitForStates(ctx context.Context, attribute string, timeout time.Duration, expected ...string) (string, error) {
	query := func(ctx context.Context) (string, error) {
		v, err := p.node.GetAttribute(ctx, attribute)
		if err != nil {
			return "", err
		}
		p.observe(attribute, v)
		return v, nil
	}

	value, err := p.chassis.session.poller(timeout).WaitFor(ctx, query, expected...)
	if err != nil {
		return value, fmt.Errorf("port %s %s: %w", p.Name(), attribute, err)
	}
	return value, nil
}

// WaitForUp waits for the receiver to report sync. A zero timeout selects
// DefaultLinkTimeout.
func (p *Port) WaitForUp(ctx context.Context, timeout time.Duration) error {
	if timeout == 0 {
		timeout = DefaultLinkTimeout
	}
	_, err := p.WaitForStates(ctx, "p_receivesync", timeout, "IN_SYNC")
	return err
}

// LoadConfig sends every command of a port configuration file and returns
// the stream indices defined afterwards. Blank lines and lines starting
// with ';' are skipped.
func (p *Port) LoadConfig(ctx context.Context, r io.Reader) ([]int, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if err := p.node.SendCommand(ctx, line); err != nil {
			return nil, fmt.Errorf("load config %s: %w", p.Name(), err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", p.Name(), err)
	}

	v, err := p.node.GetAttribute(ctx, "ps_indices")
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", p.Name(), err)
	}
	var streams []int
	for _, f := range strings.Fields(v) {
		idx, err := strconv.Atoi(strings.Trim(f, "[]"))
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w: stream index %q", p.Name(), model.ErrProtocol, f)
		}
		streams = append(streams, idx)
	}

	p.mu.Lock()
	p.streams = streams
	p.mu.Unlock()
	return append([]int(nil), streams...), nil
}

// ClearStats clears the tx and rx counters.
func (p *Port) ClearStats(ctx context.Context) error {
	if err := p.node.SendCommand(ctx, "pt_clear"); err != nil {
		return fmt.Errorf("clear stats %s: %w", p.Name(), err)
	}
	if err := p.node.SendCommand(ctx, "pr_clear"); err != nil {
		return fmt.Errorf("clear stats %s: %w", p.Name(), err)
	}
	return nil
}

func (p *Port) queryReservation(ctx context.Context) (model.ReservationState, error) {
	v, err := p.node.GetAttribute(ctx, "p_reservation")
	if err != nil {
		return model.ReservationUnknown, fmt.Errorf("port %s reservation: %w", p.Name(), err)
	}
	p.observe("p_reservation", v)
	return model.ParseReservationState(v), nil
}

// observe updates the cached state from a queried attribute value.
func (p *Port) observe(attribute, value string) {
	switch strings.ToLower(attribute) {
	case "p_reservation":
		p.setReservation(model.ParseReservationState(value), "query")
	case "p_traffic":
		p.setTraffic(model.ParseTrafficState(value), "query")
	}
}

func (p *Port) setReservation(state model.ReservationState, reason string) {
	p.mu.Lock()
	old := p.reservation
	p.reservation = state
	p.mu.Unlock()
	if old != state {
		p.logState(log.StateEntityReservation, old.String(), state.String(), reason)
	}
}

func (p *Port) setTraffic(state model.TrafficState, reason string) {
	p.mu.Lock()
	old := p.traffic
	p.traffic = state
	p.mu.Unlock()
	if old != state {
		p.logState(log.StateEntityTraffic, old.String(), state.String(), reason)
	}
}

func (p *Port) logState(entity log.StateEntity, oldState, newState, reason string) {
	c := p.chassis
	c.session.logState(c.connID, c.address, log.StateChangeEvent{
		Entity:   entity,
		Object:   p.Name(),
		OldState: oldState,
		NewState: newState,
		Reason:   reason,
	})
}
