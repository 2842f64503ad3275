package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/xena-tools/xenamanager-go/pkg/log"
	"github.com/xena-tools/xenamanager-go/pkg/model"
	"github.com/xena-tools/xenamanager-go/pkg/transport"
	"github.com/xena-tools/xenamanager-go/pkg/wire"
)

// Chassis is one connected chassis.
type Chassis struct {
	session *Session
	node    *model.Node
	address string
	conn    transport.Commander
	connID  string

	mu        sync.Mutex
	info      map[string]string
	keepAlive *transport.KeepAlive
	kaCancel  context.CancelFunc

	logger *slog.Logger
}

// Node returns the chassis node.
func (c *Chassis) Node() *model.Node {
	return c.node
}

// Name returns the chassis name (its address).
func (c *Chassis) Name() string {
	return c.address
}

// Session returns the owning session.
func (c *Chassis) Session() *Session {
	return c.session
}

// Info returns the c_info attributes read by the last Inventory.
func (c *Chassis) Info() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.info))
	for k, v := range c.info {
		out[k] = v
	}
	return out
}

// Logon authenticates the connection and announces the reservation owner.
func (c *Chassis) Logon(ctx context.Context, password, owner string) error {
	if err := c.node.SendCommand(ctx, "c_logon", wire.Quote(password)); err != nil {
		return fmt.Errorf("logon: %w", err)
	}
	if err := c.node.SendCommand(ctx, "c_owner", wire.Quote(owner)); err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	c.session.logState(c.connID, c.address, log.StateChangeEvent{
		Entity:   log.StateEntitySession,
		NewState: "LOGGED_ON",
		Reason:   owner,
	})
	return nil
}

// Inventory reads the chassis layout and creates one module per populated
// slot, each inventoried in turn.
func (c *Chassis) Inventory(ctx context.Context) error {
	info, err := c.node.GetAttributes(ctx, "c_info")
	if err != nil {
		return fmt.Errorf("chassis %s inventory: %w", c.address, err)
	}
	c.mu.Lock()
	c.info = info
	c.mu.Unlock()

	for index, field := range strings.Fields(info["portcounts"]) {
		count, err := strconv.Atoi(field)
		if err != nil {
			return fmt.Errorf("chassis %s inventory: %w: port count %q", c.address, model.ErrProtocol, field)
		}
		if count == 0 {
			continue
		}
		m, err := c.module(index)
		if err != nil {
			return err
		}
		if err := m.Inventory(ctx); err != nil {
			return err
		}
	}
	c.debugLog("Inventory: done", "chassis", c.address, "modules", len(c.Modules()))
	return nil
}

// ReservePorts reserves and resets the ports at the given chassis-relative
// locations ("<module>/<port>"), creating port objects as needed. It
// returns all ports of the chassis.
func (c *Chassis) ReservePorts(ctx context.Context, locations []string, force bool) (map[string]*Port, error) {
	for _, location := range locations {
		p, err := c.port(location)
		if err != nil {
			return nil, err
		}
		if err := p.Reserve(ctx, force); err != nil {
			return nil, err
		}
		if err := p.Reset(ctx); err != nil {
			return nil, err
		}
	}
	return c.Ports(), nil
}

// AttachPorts creates port objects for the given chassis-relative
// locations and reads their reservation state.
func (c *Chassis) AttachPorts(ctx context.Context, locations []string) (map[string]*Port, error) {
	for _, location := range locations {
		p, err := c.port(location)
		if err != nil {
			return nil, err
		}
		if _, err := p.queryReservation(ctx); err != nil {
			return nil, err
		}
	}
	return c.Ports(), nil
}

// ReleasePorts releases every port of the chassis reserved by this
// session. It continues past failures and returns the joined errors.
func (c *Chassis) ReleasePorts(ctx context.Context) error {
	var errs []error
	for _, p := range c.portList() {
		if p.ReservationState() != model.ReservationReservedByYou {
			continue
		}
		if err := p.Release(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StartTraffic starts traffic on the given ports, or all chassis ports,
// with a single command. With blocking set it waits until every port has
// stopped transmitting.
func (c *Chassis) StartTraffic(ctx context.Context, blocking bool, ports ...*Port) error {
	ports = c.operationPorts(ports)
	if err := c.trafficCommand(ctx, model.TrafficOn, ports); err != nil {
		return err
	}
	if blocking {
		return c.WaitTraffic(ctx, ports...)
	}
	return nil
}

// StopTraffic stops traffic on the given ports, or all chassis ports, and
// waits up to the traffic timeout for each port to report traffic off.
func (c *Chassis) StopTraffic(ctx context.Context, ports ...*Port) error {
	ports = c.operationPorts(ports)
	if err := c.trafficCommand(ctx, model.TrafficOff, ports); err != nil {
		return err
	}
	for _, p := range ports {
		if _, err := p.WaitForStates(ctx, "p_traffic", c.session.config.TrafficTimeout, model.TrafficOff.String()); err != nil {
			return err
		}
	}
	return nil
}

// WaitTraffic waits until every given port, or every chassis port, reports
// traffic off. The wait is bounded by the run timeout, if any.
func (c *Chassis) WaitTraffic(ctx context.Context, ports ...*Port) error {
	for _, p := range c.operationPorts(ports) {
		if _, err := p.WaitForStates(ctx, "p_traffic", c.session.config.RunTimeout, model.TrafficOff.String()); err != nil {
			return err
		}
	}
	return nil
}

// ClearStats clears the tx and rx counters of the given ports, or of all
// chassis ports.
func (c *Chassis) ClearStats(ctx context.Context, ports ...*Port) error {
	for _, p := range c.operationPorts(ports) {
		if err := p.ClearStats(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect stops the keep-alive and closes the connection.
func (c *Chassis) Disconnect() error {
	c.mu.Lock()
	ka, cancel := c.keepAlive, c.kaCancel
	c.keepAlive, c.kaCancel = nil, nil
	c.mu.Unlock()

	if ka != nil {
		ka.Stop()
		cancel()
	}
	err := c.conn.Close()
	c.session.logState(c.connID, c.address, log.StateChangeEvent{
		Entity:   log.StateEntitySession,
		NewState: "DISCONNECTED",
	})
	c.debugLog("Disconnect: closed", "chassis", c.address)
	return err
}

// Modules returns the chassis modules keyed by index.
func (c *Chassis) Modules() map[int]*Module {
	out := make(map[int]*Module)
	for _, o := range c.node.ObjectsByType(model.KindModule) {
		m := o.(*Module)
		out[m.index] = m
	}
	return out
}

// Ports returns the chassis ports keyed by name.
func (c *Chassis) Ports() map[string]*Port {
	out := make(map[string]*Port)
	for _, p := range c.portList() {
		out[p.Name()] = p
	}
	return out
}

func (c *Chassis) portList() []*Port {
	objects := c.node.ObjectsByType(model.KindPort)
	out := make([]*Port, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.(*Port))
	}
	return out
}

func (c *Chassis) operationPorts(ports []*Port) []*Port {
	if len(ports) == 0 {
		return c.portList()
	}
	return ports
}

// trafficCommand sends one c_traffic command covering all ports.
func (c *Chassis) trafficCommand(ctx context.Context, state model.TrafficState, ports []*Port) error {
	if len(ports) == 0 {
		return nil
	}
	addresses := make([]string, 0, len(ports))
	for _, p := range ports {
		addresses = append(addresses, p.Address())
	}
	if err := c.node.SendCommand(ctx, "c_traffic", state.String(), wire.PortList(addresses)); err != nil {
		c.session.logError(c.connID, c.address, "traffic "+state.String(), err)
		return fmt.Errorf("chassis %s traffic %s: %w", c.address, state, err)
	}
	for _, p := range ports {
		p.setTraffic(state, "command")
	}
	return nil
}

// module returns the module at index, creating it if needed.
func (c *Chassis) module(index int) (*Module, error) {
	if m, ok := c.Modules()[index]; ok {
		return m, nil
	}
	m := &Module{chassis: c, index: index}
	address := strconv.Itoa(index)
	node, err := c.node.AddChild(model.KindModule, address, c.address+"/"+address, m)
	if err != nil {
		return nil, err
	}
	m.node = node
	return m, nil
}

// port returns the port at a chassis-relative address, creating it and its
// module if needed.
func (c *Chassis) port(address string) (*Port, error) {
	mi, pi, err := model.ParsePortAddress(address)
	if err != nil {
		return nil, err
	}
	m, err := c.module(mi)
	if err != nil {
		return nil, err
	}
	if p, ok := m.Ports()[pi]; ok {
		return p, nil
	}
	p := &Port{chassis: c, index: pi}
	address = model.PortAddress(mi, pi)
	node, err := m.node.AddChild(model.KindPort, address, c.address+"/"+address, p)
	if err != nil {
		return nil, err
	}
	p.node = node
	return p, nil
}

func (c *Chassis) startKeepAlive() {
	pr, ok := c.conn.(prober)
	if !ok || c.session.config.DisableKeepAlive {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	ka := transport.NewKeepAlive(c.session.config.KeepAlive, pr.Probe, c.keepAliveTimeout)

	c.mu.Lock()
	c.keepAlive, c.kaCancel = ka, cancel
	c.mu.Unlock()

	ka.Start(ctx)
}

func (c *Chassis) keepAliveTimeout() {
	err := errors.New("keep-alive timeout")
	c.session.logError(c.connID, c.address, "keep-alive", err)
	if c.logger != nil {
		c.logger.Warn("chassis keep-alive timeout", "chassis", c.address)
	}
}

func (c *Chassis) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
