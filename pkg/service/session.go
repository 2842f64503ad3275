package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xena-tools/xenamanager-go/pkg/log"
	"github.com/xena-tools/xenamanager-go/pkg/model"
	"github.com/xena-tools/xenamanager-go/pkg/poll"
	"github.com/xena-tools/xenamanager-go/pkg/transport"
)

// Session is the root of the resource tree and the entry point for all
// chassis operations.
type Session struct {
	config    SessionConfig
	connector Connector
	node      *model.Node

	protoLogger log.Logger
	logger      *slog.Logger
}

// NewSession creates a session. Invalid configurations are reported by
// SessionConfig.Validate; NewSession applies defaults only.
func NewSession(config SessionConfig) *Session {
	config.applyDefaults()

	s := &Session{
		config:      config,
		connector:   config.Connector,
		protoLogger: config.ProtocolLogger,
		logger:      config.Logger,
	}
	if s.connector == nil {
		s.connector = ClientConnector{Client: transport.NewClient(config.Client)}
	}
	s.node = model.NewRoot("", s)
	return s
}

// Node returns the root node of the resource tree.
func (s *Session) Node() *model.Node {
	return s.node
}

// Owner returns the reservation owner.
func (s *Session) Owner() string {
	return s.config.Owner
}

// AddChassis connects and logs on to a chassis. If a chassis with the same
// address is already part of the session, it is returned unchanged.
// Port 0 selects the default command port.
func (s *Session) AddChassis(ctx context.Context, address string, port int, password string) (*Chassis, error) {
	if c, ok := s.Chassis()[address]; ok {
		s.debugLog("AddChassis: already connected", "chassis", address)
		return c, nil
	}

	conn, err := s.connector.Connect(ctx, transport.JoinHostPort(address, port))
	if err != nil {
		return nil, fmt.Errorf("add chassis %s: %w", address, err)
	}

	c, err := s.attachChassis(address, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.startKeepAlive()

	if err := c.Logon(ctx, password, s.config.Owner); err != nil {
		_ = c.Disconnect()
		c.node.Remove()
		return nil, fmt.Errorf("add chassis %s: %w", address, err)
	}

	s.debugLog("AddChassis: logged on", "chassis", address, "owner", s.config.Owner)
	return c, nil
}

// attachChassis adds a chassis node that sends through conn.
func (s *Session) attachChassis(address string, conn transport.Commander) (*Chassis, error) {
	c := &Chassis{
		session: s,
		address: address,
		conn:    conn,
		logger:  s.logger,
	}
	if id, ok := conn.(identified); ok {
		c.connID = id.ID()
	}

	node, err := s.node.AddChild(model.KindChassis, "", address, c)
	if err != nil {
		return nil, err
	}
	c.node = node
	node.SetCommander(conn)
	return c, nil
}

// Chassis returns the connected chassis keyed by address.
func (s *Session) Chassis() map[string]*Chassis {
	out := make(map[string]*Chassis)
	for _, o := range s.node.ObjectsByType(model.KindChassis) {
		c := o.(*Chassis)
		out[c.address] = c
	}
	return out
}

// Ports returns every port in the session keyed by name.
func (s *Session) Ports() map[string]*Port {
	out := make(map[string]*Port)
	for _, p := range s.portList() {
		out[p.Name()] = p
	}
	return out
}

// portList returns all session ports in tree order.
func (s *Session) portList() []*Port {
	objects := s.node.ObjectsByType(model.KindPort)
	out := make([]*Port, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.(*Port))
	}
	return out
}

// chassisList returns all chassis in tree order.
func (s *Session) chassisList() []*Chassis {
	objects := s.node.ObjectsByType(model.KindChassis)
	out := make([]*Chassis, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.(*Chassis))
	}
	return out
}

// Inventory reads the module and port layout of every chassis.
func (s *Session) Inventory(ctx context.Context) error {
	for _, c := range s.chassisList() {
		if err := c.Inventory(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ReservePorts reserves and resets the ports at the given locations
// ("<chassis>/<module>/<port>") and returns all session ports. Every
// location is validated before any port is touched.
func (s *Session) ReservePorts(ctx context.Context, locations []string, force bool) (map[string]*Port, error) {
	targets, err := s.resolve(locations)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		if _, err := t.chassis.ReservePorts(ctx, []string{t.address}, force); err != nil {
			return nil, err
		}
	}
	return s.Ports(), nil
}

// AttachPorts adds the ports at the given locations to the session without
// reserving them and reads their reservation state. Ports reserved by this
// owner in an earlier session become ReservedByYou and can be released or
// driven again.
func (s *Session) AttachPorts(ctx context.Context, locations []string) (map[string]*Port, error) {
	targets, err := s.resolve(locations)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		if _, err := t.chassis.AttachPorts(ctx, []string{t.address}); err != nil {
			return nil, err
		}
	}
	return s.Ports(), nil
}

type portTarget struct {
	chassis *Chassis
	address string
}

func (s *Session) resolve(locations []string) ([]portTarget, error) {
	chassis := s.Chassis()
	targets := make([]portTarget, 0, len(locations))
	for _, l := range locations {
		loc, err := model.ParseLocation(l)
		if err != nil {
			return nil, err
		}
		c, ok := chassis[loc.Chassis]
		if !ok {
			return nil, fmt.Errorf("%w: chassis %s", model.ErrNotFound, loc.Chassis)
		}
		targets = append(targets, portTarget{chassis: c, address: loc.Address()})
	}
	return targets, nil
}

// ReleasePorts releases every port reserved by this session. A failing
// chassis does not stop the release on the others.
func (s *Session) ReleasePorts(ctx context.Context) error {
	var errs []error
	for _, c := range s.chassisList() {
		if err := c.ReleasePorts(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClearStats clears the counters of the given ports, or of all session
// ports when none are given.
func (s *Session) ClearStats(ctx context.Context, ports ...*Port) error {
	for _, part := range s.partition(ports) {
		if err := part.chassis.ClearStats(ctx, part.ports...); err != nil {
			return err
		}
	}
	return nil
}

// StartTraffic starts traffic on the given ports, or on all session ports
// when none are given. Every chassis is started before any wait, so the
// chassis run concurrently. With blocking set it then waits until every
// port has stopped transmitting.
func (s *Session) StartTraffic(ctx context.Context, blocking bool, ports ...*Port) error {
	parts := s.partition(ports)
	for _, part := range parts {
		if err := part.chassis.StartTraffic(ctx, false, part.ports...); err != nil {
			return err
		}
	}
	if !blocking {
		return nil
	}
	for _, part := range parts {
		if err := part.chassis.WaitTraffic(ctx, part.ports...); err != nil {
			return err
		}
	}
	return nil
}

// StopTraffic stops traffic on the given ports, or on all session ports
// when none are given, and waits for every port to report traffic off.
func (s *Session) StopTraffic(ctx context.Context, ports ...*Port) error {
	for _, part := range s.partition(ports) {
		if err := part.chassis.StopTraffic(ctx, part.ports...); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect releases the session's ports and closes every chassis
// connection. It continues past failures and returns the joined errors.
func (s *Session) Disconnect(ctx context.Context) error {
	return errors.Join(s.ReleasePorts(ctx), s.Close())
}

// Close closes every chassis connection and leaves the reservations in
// place. A later session with the same owner can attach to them. The
// chassis are removed from the session, so AddChassis connects afresh.
func (s *Session) Close() error {
	var errs []error
	for _, c := range s.chassisList() {
		errs = append(errs, c.Disconnect())
		c.node.Remove()
	}
	return errors.Join(errs...)
}

type chassisPorts struct {
	chassis *Chassis
	ports   []*Port
}

// partition groups ports by owning chassis, in order of first appearance.
// No ports selects every session port.
func (s *Session) partition(ports []*Port) []chassisPorts {
	if len(ports) == 0 {
		ports = s.portList()
	}
	var parts []chassisPorts
	index := make(map[*Chassis]int)
	for _, p := range ports {
		i, ok := index[p.chassis]
		if !ok {
			i = len(parts)
			index[p.chassis] = i
			parts = append(parts, chassisPorts{chassis: p.chassis})
		}
		parts[i].ports = append(parts[i].ports, p)
	}
	return parts
}

func (s *Session) poller(timeout time.Duration) poll.Poller {
	return poll.Poller{
		Interval: s.config.PollInterval,
		Timeout:  timeout,
		Logger:   s.logger,
	}
}

// logState records a state change in the protocol log.
func (s *Session) logState(connID, chassis string, change log.StateChangeEvent) {
	s.protoLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerService,
		Category:     log.CategoryState,
		Chassis:      chassis,
		Owner:        s.config.Owner,
		StateChange:  &change,
	})
}

// logError records a failed operation in the protocol log.
func (s *Session) logError(connID, chassis, operation string, err error) {
	s.protoLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerService,
		Category:     log.CategoryError,
		Chassis:      chassis,
		Owner:        s.config.Owner,
		Error: &log.ErrorEventData{
			Layer:   log.LayerService,
			Message: err.Error(),
			Context: operation,
		},
	})
}

func (s *Session) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
