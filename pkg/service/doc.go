// Package service provides the high-level API for driving traffic
// generator chassis.
//
// # Session
//
// A Session is the root of the resource tree. It connects chassis, routes
// port operations to the chassis that owns each port and tears everything
// down on Disconnect:
//
//	s := service.NewSession(service.DefaultSessionConfig("alice"))
//	if _, err := s.AddChassis(ctx, "192.168.1.10", 0, "xena"); err != nil {
//	    return err
//	}
//	defer s.Disconnect(ctx)
//
//	ports, err := s.ReservePorts(ctx, []string{"192.168.1.10/0/0", "192.168.1.10/0/1"}, false)
//	err = s.ClearStats(ctx)
//	err = s.StartTraffic(ctx, true) // run to completion
//
// Close drops the connections but keeps the reservations; a later session
// with the same owner picks the ports up again with AttachPorts.
//
// # Chassis, Module, Port
//
// Chassis owns one transport connection, logs on with the session owner and
// keeps the connection alive. Modules and ports are created on demand by
// Inventory or ReservePorts. Every port operation is sent as a single
// command line through the chassis connection.
//
// # State reconciliation
//
// Traffic and link state change asynchronously on the hardware. Operations
// that must observe a state (stop traffic, run to completion, link up) poll
// the port with a fixed interval until the state is reached or the
// configured timeout elapses.
//
// # Partitioning
//
// Session operations on a set of ports are split per owning chassis and the
// partitions are processed one chassis at a time. Release and Disconnect
// continue past a failing chassis and return the joined errors; all other
// operations stop at the first error.
package service
