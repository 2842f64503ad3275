// Package simulator provides an in-process chassis that speaks the command
// line protocol over TCP. Tests use it to drive the transport and the
// resource tree end to end without hardware.
//
// The simulator keeps per-port reservation, traffic and counter state and
// records every command line it receives:
//
//	sim := simulator.New(simulator.Config{
//	    Modules: []simulator.ModuleConfig{{Ports: 2}, {}, {Ports: 4, CFPType: "CFP4"}},
//	})
//	addr, err := sim.Start()
//	defer sim.Close()
package simulator
