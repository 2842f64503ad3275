// Package model implements the chassis resource tree.
//
// # Hierarchy
//
// Hardware is modelled as a four level tree:
//
//	Session
//	└── Chassis (192.168.1.10)
//	    ├── Module (192.168.1.10/0)
//	    │   ├── Port (192.168.1.10/0/0)
//	    │   └── Port (192.168.1.10/0/1)
//	    └── Module (192.168.1.10/2)
//	        └── Port (192.168.1.10/2/0)
//
// Every node except the session root has exactly one parent. Parents own
// their children; a child keeps a back reference used to find the chassis
// connection that carries its commands.
//
// # Addressing
//
// Each node has a protocol address relative to its chassis: empty for the
// chassis itself, "<m>" for a module and "<m>/<p>" for a port. The
// address prefixes every command the node sends. Node names are unique
// per session and are derived from the chassis address and the node
// address: "<chassis>/<m>/<p>".
//
// # Commands
//
// SendCommand, GetAttribute and GetAttributes translate calls into command
// lines and send them through the transport.Commander attached to the
// owning chassis node. Rejections come back as *ProtocolError.
package model
