// Package transport provides the chassis connection used by the resource
// tree.
//
// The transport layer handles:
//   - TCP connection establishment with bounded retry
//   - Line framing (one command per line, CRLF or LF terminated replies)
//   - Serialized request/reply exchanges
//   - Keep-alive probing of idle connections
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   Command lines (pkg/wire)     │
//	├────────────────────────────────┤
//	│   Line framing                 │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// # Exchanges
//
// The chassis answers every line with exactly one reply line, in order.
// A Conn therefore holds a single mutex across write and read so that
// keep-alive probes and application commands never interleave.
//
// Multi-parameter queries are followed by a "sync" command. The reply
// block ends at the "<SYNC>" line.
//
// An exchange that gives up on its reply, through a reply timeout or a
// cancelled context, leaves the connection open. Because replies keep their
// order, the next exchange writes "sync" and skips everything up to the last
// "<SYNC>" it is owed before sending its own line.
//
// # Keep-Alive
//
// The chassis drops sessions that stay silent. KeepAlive sends a "sync"
// probe every interval (default 10 seconds) and reports the connection as
// dead after three consecutive failed probes. Failed probes do not close
// the connection.
package transport
