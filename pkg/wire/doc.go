// Package wire defines the textual command protocol spoken by Xena chassis.
//
// Every exchange is a single line of space separated tokens:
//
//	[<address>] <mnemonic> [args...]
//
// The address selects the target resource relative to the chassis:
//   - empty for chassis parameters (c_*)
//   - "<module>" for module parameters (m_*)
//   - "<module>/<port>" for port parameters (p_*, pt_*, pr_*, ps_*)
//
// String arguments are enclosed in double quotes. Queries end with a "?"
// token.
//
// # Replies
//
// A set command is acknowledged with a status token such as "<OK>". Any
// other status token is a rejection and surfaces as a protocol error.
//
// A query is answered with one value line per parameter:
//
//	0/1  P_RESERVATION  RESERVED_BY_YOU
//
// Multi-parameter queries (c_info, m_info, p_info) return several value
// lines. The transport terminates such replies with a "sync" exchange whose
// reply is "<SYNC>", so the reader knows where the block ends.
package wire
