// Package log provides structured protocol logging for chassis connections.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, wire, service).
// It is separate from operational logging (slog) - protocol capture provides
// a complete machine-readable trace of every command line sent to a chassis
// and every reply read back.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to a binary file, rotated past 64 MB
//	fileLogger, _ := log.NewFileLogger("/var/log/xena/session.xlog", log.WithMaxSize(64<<20))
//	cfg.ProtocolLogger = fileLogger
//
//	// Both: Tee skips nil loggers
//	cfg.ProtocolLogger = log.Tee(fileLogger, log.NewSlogAdapter(slog.Default()))
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: Raw protocol lines (LineEvent)
//   - Wire: Decoded commands and their reply status (CommandEvent)
//   - Service: Reservation and traffic state changes (StateChangeEvent)
//
// Keep-alive exchanges and errors have dedicated event types.
//
// # File Format
//
// Log files are a stream of CBOR records with the .xlog extension. A rotated
// log keeps its previous file under the ".1" suffix; NewRotatedReader reads
// both in order. The xena-log CLI tool provides viewing, filtering by
// command or port, statistics and export.
package log
