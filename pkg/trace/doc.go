// Package trace provides structured protocol capture for device links.
//
// This package defines the Logger interface and Event types for
// recording link-level traffic: framed system channel packets, raw
// user channel bytes, connection state changes, and errors. It is
// separate from operational logging (slog). A capture is a complete
// machine-readable record of everything that crossed a connection,
// suitable for replay and offline analysis.
//
// # Basic Usage
//
// Transports accept a Logger at open time:
//
//	// For development: mirror events to the console via slog
//	opts.Trace = trace.NewSlogAdapter(slog.Default())
//
//	// For capture: write to a binary file
//	opts.Trace, _ = trace.NewFileLogger("session.vtrace")
//
//	// Both at once
//	opts.Trace = trace.NewMultiLogger(
//	    trace.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events carry one payload each:
//   - Packet: a framed system channel packet (PacketEvent)
//   - User: raw user channel bytes (UserIOEvent)
//   - State: a connection or pairing state change (StateChangeEvent)
//   - Error: a failure at any point (ErrorEventData)
//
// # File Format
//
// Capture files are a CBOR event stream with .vtrace extension. The
// v5ctl trace command provides viewing and filtering.
package trace
