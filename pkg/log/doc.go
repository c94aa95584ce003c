// Package log provides structured event capture for the transports and the
// interpreter bridge.
//
// This package defines the Logger interface and Event types for capturing
// events at three layers (transport, bridge, host). It is separate from
// operational logging (slog): event capture is a complete machine-readable
// trace of what went over the network and into the interpreter.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For capture: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/tmp/session.olog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: OSC messages and namespace queries (MessageEvent)
//   - Bridge: callback deliveries into the interpreter (CallbackEvent)
//   - Host: primitive failures and lifecycle (StateChangeEvent, ErrorEventData)
//
// # File Format
//
// Log files use CBOR encoding with .olog extension. The ossia-log CLI tool
// provides viewing and filtering.
package log
