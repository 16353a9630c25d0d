// Package pkg provides shared utilities for the usbmic capture path.
//
// This package contains common functionality used by the capture core, the
// audio class layer and the simulated hardware:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors and the [Fault] deadline-miss error
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentSession, "recording started", "format", 1)
//
// Nothing on the per-interval feed path logs; only state transitions, control
// changes and faults do.
//
// # Errors
//
// Errors are sentinel values checked with [errors.Is]:
//
//	if errors.Is(err, pkg.ErrDeadlineMissed) {
//	    // fatal: the isochronous cadence was broken
//	}
package pkg
