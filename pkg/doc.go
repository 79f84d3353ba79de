// Package pkg provides shared utilities for the softeeprom driver.
//
// This package contains common functionality used by the driver core and
// by every bus transport, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors and the typed [TransportError]
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with driver-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentDriver, "client probed", "addr", "0x50")
//
// # Errors
//
// Driver errors are sentinel values and may be matched through wrapping:
//
//	if errors.Is(err, pkg.ErrNotFound) {
//	    // Instance was detached
//	}
//
// Per-byte bus failures surface as [*TransportError], which carries the
// direction and the absolute offset of the failing byte.
package pkg
