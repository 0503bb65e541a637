// Package pkg provides shared utilities for the usbhost dispatch core.
//
// This package contains functionality used across the core packages,
// including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for the transfer, registry, parser, and
//     dispatch error taxonomies
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with per-component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentDispatch, "driver bound", "address", 5)
//
// # Errors
//
// Errors are defined as sentinel values so callers can classify with
// [errors.Is]:
//
//	if errors.Is(err, pkg.ErrDescriptorTruncated) {
//	    // Reject this device's configuration, keep the bus running.
//	}
package pkg
