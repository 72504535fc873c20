// Package pkglog contains logging helpers used across the application.
//
// It is built around slog and keeps logs consistent by:
//   - Initializing a JSON handler with stable keys ("ts", "severity", "file").
//   - Attaching the correlation ID (request or export run) to each record.
//   - Providing a rotating, append-only audit logger for export events.
package pkglog
