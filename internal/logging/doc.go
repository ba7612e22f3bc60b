// Package logging assembles the structured slog loggers used across flashy
// services.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers plus standard field keys so the
// scanner, supervisor, and IPC layers emit log lines with a consistent shape.
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
