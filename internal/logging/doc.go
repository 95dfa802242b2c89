// Package logging builds the slog loggers used across the daemon and CLI,
// with a compact console format and a JSON format for log shippers.
package logging
