// Package logging builds the slog loggers used across flowboard and defines
// the standardized structured field keys for workflow events. Two output
// formats exist: a compact console handler for interactive use and standard
// JSON for log files.
package logging
