// Package logging constructs the process logger and provides slog attribute
// helpers used across subsystems.
package logging
