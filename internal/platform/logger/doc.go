// Package logger configures the process-wide structured JSON logger on top
// of log/slog and carries loggers through request contexts.
package logger
