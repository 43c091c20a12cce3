// Package logging assembles structured slog loggers used across dropzone.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so the ingestion pipeline can
// tag every log line of a drop with its correlation ID. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
