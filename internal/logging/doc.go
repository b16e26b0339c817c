// Package logging configures the process-wide slog logger.
//
// Two output formats are supported: a compact console format for interactive
// use and JSON for log collection. Helper constructors attach the standard
// component attribute so every subsystem logs under a stable name.
package logging
