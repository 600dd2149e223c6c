// Package logging assembles structured slog loggers and formatting helpers used
// across reelcache.
//
// It owns the console and JSON handlers, mirrors output into a rotating log
// file, and exposes context-aware helpers so resolver code can tag log lines
// with correlation ids and content kinds. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
