// Package logging provides structured logging for the LumiConnect agent.
//
// It is a thin wrapper over log/slog that applies configuration (level,
// format, destination) and attaches default service/version attributes.
// Structured output is kept on stderr by default: stdout carries the
// fixed-format console protocol consumed by existing log scrapers.
package logging
