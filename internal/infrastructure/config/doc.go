// Package config loads and validates the LumiConnect agent configuration.
//
// Configuration is layered: hardcoded defaults (matching the reference
// firmware's timing constants), then a YAML file, then LUMICONNECT_*
// environment variables. The result is validated once at startup and treated
// as immutable for the life of the process.
//
// The timing knobs that drive the bring-up and telemetry loops (association
// timeout, startup grace attempts and spacing, sample interval, console
// attach-poll interval) all live here rather than as magic constants in
// control flow, so the orchestrator and bring-up sequence stay parameterizable
// and unit-testable without real timers.
package config
