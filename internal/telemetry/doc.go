// Package telemetry contains the agent's steady-state loop.
//
// After bring-up hands over an initialized sensor and a broker session, the
// Orchestrator takes the process over: it waits out a bounded startup grace
// period, then cycles at a fixed cadence, reading one illuminance value and
// publishing it when connected, or warning and requesting a session restart
// when not. Sensor and publish failures are logged and counted but never
// stop the loop; only context cancellation does.
package telemetry
