// Package influxdb provides the agent's optional reading mirror.
//
// When enabled, every illuminance reading published to the broker is also
// written (batched, asynchronously) to an InfluxDB bucket for local
// dashboards. The mirror is strictly best-effort: it never blocks or fails a
// telemetry cycle, and the agent runs fine with it disabled - which is the
// default.
package influxdb
