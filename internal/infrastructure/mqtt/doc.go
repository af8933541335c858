// Package mqtt owns the broker session for the LumiConnect agent.
//
// This package manages:
//   - Session lifecycle: StartOrRestart is idempotent and never blocks on
//     the handshake; IsConnected is a non-blocking point-in-time query
//   - Message publishing with QoS and payload validation
//   - Connection-state tracking ({disconnected, connecting, connected}),
//     owned exclusively by the Client
//
// # Retry split
//
// A lost session is recovered two ways, intentionally asymmetric with
// bring-up: the paho library auto-reconnects established sessions, and the
// orchestrator additionally requests StartOrRestart once per cycle, forever.
// A failed *initial* handshake is never retried inside this package - that
// policy belongs to the caller.
//
// # Usage
//
//	client := mqtt.New(cfg.MQTT)
//	client.StartOrRestart()
//
//	if client.IsConnected() {
//	    topic := mqtt.TelemetryTopic("lumiconnect-001", "luminosidade")
//	    client.PublishString(topic, "305.00")
//	}
package mqtt
