package mqtt

import "fmt"

// TelemetryTopic returns the publish topic for a device's readings.
//
// The wire format is fixed at "<device_id>/<topic_suffix>" for compatibility
// with the dashboards already subscribed to the reference firmware.
//
// Example: lumiconnect-001/luminosidade
func TelemetryTopic(deviceID, suffix string) string {
	return fmt.Sprintf("%s/%s", deviceID, suffix)
}
