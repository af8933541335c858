package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading mirrors one illuminance reading into the configured bucket.
//
// The write is non-blocking; points are batched and sent asynchronously, so
// a slow or unreachable InfluxDB never stalls the telemetry cycle. Readings
// are silently dropped while disconnected - the broker publish is the
// authoritative path, the mirror is best-effort.
//
// Parameters:
//   - deviceID: Device identifier (tag)
//   - lux: Illuminance value (field "value")
//   - ts: Measurement timestamp
func (c *Client) WriteReading(deviceID string, lux float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		c.cfg.Measurement,
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"value": lux,
		},
		ts,
	)

	c.writeAPI.WritePoint(point)
}
