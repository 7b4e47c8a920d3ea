package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// stateMeasurement is the measurement name for accessory state samples.
const stateMeasurement = "accessory_state"

// WriteState records one accessory state sample.
//
// Points are buffered and flushed in the background; this method never
// blocks on network IO. Samples written while disconnected are dropped.
//
// Parameters:
//   - id: Accessory UUID, used as the series tag
//   - device: Device name for human-readable queries
//   - family: Accessory family (air_purifier, humidifier, ...)
//   - fields: Characteristic values, numeric slots only
//
// Satisfies the bridge's telemetry sink interface.
func (c *Client) WriteState(id, device, family string, fields map[string]any) {
	if !c.IsConnected() || len(fields) == 0 {
		return
	}

	tags := map[string]string{
		"accessory_uuid": id,
		"device":         device,
		"family":         family,
	}

	c.writeAPI.WritePoint(write.NewPoint(stateMeasurement, tags, fields, time.Now()))
}

// WritePoint writes an arbitrary pre-built point. Intended for callers
// outside the accessory state path, such as bridge uptime markers.
func (c *Client) WritePoint(point *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(point)
}
