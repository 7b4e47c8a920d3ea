// Package influxdb provides time-series telemetry for accessory state.
//
// Each successful sync pass writes one point per accessory with the
// characteristic values as fields, tagged by accessory identity, device
// name, and accessory family. Writes are batched and flushed
// asynchronously by the InfluxDB client.
//
// Telemetry is optional. When disabled in config, Connect returns
// ErrDisabled and the caller skips wiring the sink.
package influxdb
