// Package mqtt wraps paho.mqtt.golang for the bridge's state eventing.
//
// The bridge publishes a retained state document per accessory and a
// retained bridge status document with a Last Will and Testament, so
// dashboards and automations can distinguish a crashed bridge from a
// quiet one. An optional command subscription lets the message bus
// drive accessory writes over the same topics.
//
// Connection management, reconnection with backoff, and subscription
// restoration are handled internally; callers see Publish, Subscribe,
// and a health check.
package mqtt
