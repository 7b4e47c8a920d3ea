package mqtt

import (
	"fmt"
	"strings"
)

// topicPrefix is the base for all bridge topics.
// Scheme: vesyncbridge/{category}/{accessory_uuid}[/{characteristic}]
const topicPrefix = "vesyncbridge"

// Topics provides builders for the bridge's MQTT topics. Using these
// helpers keeps topic naming consistent between the publisher, the
// command subscription, and external consumers.
type Topics struct{}

// AccessoryState returns the retained per-accessory state topic.
//
// Example: vesyncbridge/state/1f0d7c2e-...-9a
func (Topics) AccessoryState(id string) string {
	return fmt.Sprintf("%s/state/%s", topicPrefix, id)
}

// AccessoryCommand returns the inbound command topic for one
// characteristic of one accessory.
//
// Example: vesyncbridge/command/1f0d7c2e-...-9a/rotation_speed
func (Topics) AccessoryCommand(id, characteristic string) string {
	return fmt.Sprintf("%s/command/%s/%s", topicPrefix, id, characteristic)
}

// AllCommands returns the wildcard pattern matching every accessory
// command topic.
//
// Pattern: vesyncbridge/command/+/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+/+", topicPrefix)
}

// BridgeStatus returns the retained bridge status topic. This is also
// the Last Will topic, so a crash flips it to offline without the
// bridge's involvement.
//
// Example: vesyncbridge/bridge/status
func (Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/bridge/status", topicPrefix)
}

// ParseCommandTopic splits an accessory command topic into its
// accessory identity and characteristic type.
//
// Returns:
//   - string: Accessory UUID
//   - string: Characteristic type
//   - bool: false if the topic does not match the command scheme
func ParseCommandTopic(topic string) (id, characteristic string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != topicPrefix || parts[1] != "command" {
		return "", "", false
	}
	if parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}
