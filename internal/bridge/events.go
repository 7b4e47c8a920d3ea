package bridge

import (
	"context"

	"github.com/ashvale/vesync-bridge/internal/accessory"
	"github.com/ashvale/vesync-bridge/internal/vesync"
)

// MessageSink publishes accessory state payloads to the message bus.
type MessageSink interface {
	PublishState(id string, payload map[string]any) error
}

// TelemetrySink records numeric accessory state for history queries.
// Implementations buffer and write asynchronously.
type TelemetrySink interface {
	WriteState(id, device, family string, fields map[string]any)
}

// Events fans applied sync snapshots out to the message bus and the
// telemetry store. Either sink may be nil; eventing is an observer of
// sync, never a participant, so sink errors are logged and dropped.
type Events struct {
	messages  MessageSink
	telemetry TelemetrySink
	logger    Logger
}

// NewEvents creates the event fan-out.
func NewEvents(messages MessageSink, telemetry TelemetrySink, logger Logger) *Events {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Events{messages: messages, telemetry: telemetry, logger: logger}
}

// PublishState implements Publisher.
func (e *Events) PublishState(_ context.Context, b *Binding, details vesync.Details) {
	info := b.Device().Info()
	payload := statePayload(b, info, details)

	if e.messages != nil {
		if err := e.messages.PublishState(b.UUID, payload); err != nil {
			e.logger.Warn("publishing state event failed",
				"uuid", b.UUID,
				"device", info.Name,
				"error", err,
			)
		}
	}

	if e.telemetry != nil {
		fields := telemetryFields(b)
		if len(fields) > 0 {
			e.telemetry.WriteState(b.UUID, info.Name, string(b.Descriptor.Family), fields)
		}
	}
}

// statePayload builds the full state document for the message bus.
func statePayload(b *Binding, info vesync.Info, details vesync.Details) map[string]any {
	payload := map[string]any{
		"uuid":   b.UUID,
		"device": info.Name,
		"model":  info.TypeString,
		"family": string(b.Descriptor.Family),
		"online": details.Online,
		"status": details.Status,
	}
	for t, v := range b.Accessory.Snapshot() {
		if v != nil {
			payload[string(t)] = v
		}
	}
	return payload
}

// telemetryFields extracts the numeric slots worth graphing.
func telemetryFields(b *Binding) map[string]any {
	fields := make(map[string]any)
	snap := b.Accessory.Snapshot()

	if v, ok := snap[accessory.TypeOn].(bool); ok {
		on := 0
		if v {
			on = 1
		}
		fields["on"] = on
	}
	for _, t := range []accessory.Type{
		accessory.TypeRotationSpeed,
		accessory.TypeAirQuality,
		accessory.TypePM25Density,
		accessory.TypeFilterLife,
		accessory.TypeBrightness,
	} {
		if v := snap[t]; v != nil {
			switch v.(type) {
			case int, float64:
				fields[string(t)] = v
			}
		}
	}
	return fields
}
