package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/ashvale/vesync-bridge/internal/vesync"
)

type recordingMessageSink struct {
	ids      []string
	payloads []map[string]any
	err      error
}

func (s *recordingMessageSink) PublishState(id string, payload map[string]any) error {
	s.ids = append(s.ids, id)
	s.payloads = append(s.payloads, payload)
	return s.err
}

type recordingTelemetrySink struct {
	fields []map[string]any
}

func (s *recordingTelemetrySink) WriteState(_, _, _ string, fields map[string]any) {
	s.fields = append(s.fields, fields)
}

func TestEvents_FansOutToBothSinks(t *testing.T) {
	messages := &recordingMessageSink{}
	telemetry := &recordingTelemetrySink{}
	e := NewEvents(messages, telemetry, nil)

	b := newTestBinding("Core300S")
	b.Accessory.Ensure("on").Update(true)
	b.Accessory.Ensure("rotation_speed").Update(float64(80))

	details := vesync.Details{Status: vesync.StatusOn, Online: true}
	e.PublishState(context.Background(), b, details)

	if len(messages.ids) != 1 || messages.ids[0] != b.UUID {
		t.Errorf("message ids = %v, want [%s]", messages.ids, b.UUID)
	}
	payload := messages.payloads[0]
	if payload["family"] != "air_purifier" || payload["on"] != true {
		t.Errorf("payload = %v", payload)
	}

	if len(telemetry.fields) != 1 {
		t.Fatalf("telemetry writes = %d, want 1", len(telemetry.fields))
	}
	fields := telemetry.fields[0]
	if fields["on"] != 1 {
		t.Errorf("telemetry on = %v, want 1", fields["on"])
	}
	if fields["rotation_speed"] != float64(80) {
		t.Errorf("telemetry rotation_speed = %v, want 80", fields["rotation_speed"])
	}
}

func TestEvents_SinkErrorDoesNotPropagate(t *testing.T) {
	messages := &recordingMessageSink{err: errors.New("broker down")}
	e := NewEvents(messages, nil, nil)

	b := newTestBinding("ESW15-USA")
	// Must not panic or propagate; eventing observes sync, never blocks it.
	e.PublishState(context.Background(), b, vesync.Details{Status: vesync.StatusOff})
}

func TestEvents_NilSinks(t *testing.T) {
	e := NewEvents(nil, nil, nil)
	b := newTestBinding("Core300S")
	e.PublishState(context.Background(), b, vesync.Details{})
}
