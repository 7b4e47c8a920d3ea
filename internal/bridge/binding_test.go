package bridge

import (
	"testing"

	"github.com/ashvale/vesync-bridge/internal/accessory"
	"github.com/ashvale/vesync-bridge/internal/classify"
)

func newTestBinding(typeString string) *Binding {
	desc := classify.Classify(typeString)
	acc := accessory.New("uuid-test", accessory.Info{Name: "Test"})
	addCharacteristics(acc, desc)
	return NewBinding("uuid-test", desc, acc, newMockDevice("cid-test", "Test", typeString))
}

func TestBinding_SuppressConsumedOnce(t *testing.T) {
	b := newTestBinding("Core300S")

	b.RecordCommand(3, 80)
	if !b.ConsumeSuppress() {
		t.Error("first consume after a command should report suppressed")
	}
	if b.ConsumeSuppress() {
		t.Error("second consume should report clear")
	}
}

func TestBinding_CommandedPercentage(t *testing.T) {
	b := newTestBinding("Core300S")

	if _, ok := b.CommandedPercentage(3); ok {
		t.Error("no command recorded, nothing to prefer")
	}

	b.RecordCommand(3, 80)
	if pct, ok := b.CommandedPercentage(3); !ok || pct != 80 {
		t.Errorf("matching level = (%v, %v), want (80, true)", pct, ok)
	}
	if _, ok := b.CommandedPercentage(2); ok {
		t.Error("non-matching level must not prefer the recorded percentage")
	}

	b.ClearCommand()
	if _, ok := b.CommandedPercentage(3); ok {
		t.Error("cleared command must not be preferred")
	}
}

func TestBinding_FaultedIsTerminal(t *testing.T) {
	b := newTestBinding("Core300S")

	b.fault()
	if !b.Faulted() {
		t.Fatal("binding should be faulted")
	}

	b.setState(StateIdle)
	if b.State() != StateFaulted {
		t.Error("setState must not leave the fault state")
	}
}

func TestSyncState_String(t *testing.T) {
	tests := map[SyncState]string{
		StateIdle:     "idle",
		StateFetching: "fetching",
		StateApplying: "applying",
		StateFaulted:  "faulted",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
