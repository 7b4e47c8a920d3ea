package bridge

import (
	"sync"

	"github.com/ashvale/vesync-bridge/internal/accessory"
	"github.com/ashvale/vesync-bridge/internal/classify"
	"github.com/ashvale/vesync-bridge/internal/vesync"
)

// SyncState is the per-binding sync lifecycle state.
type SyncState int

// Sync lifecycle states. Faulted is terminal: a binding only enters it
// on a non-retryable classification and stays there until the device
// is re-created by reconciliation.
const (
	StateIdle SyncState = iota
	StateFetching
	StateApplying
	StateFaulted
)

// String returns the state name for logging.
func (s SyncState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateApplying:
		return "applying"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Binding joins one vendor device (or sub-device) to its accessory.
//
// All mutable sync state lives here and is owned exclusively by this
// binding's write-path handlers and its own sync step. The mutex makes
// a single binding's command/sync interleaving a critical section; no
// cross-binding locking exists.
type Binding struct {
	// Immutable after creation.
	UUID       string
	Descriptor classify.Descriptor
	Accessory  *accessory.Accessory

	mu     sync.Mutex
	device vesync.Device
	state  SyncState

	// Last commanded speed, kept so a sync that observes the same level
	// reports the exact commanded percentage instead of a re-derived
	// one. hasCommanded distinguishes "level 0" from "nothing recorded".
	lastCommandedLevel int
	lastCommandedPct   float64
	hasCommanded       bool

	// suppressNextSync drops the next detail write-back so a fetch that
	// has not yet observed a just-issued command cannot echo stale
	// state onto the accessory.
	suppressNextSync bool
}

// NewBinding creates a binding in the idle state.
func NewBinding(id string, desc classify.Descriptor, acc *accessory.Accessory, dev vesync.Device) *Binding {
	return &Binding{
		UUID:       id,
		Descriptor: desc,
		Accessory:  acc,
		device:     dev,
	}
}

// Device returns the current vendor device handle.
func (b *Binding) Device() vesync.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device
}

// ReplaceDevice swaps in a fresh device handle after an inventory
// refresh. Identity fields never change for a live binding.
func (b *Binding) ReplaceDevice(dev vesync.Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.device = dev
}

// State returns the current sync state.
func (b *Binding) State() SyncState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Binding) setState(s SyncState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Faulted is terminal.
	if b.state == StateFaulted {
		return
	}
	b.state = s
}

// Faulted reports whether the binding is in the terminal fault state.
func (b *Binding) Faulted() bool {
	return b.State() == StateFaulted
}

// fault moves the binding into the terminal fault state.
func (b *Binding) fault() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateFaulted
}

// RecordCommand stores the just-issued speed command and arms echo
// suppression for the next sync.
func (b *Binding) RecordCommand(level int, pct float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastCommandedLevel = level
	b.lastCommandedPct = pct
	b.hasCommanded = true
	b.suppressNextSync = true
}

// ClearCommand drops the recorded speed command. Called when a command
// fails, when the device turns off, or when the device is observed off.
func (b *Binding) ClearCommand() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastCommandedLevel = 0
	b.lastCommandedPct = 0
	b.hasCommanded = false
}

// CommandedPercentage returns the recorded percentage if the fetched
// level matches the recorded command. A match means the cloud has
// caught up with the command and the exact commanded percentage should
// be reported instead of a re-derived one.
func (b *Binding) CommandedPercentage(fetchedLevel int) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasCommanded || b.lastCommandedLevel != fetchedLevel {
		return 0, false
	}
	return b.lastCommandedPct, true
}

// RecordSuppress arms echo suppression without recording a speed
// command. Used by the power write path.
func (b *Binding) RecordSuppress() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suppressNextSync = true
}

// ConsumeSuppress reports whether the next sync write-back should be
// skipped, clearing the flag either way.
func (b *Binding) ConsumeSuppress() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.suppressNextSync
	b.suppressNextSync = false
	return s
}
