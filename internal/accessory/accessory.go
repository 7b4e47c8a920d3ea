package accessory

import "sync"

// Info is the static identification block for an accessory.
type Info struct {
	Name             string
	Manufacturer     string
	Model            string
	SerialNumber     string
	FirmwareRevision string
}

// Accessory is one bridged endpoint: a stable identity, static info,
// and the characteristic slots its device family supports.
//
// Thread Safety:
//   - All methods are safe for concurrent use. The characteristic set
//     is append-only; slots are never removed from a live accessory.
type Accessory struct {
	id   string
	info Info

	mu    sync.RWMutex
	chars map[Type]*Characteristic
	order []Type
}

// New creates an accessory with no characteristics.
//
// Parameters:
//   - id: Stable identity string (see NewID), unique within a registry
//   - info: Static identification block
func New(id string, info Info) *Accessory {
	return &Accessory{
		id:    id,
		info:  info,
		chars: make(map[Type]*Characteristic),
	}
}

// ID returns the accessory's stable identity.
func (a *Accessory) ID() string { return a.id }

// Info returns the static identification block.
func (a *Accessory) Info() Info { return a.info }

// Rename updates the display name, keeping identity stable.
func (a *Accessory) Rename(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.info.Name = name
}

// Name returns the current display name.
func (a *Accessory) Name() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.info.Name
}

// Ensure returns the characteristic slot of the given type, creating
// it on first use.
func (a *Accessory) Ensure(t Type) *Characteristic {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.chars[t]; ok {
		return c
	}
	c := newCharacteristic(t)
	a.chars[t] = c
	a.order = append(a.order, t)
	return c
}

// Characteristic returns the slot of the given type, if present.
func (a *Accessory) Characteristic(t Type) (*Characteristic, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.chars[t]
	return c, ok
}

// Characteristics returns the slots in creation order.
func (a *Accessory) Characteristics() []*Characteristic {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Characteristic, 0, len(a.order))
	for _, t := range a.order {
		out = append(out, a.chars[t])
	}
	return out
}

// Snapshot returns the current cached value of every slot, keyed by
// characteristic type. Slots that have never been updated carry nil.
func (a *Accessory) Snapshot() map[Type]any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[Type]any, len(a.chars))
	for t, c := range a.chars {
		out[t] = c.Value()
	}
	return out
}
