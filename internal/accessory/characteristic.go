package accessory

import (
	"context"
	"sync"
)

// Type identifies a characteristic slot.
type Type string

// Characteristic types the bridge exposes.
const (
	TypeOn            Type = "on"
	TypeRotationSpeed Type = "rotation_speed"
	TypeBrightness    Type = "brightness"
	TypeAirQuality    Type = "air_quality"
	TypePM25Density   Type = "pm2_5_density"
	TypeFilterChange  Type = "filter_change_indication"
	TypeFilterLife    Type = "filter_life_level"
	TypeOutletInUse   Type = "outlet_in_use"
)

// SetFunc handles an inbound write to a characteristic. The handler
// runs before the cached value changes; a returned error leaves the
// cached value untouched.
type SetFunc func(ctx context.Context, value any) error

// Characteristic is one read/write value slot on an accessory.
//
// Reads come from the cached value, which the synchronizer refreshes
// from device state. Writes go through the set handler, which is the
// device command path.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Characteristic struct {
	typ Type

	mu    sync.RWMutex
	value any
	onSet SetFunc
}

func newCharacteristic(t Type) *Characteristic {
	return &Characteristic{typ: t}
}

// Type returns the characteristic's type.
func (c *Characteristic) Type() Type { return c.typ }

// Value returns the cached value, nil before the first update.
func (c *Characteristic) Value() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Update replaces the cached value from the state-refresh path and
// reports whether it changed. Comparison is by interface equality, so
// callers feed comparable scalars (bool, int, float64, string).
func (c *Characteristic) Update(v any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == v {
		return false
	}
	c.value = v
	return true
}

// OnSet installs the write handler. A nil handler makes the
// characteristic read-only.
func (c *Characteristic) OnSet(fn SetFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSet = fn
}

// Set runs the write handler and, on success, caches the value.
// Returns ErrNoHandler when no handler is installed.
//
// The handler runs outside the characteristic lock so it can perform
// slow device commands without blocking concurrent reads.
func (c *Characteristic) Set(ctx context.Context, v any) error {
	c.mu.RLock()
	fn := c.onSet
	c.mu.RUnlock()

	if fn == nil {
		return ErrNoHandler
	}
	if err := fn(ctx, v); err != nil {
		return err
	}

	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
	return nil
}
