package vesync

import (
	"context"
	"math/rand"
	"sync"
)

// SimClient is an in-memory Client for local development.
//
// It carries a small fleet of virtual devices covering every supported
// family so the full bridge pipeline (classification, reconciliation,
// sync, eventing) can run without vendor credentials. Virtual devices
// accept commands, mutate their own state, and jitter their sensor
// readings a little between fetches.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type SimClient struct {
	mu      sync.Mutex
	devices []Device
}

// NewSimClient creates a simulated client with the default virtual fleet.
func NewSimClient() *SimClient {
	return &SimClient{devices: []Device{
		newSimDevice(Info{CID: "sim-purifier-1", Name: "Living Room Purifier", TypeString: "Core300S", Online: true},
			map[string]any{FieldMode: "manual", FieldSpeed: 2.0, FieldAirQuality: 8.0, FieldFilterLife: 87.0}),
		newSimDevice(Info{CID: "sim-purifier-2", Name: "Bedroom Purifier", TypeString: "LV-PUR131S", Online: true},
			map[string]any{FieldMode: "auto", FieldLevel: 1.0, FieldAirQuality: 21.0,
				FieldFilterLife: map[string]any{FieldFilterPercent: 42.0}}),
		newSimDevice(Info{CID: "sim-humidifier-1", Name: "Office Humidifier", TypeString: "Classic300S", Online: true},
			map[string]any{FieldMode: "manual", FieldMistLevel: 2.0}),
		newSimDevice(Info{CID: "sim-bulb-1", Name: "Desk Lamp", TypeString: "ESL100", Online: true},
			map[string]any{FieldBrightness: 60.0}),
		newSimDevice(Info{CID: "sim-outlet-1", Name: "Heater Plug", TypeString: "ESW15-USA", Online: true},
			map[string]any{}),
		newSimDevice(Info{CID: "sim-outlet-2", SubDeviceNo: 1, Name: "Strip Socket 1", TypeString: "ESO15-TB", Online: true},
			map[string]any{}),
		newSimDevice(Info{CID: "sim-outlet-2", SubDeviceNo: 2, Name: "Strip Socket 2", TypeString: "ESO15-TB", Online: true},
			map[string]any{}),
		newSimDevice(Info{CID: "sim-switch-1", Name: "Hall Switch", TypeString: "ESWL01", Online: true},
			map[string]any{}),
	}}
}

// Login always succeeds; there is no remote account.
func (c *SimClient) Login(_ context.Context) (bool, error) {
	return true, nil
}

// FetchInventory always succeeds; the virtual fleet is fixed.
func (c *SimClient) FetchInventory(_ context.Context) (bool, error) {
	return true, nil
}

// Devices returns the virtual fleet.
func (c *SimClient) Devices() []Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Device, len(c.devices))
	copy(out, c.devices)
	return out
}

// simDevice is a virtual device with in-memory state.
type simDevice struct {
	info Info

	mu     sync.Mutex
	status string
	raw    map[string]any
}

func newSimDevice(info Info, raw map[string]any) *simDevice {
	return &simDevice{
		info:   info,
		status: StatusOn,
		raw:    raw,
	}
}

func (d *simDevice) Info() Info { return d.info }

// GetDetails returns the current snapshot. Air-quality readings drift
// by a small random amount so downstream consumers see changing data.
func (d *simDevice) GetDetails(_ context.Context) (Details, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if v, ok := d.raw[FieldAirQuality].(float64); ok {
		v += float64(rand.Intn(5)) - 2
		if v < 0 {
			v = 0
		}
		d.raw[FieldAirQuality] = v
	}

	raw := make(map[string]any, len(d.raw))
	for k, v := range d.raw {
		raw[k] = v
	}
	return Details{Status: d.status, Online: d.info.Online, Raw: raw}, nil
}

func (d *simDevice) TurnOn(_ context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = StatusOn
	return true, nil
}

func (d *simDevice) TurnOff(_ context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = StatusOff
	return true, nil
}

func (d *simDevice) ChangeSpeed(_ context.Context, level int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status != StatusOn {
		return false, nil
	}
	// Write back whichever key this model reports its speed under.
	for _, key := range []string{FieldLevel, FieldMistLevel} {
		if _, ok := d.raw[key]; ok {
			d.raw[key] = float64(level)
			return true, nil
		}
	}
	d.raw[FieldSpeed] = float64(level)
	return true, nil
}

func (d *simDevice) SetMode(_ context.Context, mode string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.raw[FieldMode] = mode
	return true, nil
}
