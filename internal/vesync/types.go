package vesync

import "context"

// Device power status strings as reported by the cloud.
const (
	StatusOn  = "on"
	StatusOff = "off"
)

// Well-known Raw field keys. Not every model reports every key, and
// some models report the same quantity under different keys.
const (
	// FieldSpeed is the discrete motor speed level (newer models).
	FieldSpeed = "speed"

	// FieldLevel is the discrete motor speed level (older models).
	FieldLevel = "level"

	// FieldMode is the device mode string ("manual", "auto", "sleep").
	FieldMode = "mode"

	// FieldFilterLife is the filter life payload: a bare number on some
	// models, an object with a "percent" key on others.
	FieldFilterLife = "filter_life"

	// FieldFilterPercent is the key inside an object-shaped filter payload.
	FieldFilterPercent = "percent"

	// FieldAirQuality is the PM2.5 density in µg/m³ on models that
	// report raw density.
	FieldAirQuality = "air_quality_value"

	// FieldPM25 is an alternative PM2.5 density key.
	FieldPM25 = "pm25"

	// FieldBrightness is the bulb/dimmer brightness percentage.
	FieldBrightness = "brightness"

	// FieldMistLevel is the humidifier mist level (discrete).
	FieldMistLevel = "mist_level"
)

// Info identifies a device within the account inventory.
// A multi-outlet unit appears once per sub-device, distinguished by
// SubDeviceNo.
type Info struct {
	// CID is the vendor's stable device identifier.
	CID string

	// SubDeviceNo distinguishes sub-components of a multi-outlet unit.
	// Zero for ordinary devices.
	SubDeviceNo int

	// Name is the user-assigned device name.
	Name string

	// TypeString is the vendor model identifier (e.g. "Core300S",
	// "LV-PUR131S", "ESO15-TB").
	TypeString string

	// Online reports whether the cloud currently sees the device.
	Online bool
}

// Details is a point-in-time snapshot of a device's reported state.
type Details struct {
	// Status is the power state, StatusOn or StatusOff.
	Status string

	// Online reports whether the device was reachable for this snapshot.
	Online bool

	// Raw holds the per-model detail fields. Read-only to the bridge;
	// only classify/convert interpret its contents.
	Raw map[string]any
}

// Device is the opaque async device object exposed by the vendor client.
//
// All methods may block on the network and may return vendor-classified
// errors; a (false, nil) return is a soft failure. Implementations own
// their own timeouts; the bridge only passes ctx through.
type Device interface {
	// Info returns the inventory identity of this device.
	Info() Info

	// GetDetails fetches the latest detail snapshot from the cloud.
	GetDetails(ctx context.Context) (Details, error)

	// TurnOn powers the device on.
	TurnOn(ctx context.Context) (bool, error)

	// TurnOff powers the device off.
	TurnOff(ctx context.Context) (bool, error)

	// ChangeSpeed sets the discrete motor speed level (1-based).
	// The device must be powered on first; several families reject
	// speed commands while off.
	ChangeSpeed(ctx context.Context, level int) (bool, error)

	// SetMode sets the device mode (e.g. "manual", "auto", "sleep").
	SetMode(ctx context.Context, mode string) (bool, error)
}

// Client is the vendor cloud client collaborator.
type Client interface {
	// Login authenticates the account session.
	Login(ctx context.Context) (bool, error)

	// FetchInventory refreshes the in-memory device list.
	// A false return means the fetch completed but the cloud refused
	// it; the previous device list is retained either way.
	FetchInventory(ctx context.Context) (bool, error)

	// Devices returns the device list from the last successful fetch.
	Devices() []Device
}
