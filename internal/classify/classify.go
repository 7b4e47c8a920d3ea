package classify

import (
	"strings"
	"sync"
)

// Family is the device category determining which characteristics and
// conversions apply.
type Family string

// Known device families.
const (
	FamilyAirPurifier Family = "air_purifier"
	FamilyHumidifier  Family = "humidifier"
	FamilyFan         Family = "fan"
	FamilyBulb        Family = "bulb"
	FamilyOutlet      Family = "outlet"
	FamilySwitch      Family = "switch"
)

// FilterLifeFormat describes the shape of a model's filter life payload.
type FilterLifeFormat string

// Known filter life payload shapes.
const (
	// FilterNumber: a bare percentage number (Core series).
	FilterNumber FilterLifeFormat = "number"

	// FilterPercentObject: an object carrying a "percent" field
	// (LV-PUR131S).
	FilterPercentObject FilterLifeFormat = "percent_object"

	// FilterAbsent: the model has no replaceable filter.
	FilterAbsent FilterLifeFormat = "absent"
)

// Descriptor is immutable, derived metadata about a device's feature
// set. Computed once per device type and cached per device id.
//
// Invariant: SpeedLevels >= 1.
type Descriptor struct {
	Family             Family
	SpeedLevels        int
	SupportsAirQuality bool
	SupportsFilterLife bool
	FilterLifeFormat   FilterLifeFormat
}

// HasVariableSpeed reports whether the family exposes a rotation speed
// characteristic. One-level devices are plain on/off.
func (d Descriptor) HasVariableSpeed() bool {
	return d.SpeedLevels > 1
}

// fallback is the conservative descriptor for unknown type strings:
// a plain on/off outlet.
var fallback = Descriptor{
	Family:           FamilyOutlet,
	SpeedLevels:      1,
	FilterLifeFormat: FilterAbsent,
}

// rule matches a lowercased type string and yields its descriptor.
// Rules are evaluated in order; first match wins.
type rule struct {
	match func(t string) bool
	desc  Descriptor
}

func prefix(p string) func(string) bool {
	return func(t string) bool { return strings.HasPrefix(t, p) }
}

func oneOf(models ...string) func(string) bool {
	return func(t string) bool {
		for _, m := range models {
			if strings.Contains(t, m) {
				return true
			}
		}
		return false
	}
}

// purifier builds an air purifier descriptor with the given speed tier
// and filter payload shape.
func purifier(levels int, airQuality bool, filter FilterLifeFormat) Descriptor {
	return Descriptor{
		Family:             FamilyAirPurifier,
		SpeedLevels:        levels,
		SupportsAirQuality: airQuality,
		SupportsFilterLife: true,
		FilterLifeFormat:   filter,
	}
}

func humidifier(levels int) Descriptor {
	return Descriptor{
		Family:           FamilyHumidifier,
		SpeedLevels:      levels,
		FilterLifeFormat: FilterAbsent,
	}
}

func simple(f Family) Descriptor {
	return Descriptor{Family: f, SpeedLevels: 1, FilterLifeFormat: FilterAbsent}
}

// rules is the ordered match table. Prefix rules precede model-list
// membership; more specific prefixes precede shorter ones that would
// shadow them.
var rules = []rule{
	// Air purifiers. Core400S/600S and the Vital series run four-speed
	// motors; the rest of the Core line and the LAP models run three.
	{prefix("core400s"), purifier(4, true, FilterNumber)},
	{prefix("core600s"), purifier(4, true, FilterNumber)},
	{prefix("core200s"), purifier(3, false, FilterNumber)},
	{prefix("core"), purifier(3, true, FilterNumber)},
	{prefix("vital"), purifier(4, true, FilterNumber)},
	{prefix("lap-"), purifier(3, true, FilterNumber)},
	// The LV-PUR131S is the odd one out: object-shaped filter payload.
	{prefix("lv-pur"), purifier(3, true, FilterPercentObject)},

	// Humidifiers. Dual-series run two mist levels, the rest three.
	{prefix("dual"), humidifier(2)},
	{prefix("classic"), humidifier(3)},
	{prefix("luh-"), humidifier(3)},
	{prefix("leh-"), humidifier(3)},
	{prefix("oasismist"), humidifier(3)},

	// Tower fans: nine-level motor.
	{prefix("ltf-"), Descriptor{
		Family:           FamilyFan,
		SpeedLevels:      9,
		FilterLifeFormat: FilterAbsent,
	}},

	// Wall switches and the in-wall dimmer. Checked before the outlet
	// model list: "ESWL01" also contains "esw0"-adjacent substrings.
	{prefix("eswl"), simple(FamilySwitch)},
	{prefix("eswd"), simple(FamilySwitch)},

	// Bulbs.
	{oneOf("esl100", "xyd0001"), Descriptor{
		Family:           FamilyBulb,
		SpeedLevels:      1,
		FilterLifeFormat: FilterAbsent,
	}},

	// Outlets, including the outdoor dual-outlet unit.
	{oneOf("wifi-switch-1.3", "esw03", "esw01", "esw15", "eso15-tb"), simple(FamilyOutlet)},
}

// Lookup classifies a vendor type string.
//
// Parameters:
//   - typeString: Vendor model identifier, any case
//
// Returns:
//   - Descriptor: The matched descriptor, or the outlet fallback
//   - bool: false if no rule matched and the fallback was used
func Lookup(typeString string) (Descriptor, bool) {
	t := strings.ToLower(strings.TrimSpace(typeString))
	for _, r := range rules {
		if r.match(t) {
			return r.desc, true
		}
	}
	return fallback, false
}

// Classify classifies a vendor type string, falling back to a
// conservative one-level outlet descriptor for unknown models.
func Classify(typeString string) Descriptor {
	d, _ := Lookup(typeString)
	return d
}

// Logger is the minimal logging interface the classifier needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// Classifier caches descriptors per device id and logs unknown type
// strings once each.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Classifier struct {
	mu          sync.Mutex
	byID        map[string]Descriptor
	seenUnknown map[string]bool
	logger      Logger
}

// NewClassifier creates an empty classifier cache.
func NewClassifier(logger Logger) *Classifier {
	return &Classifier{
		byID:        make(map[string]Descriptor),
		seenUnknown: make(map[string]bool),
		logger:      logger,
	}
}

// DescriptorFor returns the cached descriptor for a device id,
// computing and caching it on first sight. An unknown type string is
// logged once (per type string, not per device) and classified with
// conservative defaults.
//
// Parameters:
//   - deviceID: Stable device identifier (cache key)
//   - typeString: Vendor model identifier
//
// Returns:
//   - Descriptor: Immutable capability descriptor
func (c *Classifier) DescriptorFor(deviceID, typeString string) Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.byID[deviceID]; ok {
		return d
	}

	d, known := Lookup(typeString)
	if !known && !c.seenUnknown[typeString] {
		c.seenUnknown[typeString] = true
		if c.logger != nil {
			c.logger.Warn("unknown device type, using outlet defaults",
				"type", typeString,
				"device", deviceID,
			)
		}
	}

	c.byID[deviceID] = d
	return d
}

// Forget drops the cached descriptor for a device id.
// Called when a device is removed from the inventory.
func (c *Classifier) Forget(deviceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, deviceID)
}
