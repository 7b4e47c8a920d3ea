// Package convert holds the stateless capability conversions between
// vendor device encodings and the normalized characteristic model.
//
// Every function is total: defined for all inputs, no panics. Garbage
// in yields the documented conservative value out, because these run
// against raw fields from an API that changes shape between firmware
// versions.
package convert

import (
	"math"

	"github.com/ashvale/vesync-bridge/internal/classify"
	"github.com/ashvale/vesync-bridge/internal/vesync"
)

// AirQuality is the 5-level normalized air quality enum.
type AirQuality int

// Air quality levels, EPA-style buckets over PM2.5 density.
const (
	AirQualityExcellent AirQuality = 1
	AirQualityGood      AirQuality = 2
	AirQualityFair      AirQuality = 3
	AirQualityInferior  AirQuality = 4
	AirQualityPoor      AirQuality = 5
)

// String returns the level name for logging.
func (q AirQuality) String() string {
	switch q {
	case AirQualityExcellent:
		return "excellent"
	case AirQualityGood:
		return "good"
	case AirQualityFair:
		return "fair"
	case AirQualityInferior:
		return "inferior"
	case AirQualityPoor:
		return "poor"
	default:
		return "unknown"
	}
}

// Filter life defaults. The right default depends on the question being
// asked: "does the filter need replacing?" should assume a healthy
// filter when the payload is garbage, while "what is the filter level?"
// should report empty rather than invent 100%.
const (
	// FilterDefaultReplacement is the fallback for the replacement
	// decision read path.
	FilterDefaultReplacement = 100

	// FilterDefaultLevel is the fallback for raw level reporting.
	FilterDefaultLevel = 0
)

// filterReplaceThreshold is the strict percentage below which a filter
// needs replacement. Exactly 10 is still OK.
const filterReplaceThreshold = 10

// maxDensity is the ceiling for reported PM densities in µg/m³.
const maxDensity = 1000

// epsilon absorbs float error in the speed level division so that an
// exact level percentage maps back to the same level.
const epsilon = 1e-6

// SpeedToPercentage maps a discrete speed level onto evenly spaced
// percentage points covering 0..100.
//
// maxLevels=3 yields {33.33, 66.67, 100}; level 0, negative levels,
// and levels on devices with no speed notion all map to 0. Levels
// above maxLevels clamp to 100.
func SpeedToPercentage(level, maxLevels int) float64 {
	if maxLevels < 1 {
		maxLevels = 1
	}
	if level <= 0 {
		return 0
	}
	if level > maxLevels {
		level = maxLevels
	}
	return float64(level) * 100 / float64(maxLevels)
}

// PercentageToSpeed is the inverse mapping: any percentage in a level's
// span selects that level, so commanding 80% on a 3-level device yields
// level 3 (the 66.67..100 span). The percentage is clamped to [0,100]
// first; any pct > 0 returns at least level 1; 0 and non-finite values
// return 0.
//
// Round-trip invariant: for all levels 1..N,
// PercentageToSpeed(SpeedToPercentage(level, N), N) == level.
func PercentageToSpeed(pct float64, maxLevels int) int {
	if maxLevels < 1 {
		maxLevels = 1
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	if pct <= 0 {
		return 0
	}
	if pct > 100 {
		pct = 100
	}

	step := 100 / float64(maxLevels)
	level := int(math.Ceil(pct/step - epsilon))
	if level < 1 {
		level = 1
	}
	if level > maxLevels {
		level = maxLevels
	}
	return level
}

// PM25ToAirQuality buckets a PM2.5 density (µg/m³) into the 5-level
// enum. Boundaries: ≤12 excellent, 13-35 good, 36-55 fair, 56-150
// inferior, >150 poor. Non-finite or negative input is treated as 0.
func PM25ToAirQuality(pm25 float64) AirQuality {
	if math.IsNaN(pm25) || math.IsInf(pm25, 0) || pm25 < 0 {
		pm25 = 0
	}
	switch {
	case pm25 <= 12:
		return AirQualityExcellent
	case pm25 <= 35:
		return AirQualityGood
	case pm25 <= 55:
		return AirQualityFair
	case pm25 <= 150:
		return AirQualityInferior
	default:
		return AirQualityPoor
	}
}

// ClampDensity rounds a density reading to the nearest integer and
// clamps it to [0, 1000] µg/m³. Non-finite input yields 0.
func ClampDensity(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > maxDensity {
		return maxDensity
	}
	return n
}

// NormalizeFilterLife turns a heterogeneous filter life payload into an
// integer percentage in [0, 100].
//
// Accepted shapes:
//   - a plain number (int or float)
//   - an object carrying a "percent" field
//   - anything else, including absence (nil), yields fallback
//
// Values are rounded to the nearest integer before clamping. Callers
// pick the fallback per call site: FilterDefaultReplacement for the
// "needs replacement?" path, FilterDefaultLevel for level reporting.
func NormalizeFilterLife(raw any, fallback int) int {
	if m, ok := raw.(map[string]any); ok {
		raw = m[vesync.FieldFilterPercent]
	}

	v, ok := toFloat(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return clampPercent(fallback)
	}
	return clampPercent(int(math.Round(v)))
}

// NeedsFilterReplacement reports whether a normalized filter life
// percentage calls for a replacement. Strict threshold: exactly 10 is
// still OK.
func NeedsFilterReplacement(normalizedPercent int) bool {
	return normalizedPercent < filterReplaceThreshold
}

// SpeedFromRaw extracts the discrete speed level from a detail
// snapshot. The fleet reports it under three keys: "speed" on newer
// purifiers and fans, "level" on older ones, "mist_level" on
// humidifiers. All three feed the same speed⇄percentage conversion.
func SpeedFromRaw(raw map[string]any) (int, bool) {
	for _, key := range []string{vesync.FieldSpeed, vesync.FieldLevel, vesync.FieldMistLevel} {
		if v, ok := toFloat(raw[key]); ok {
			return int(math.Round(v)), true
		}
	}
	return 0, false
}

// PM25FromRaw extracts the PM2.5 density from a detail snapshot,
// accepting either raw field key the fleet uses.
func PM25FromRaw(raw map[string]any) (float64, bool) {
	if v, ok := toFloat(raw[vesync.FieldAirQuality]); ok {
		return v, true
	}
	if v, ok := toFloat(raw[vesync.FieldPM25]); ok {
		return v, true
	}
	return 0, false
}

// FilterLifeFromRaw extracts and normalizes the filter life payload
// according to the model's descriptor.
func FilterLifeFromRaw(raw map[string]any, format classify.FilterLifeFormat, fallback int) int {
	if format == classify.FilterAbsent {
		return clampPercent(fallback)
	}
	return NormalizeFilterLife(raw[vesync.FieldFilterLife], fallback)
}

// clampPercent clamps an integer to [0, 100].
func clampPercent(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// toFloat coerces the numeric types a decoded JSON payload can carry.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}
