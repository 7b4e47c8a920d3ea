package convert

import (
	"math"
	"testing"

	"github.com/ashvale/vesync-bridge/internal/classify"
)

func TestSpeedToPercentage(t *testing.T) {
	tests := []struct {
		name      string
		level     int
		maxLevels int
		want      float64
	}{
		{"level 1 of 3", 1, 3, 100.0 / 3},
		{"level 2 of 3", 2, 3, 200.0 / 3},
		{"level 3 of 3", 3, 3, 100},
		{"level 2 of 4", 2, 4, 50},
		{"level 9 of 9", 9, 9, 100},
		{"level 0 maps to 0", 0, 3, 0},
		{"negative level maps to 0", -2, 3, 0},
		{"level above max clamps", 7, 3, 100},
		{"one level device", 1, 1, 100},
		{"zero max treated as one", 1, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpeedToPercentage(tt.level, tt.maxLevels)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SpeedToPercentage(%d, %d) = %v, want %v", tt.level, tt.maxLevels, got, tt.want)
			}
		})
	}
}

func TestPercentageToSpeed(t *testing.T) {
	tests := []struct {
		name      string
		pct       float64
		maxLevels int
		want      int
	}{
		{"zero is off", 0, 3, 0},
		{"tiny positive is level 1", 0.5, 3, 1},
		{"exact first boundary", 100.0 / 3, 3, 1},
		{"just past first boundary", 34, 3, 2},
		{"eighty percent of three levels", 80, 3, 3},
		{"full scale", 100, 3, 3},
		{"above range clamps", 150, 3, 3},
		{"negative is off", -5, 3, 0},
		{"nan is off", math.NaN(), 3, 0},
		{"positive infinity is off", math.Inf(1), 3, 0},
		{"nine level fan mid", 50, 9, 5},
		{"zero max treated as one", 60, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentageToSpeed(tt.pct, tt.maxLevels)
			if got != tt.want {
				t.Errorf("PercentageToSpeed(%v, %d) = %d, want %d", tt.pct, tt.maxLevels, got, tt.want)
			}
		})
	}
}

func TestSpeedConversion_RoundTrip(t *testing.T) {
	// Inverse up to rounding: for all valid levels 1..N,
	// PercentageToSpeed(SpeedToPercentage(level, N), N) == level.
	for _, maxLevels := range []int{1, 2, 3, 4, 9} {
		for level := 1; level <= maxLevels; level++ {
			pct := SpeedToPercentage(level, maxLevels)
			got := PercentageToSpeed(pct, maxLevels)
			if got != level {
				t.Errorf("round trip failed: level %d of %d -> %v%% -> level %d",
					level, maxLevels, pct, got)
			}
		}
	}
}

func TestPM25ToAirQuality_Boundaries(t *testing.T) {
	tests := []struct {
		pm25 float64
		want AirQuality
	}{
		{0, AirQualityExcellent},
		{12, AirQualityExcellent},
		{13, AirQualityGood},
		{35, AirQualityGood},
		{36, AirQualityFair},
		{55, AirQualityFair},
		{56, AirQualityInferior},
		{150, AirQualityInferior},
		{151, AirQualityPoor},
		{999, AirQualityPoor},
	}

	for _, tt := range tests {
		if got := PM25ToAirQuality(tt.pm25); got != tt.want {
			t.Errorf("PM25ToAirQuality(%v) = %v, want %v", tt.pm25, got, tt.want)
		}
	}
}

func TestPM25ToAirQuality_Monotonic(t *testing.T) {
	prev := AirQualityExcellent
	for pm := 0.0; pm <= 300; pm++ {
		cur := PM25ToAirQuality(pm)
		if cur < prev {
			t.Fatalf("air quality decreased at pm25=%v: %v after %v", pm, cur, prev)
		}
		prev = cur
	}
}

func TestPM25ToAirQuality_InvalidInput(t *testing.T) {
	for _, pm := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -50} {
		if got := PM25ToAirQuality(pm); got != AirQualityExcellent {
			t.Errorf("PM25ToAirQuality(%v) = %v, want excellent (treated as 0)", pm, got)
		}
	}
}

func TestClampDensity(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want int
	}{
		{"in range rounds", 42.6, 43},
		{"above ceiling clamps", 1500, 1000},
		{"negative clamps to zero", -10, 0},
		{"nan is zero", math.NaN(), 0},
		{"infinity is zero", math.Inf(1), 0},
		{"exact ceiling", 1000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampDensity(tt.v); got != tt.want {
				t.Errorf("ClampDensity(%v) = %d, want %d", tt.v, got, tt.want)
			}
		})
	}
}

func TestNormalizeFilterLife(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		fallback int
		want     int
	}{
		{"plain number", float64(42), FilterDefaultLevel, 42},
		{"plain int", 42, FilterDefaultLevel, 42},
		{"percent object", map[string]any{"percent": float64(42)}, FilterDefaultLevel, 42},
		{"rounds before clamping", 41.5, FilterDefaultLevel, 42},
		{"above range clamps", float64(250), FilterDefaultLevel, 100},
		{"below range clamps", float64(-3), FilterDefaultLevel, 0},
		{"nil uses replacement fallback", nil, FilterDefaultReplacement, 100},
		{"nil uses level fallback", nil, FilterDefaultLevel, 0},
		{"string uses fallback", "85%", FilterDefaultReplacement, 100},
		{"object without percent uses fallback", map[string]any{"hours": 1200}, FilterDefaultLevel, 0},
		{"nan uses fallback", math.NaN(), FilterDefaultReplacement, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFilterLife(tt.raw, tt.fallback); got != tt.want {
				t.Errorf("NormalizeFilterLife(%v, %d) = %d, want %d", tt.raw, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestNeedsFilterReplacement(t *testing.T) {
	tests := []struct {
		pct  int
		want bool
	}{
		{10, false}, // exactly 10 is still OK
		{9, true},
		{0, true},
		{100, false},
	}

	for _, tt := range tests {
		if got := NeedsFilterReplacement(tt.pct); got != tt.want {
			t.Errorf("NeedsFilterReplacement(%d) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestSpeedFromRaw(t *testing.T) {
	if v, ok := SpeedFromRaw(map[string]any{"speed": float64(2)}); !ok || v != 2 {
		t.Errorf("SpeedFromRaw(speed=2) = %d, %v", v, ok)
	}
	if v, ok := SpeedFromRaw(map[string]any{"level": float64(3)}); !ok || v != 3 {
		t.Errorf("SpeedFromRaw(level=3) = %d, %v", v, ok)
	}
	// "speed" wins when both are present
	if v, _ := SpeedFromRaw(map[string]any{"speed": float64(1), "level": float64(4)}); v != 1 {
		t.Errorf("SpeedFromRaw with both keys = %d, want 1", v)
	}
	// Humidifiers report their speed as a mist level
	if v, ok := SpeedFromRaw(map[string]any{"mist_level": float64(2)}); !ok || v != 2 {
		t.Errorf("SpeedFromRaw(mist_level=2) = %d, %v", v, ok)
	}
	if _, ok := SpeedFromRaw(map[string]any{}); ok {
		t.Error("SpeedFromRaw on empty map should not report ok")
	}
}

func TestPM25FromRaw(t *testing.T) {
	if v, ok := PM25FromRaw(map[string]any{"air_quality_value": float64(18)}); !ok || v != 18 {
		t.Errorf("PM25FromRaw(air_quality_value) = %v, %v", v, ok)
	}
	if v, ok := PM25FromRaw(map[string]any{"pm25": float64(7)}); !ok || v != 7 {
		t.Errorf("PM25FromRaw(pm25) = %v, %v", v, ok)
	}
	if _, ok := PM25FromRaw(map[string]any{"pm10": float64(9)}); ok {
		t.Error("PM25FromRaw should ignore unrelated keys")
	}
}

func TestFilterLifeFromRaw(t *testing.T) {
	numberRaw := map[string]any{"filter_life": float64(42)}
	objectRaw := map[string]any{"filter_life": map[string]any{"percent": float64(42)}}

	if got := FilterLifeFromRaw(numberRaw, classify.FilterNumber, FilterDefaultLevel); got != 42 {
		t.Errorf("number format = %d, want 42", got)
	}
	if got := FilterLifeFromRaw(objectRaw, classify.FilterPercentObject, FilterDefaultLevel); got != 42 {
		t.Errorf("percent object format = %d, want 42", got)
	}
	if got := FilterLifeFromRaw(numberRaw, classify.FilterAbsent, FilterDefaultReplacement); got != 100 {
		t.Errorf("absent format = %d, want fallback 100", got)
	}
}
