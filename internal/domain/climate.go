package domain

import "math"

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp limits v to the range. NaN clamps to Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return r.Min
	}
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Physical bounds applied to every adjusted ClimateState.
var (
	TemperatureRange = Range{Min: -20, Max: 60}
	RainfallRange    = Range{Min: 0, Max: 1000}
	HumidityRange    = Range{Min: 5, Max: 100}
	CO2Range         = Range{Min: 280, Max: 1000}
)

// ClimateState is a single climate reading for a region.
type ClimateState struct {
	Temperature float64 `json:"temperature" yaml:"temperature"` // °C
	Rainfall    float64 `json:"rainfall" yaml:"rainfall"`       // mm
	Humidity    float64 `json:"humidity" yaml:"humidity"`       // percent
	CO2Level    float64 `json:"co2Level" yaml:"co2_level"`      // ppm
}

// Clamp returns the state with every field limited to its physical range.
func (s ClimateState) Clamp() ClimateState {
	return ClimateState{
		Temperature: TemperatureRange.Clamp(s.Temperature),
		Rainfall:    RainfallRange.Clamp(s.Rainfall),
		Humidity:    HumidityRange.Clamp(s.Humidity),
		CO2Level:    CO2Range.Clamp(s.CO2Level),
	}
}

// InBounds reports whether every field lies within its physical range.
func (s ClimateState) InBounds() bool {
	return TemperatureRange.Contains(s.Temperature) &&
		RainfallRange.Contains(s.Rainfall) &&
		HumidityRange.Contains(s.Humidity) &&
		CO2Range.Contains(s.CO2Level)
}

// ImpactVector holds per-field deltas contributed by one scenario slider.
// A zero field leaves that reading unchanged.
type ImpactVector struct {
	Temperature float64 `json:"temperature,omitempty"`
	Rainfall    float64 `json:"rainfall,omitempty"`
	Humidity    float64 `json:"humidity,omitempty"`
	CO2Level    float64 `json:"co2Level,omitempty"`
}

// Scale multiplies every delta by k.
func (v ImpactVector) Scale(k float64) ImpactVector {
	return ImpactVector{
		Temperature: v.Temperature * k,
		Rainfall:    v.Rainfall * k,
		Humidity:    v.Humidity * k,
		CO2Level:    v.CO2Level * k,
	}
}

// IsZero reports whether the vector changes nothing.
func (v ImpactVector) IsZero() bool {
	return v == ImpactVector{}
}
