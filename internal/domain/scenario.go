package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrUnknownSlider is returned when a slider id does not exist or does not
	// apply to the selected target variable.
	ErrUnknownSlider = errors.New("unknown scenario slider")

	// ErrInvalidSliderValue is returned for NaN or infinite slider values.
	ErrInvalidSliderValue = errors.New("invalid scenario slider value")
)

// TargetVariable is the climate metric being projected.
type TargetVariable string

const (
	TargetTemperature   TargetVariable = "temperature"
	TargetRainfall      TargetVariable = "rainfall"
	TargetHumidity      TargetVariable = "humidity"
	TargetCO2           TargetVariable = "co2"
	TargetDrought       TargetVariable = "drought"
	TargetDeforestation TargetVariable = "deforestation"
	TargetGlobalWarming TargetVariable = "globalwarming"
)

// Targets lists every target variable in display order.
var Targets = []TargetVariable{
	TargetTemperature,
	TargetRainfall,
	TargetHumidity,
	TargetCO2,
	TargetDrought,
	TargetDeforestation,
	TargetGlobalWarming,
}

// ParseTarget matches a target id case-insensitively.
func ParseTarget(s string) (TargetVariable, bool) {
	t := TargetVariable(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := targetSliders[t]; ok {
		return t, true
	}
	return "", false
}

// NormalizeTarget is ParseTarget with the temperature fallback for unknown ids.
func NormalizeTarget(s string) TargetVariable {
	if t, ok := ParseTarget(s); ok {
		return t
	}
	return TargetTemperature
}

// SliderKind identifies a scenario slider (a hypothetical policy lever).
type SliderKind string

const (
	SliderCO2Reduction        SliderKind = "co2Reduction"
	SliderRenewableEnergy     SliderKind = "renewableEnergy"
	SliderUrbanHeatControl    SliderKind = "urbanHeatControl"
	SliderReforestation       SliderKind = "reforestation"
	SliderWaterConservation   SliderKind = "waterConservation"
	SliderCloudSeeding        SliderKind = "cloudSeeding"
	SliderIrrigationExpansion SliderKind = "irrigationExpansion"
	SliderUrbanGreening       SliderKind = "urbanGreening"
	SliderCarbonCapture       SliderKind = "carbonCapture"
	SliderDeforestationRate   SliderKind = "deforestationRate"
	SliderProtectedAreas      SliderKind = "protectedAreas"
	SliderMethaneReduction    SliderKind = "methaneReduction"
)

// ParseSliderKind matches a slider id exactly.
func ParseSliderKind(s string) (SliderKind, bool) {
	k := SliderKind(s)
	_, ok := sliders[k]
	return k, ok
}

// SliderDef describes a slider's UI range and its coefficient structs.
type SliderDef struct {
	Kind    SliderKind `json:"id"`
	Label   string     `json:"label"`
	Unit    string     `json:"unit"`
	Range   Range      `json:"range"`
	Default float64    `json:"default"`
	Step    float64    `json:"step"`

	impact ImpactVector
	risk   RiskTriple
}

// Slider returns the definition of a slider kind.
func Slider(k SliderKind) (SliderDef, bool) {
	d, ok := sliders[k]
	return d, ok
}

var sliders = map[SliderKind]SliderDef{
	SliderCO2Reduction: {
		Kind: SliderCO2Reduction, Label: "CO₂ Reduction", Unit: "%", Range: Range{0, 100}, Step: 1,
		impact: ImpactVector{Temperature: -0.02, CO2Level: -2.0},
		risk:   RiskTriple{Flood: -0.05, Drought: -0.08, Heatwave: -0.15},
	},
	SliderRenewableEnergy: {
		Kind: SliderRenewableEnergy, Label: "Renewable Energy", Unit: "%", Range: Range{0, 100}, Step: 1,
		impact: ImpactVector{Temperature: -0.015, CO2Level: -1.5},
		risk:   RiskTriple{Flood: -0.03, Drought: -0.05, Heatwave: -0.10},
	},
	SliderUrbanHeatControl: {
		Kind: SliderUrbanHeatControl, Label: "Urban Heat Control", Unit: "%", Range: Range{0, 100}, Step: 1,
		impact: ImpactVector{Temperature: -0.03, Humidity: 0.05},
		risk:   RiskTriple{Drought: -0.02, Heatwave: -0.20},
	},
	SliderReforestation: {
		Kind: SliderReforestation, Label: "Reforestation", Unit: "%", Range: Range{0, 100}, Step: 1,
		impact: ImpactVector{Temperature: -0.01, Rainfall: 0.8, Humidity: 0.1, CO2Level: -1.0},
		risk:   RiskTriple{Flood: -0.15, Drought: -0.12, Heatwave: -0.08},
	},
	SliderWaterConservation: {
		Kind: SliderWaterConservation, Label: "Water Conservation", Unit: "%", Range: Range{0, 100}, Step: 1,
		impact: ImpactVector{Rainfall: 0.3, Humidity: 0.05},
		risk:   RiskTriple{Drought: -0.20, Heatwave: -0.02},
	},
	SliderCloudSeeding: {
		Kind: SliderCloudSeeding, Label: "Cloud Seeding", Unit: "%", Range: Range{0, 50}, Step: 1,
		impact: ImpactVector{Rainfall: 1.5, Humidity: 0.2},
		risk:   RiskTriple{Flood: 0.10, Drought: -0.25, Heatwave: -0.05},
	},
	SliderIrrigationExpansion: {
		Kind: SliderIrrigationExpansion, Label: "Irrigation Expansion", Unit: "%", Range: Range{0, 100}, Step: 1,
		impact: ImpactVector{Temperature: -0.005, Humidity: 0.15},
		risk:   RiskTriple{Flood: 0.03, Drought: -0.15, Heatwave: -0.03},
	},
	SliderUrbanGreening: {
		Kind: SliderUrbanGreening, Label: "Urban Greening", Unit: "%", Range: Range{0, 100}, Step: 1,
		impact: ImpactVector{Temperature: -0.02, Humidity: 0.1, CO2Level: -0.3},
		risk:   RiskTriple{Flood: -0.05, Drought: -0.05, Heatwave: -0.12},
	},
	SliderCarbonCapture: {
		Kind: SliderCarbonCapture, Label: "Carbon Capture", Unit: "%", Range: Range{0, 100}, Step: 1,
		impact: ImpactVector{CO2Level: -2.5},
		risk:   RiskTriple{Flood: -0.02, Drought: -0.04, Heatwave: -0.08},
	},
	SliderDeforestationRate: {
		Kind: SliderDeforestationRate, Label: "Deforestation Rate", Unit: "%", Range: Range{0, 100}, Step: 1,
		impact: ImpactVector{Temperature: 0.02, Rainfall: -0.9, Humidity: -0.12, CO2Level: 1.8},
		risk:   RiskTriple{Flood: 0.20, Drought: 0.18, Heatwave: 0.10},
	},
	SliderProtectedAreas: {
		Kind: SliderProtectedAreas, Label: "Protected Areas", Unit: "%", Range: Range{0, 100}, Step: 1,
		impact: ImpactVector{Rainfall: 0.2, CO2Level: -0.5},
		risk:   RiskTriple{Flood: -0.08, Drought: -0.06, Heatwave: -0.04},
	},
	SliderMethaneReduction: {
		Kind: SliderMethaneReduction, Label: "Methane Reduction", Unit: "%", Range: Range{0, 100}, Step: 1,
		impact: ImpactVector{Temperature: -0.025, CO2Level: -0.5},
		risk:   RiskTriple{Flood: -0.03, Drought: -0.05, Heatwave: -0.12},
	},
}

// targetSliders lists the sliders active for each target variable, in order.
var targetSliders = map[TargetVariable][]SliderKind{
	TargetTemperature:   {SliderCO2Reduction, SliderRenewableEnergy, SliderUrbanHeatControl},
	TargetRainfall:      {SliderReforestation, SliderWaterConservation, SliderCloudSeeding},
	TargetHumidity:      {SliderIrrigationExpansion, SliderUrbanGreening},
	TargetCO2:           {SliderCO2Reduction, SliderRenewableEnergy, SliderCarbonCapture},
	TargetDrought:       {SliderWaterConservation, SliderReforestation, SliderDeforestationRate},
	TargetDeforestation: {SliderDeforestationRate, SliderReforestation, SliderProtectedAreas},
	TargetGlobalWarming: {SliderCO2Reduction, SliderRenewableEnergy, SliderMethaneReduction},
}

// SlidersFor returns the slider definitions active for a target variable.
func SlidersFor(t TargetVariable) []SliderDef {
	kinds := targetSliders[NormalizeTarget(string(t))]
	defs := make([]SliderDef, 0, len(kinds))
	for _, k := range kinds {
		defs = append(defs, sliders[k])
	}
	return defs
}

// SliderSetting is one slider's current value.
type SliderSetting struct {
	Slider SliderKind `json:"slider"`
	Value  float64    `json:"value"`
}

// Selection is the ordered set of slider values for one target variable.
// The zero value has no sliders; build one with DefaultSelection or NewSelection.
type Selection struct {
	target   TargetVariable
	settings []SliderSetting
}

// DefaultSelection returns the target's sliders at their default values.
func DefaultSelection(t TargetVariable) Selection {
	t = NormalizeTarget(string(t))
	defs := SlidersFor(t)
	settings := make([]SliderSetting, len(defs))
	for i, d := range defs {
		settings[i] = SliderSetting{Slider: d.Kind, Value: d.Default}
	}
	return Selection{target: t, settings: settings}
}

// NewSelection builds a selection for t starting from defaults and applying
// values. Values are clamped into each slider's range. A slider id that does
// not apply to t yields ErrUnknownSlider.
func NewSelection(t TargetVariable, values map[string]float64) (Selection, error) {
	sel := DefaultSelection(t)
	for id, v := range values {
		var err error
		sel, err = sel.With(id, v)
		if err != nil {
			return Selection{}, err
		}
	}
	return sel, nil
}

// With returns a copy of the selection with one slider changed.
func (s Selection) With(id string, value float64) (Selection, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Selection{}, fmt.Errorf("%w: %s=%v", ErrInvalidSliderValue, id, value)
	}
	kind, ok := ParseSliderKind(id)
	if !ok {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownSlider, id)
	}
	idx := s.index(kind)
	if idx < 0 {
		return Selection{}, fmt.Errorf("%w: %q does not apply to %s", ErrUnknownSlider, id, s.target)
	}

	out := Selection{target: s.target, settings: s.Settings()}
	out.settings[idx].Value = sliders[kind].Range.Clamp(value)
	return out, nil
}

// Target returns the target variable the selection belongs to.
func (s Selection) Target() TargetVariable {
	if s.target == "" {
		return TargetTemperature
	}
	return s.target
}

// Settings returns a copy of the slider values in display order.
func (s Selection) Settings() []SliderSetting {
	out := make([]SliderSetting, len(s.settings))
	copy(out, s.settings)
	return out
}

// Value returns the current value of a slider.
func (s Selection) Value(k SliderKind) (float64, bool) {
	if i := s.index(k); i >= 0 {
		return s.settings[i].Value, true
	}
	return 0, false
}

// Impacts returns the impact vector of every active slider.
func (s Selection) Impacts() []ImpactVector {
	out := make([]ImpactVector, 0, len(s.settings))
	for _, st := range s.settings {
		out = append(out, ImpactOf(st.Slider, st.Value))
	}
	return out
}

func (s Selection) index(k SliderKind) int {
	for i, st := range s.settings {
		if st.Slider == k {
			return i
		}
	}
	return -1
}
