package domain

import "math"

// RiskRange bounds every hazard probability, in percent.
var RiskRange = Range{Min: 0, Max: 100}

// DefaultRisk is the base risk used when the remote predictor is unavailable.
var DefaultRisk = RiskTriple{Flood: 30, Drought: 25, Heatwave: 35}

// RiskTriple holds flood, drought and heatwave probabilities in percent.
type RiskTriple struct {
	Flood    float64 `json:"flood"`
	Drought  float64 `json:"drought"`
	Heatwave float64 `json:"heatwave"`
}

// Clamp limits every hazard to [0, 100].
func (r RiskTriple) Clamp() RiskTriple {
	return RiskTriple{
		Flood:    RiskRange.Clamp(r.Flood),
		Drought:  RiskRange.Clamp(r.Drought),
		Heatwave: RiskRange.Clamp(r.Heatwave),
	}
}

// Mean is the average of the three hazards.
func (r RiskTriple) Mean() float64 {
	return (r.Flood + r.Drought + r.Heatwave) / 3
}

func (r RiskTriple) add(o RiskTriple) RiskTriple {
	return RiskTriple{
		Flood:    r.Flood + o.Flood,
		Drought:  r.Drought + o.Drought,
		Heatwave: r.Heatwave + o.Heatwave,
	}
}

// RiskLevel is a coarse label for a hazard probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskExtreme  RiskLevel = "extreme"
)

// LevelOf maps a probability to a level: <25 low, <50 moderate, <75 high,
// else extreme.
func LevelOf(p float64) RiskLevel {
	switch {
	case p < 25:
		return RiskLow
	case p < 50:
		return RiskModerate
	case p < 75:
		return RiskHigh
	default:
		return RiskExtreme
	}
}

// RiskLevels labels each hazard of a RiskTriple.
type RiskLevels struct {
	Flood    RiskLevel `json:"flood"`
	Drought  RiskLevel `json:"drought"`
	Heatwave RiskLevel `json:"heatwave"`
}

// Levels labels each hazard.
func (r RiskTriple) Levels() RiskLevels {
	return RiskLevels{
		Flood:    LevelOf(r.Flood),
		Drought:  LevelOf(r.Drought),
		Heatwave: LevelOf(r.Heatwave),
	}
}

// Aggregate combines the remote prediction with the per-slider risk
// adjustments of sel. The result is always within [0, 100].
//
// When remote is nil the base is DefaultRisk raised by climateStress(state),
// so the local fallback still reacts to the adjusted climate. A state within
// the stress thresholds yields exactly DefaultRisk.
func Aggregate(remote *RiskTriple, sel Selection, state ClimateState) RiskTriple {
	var base RiskTriple
	if remote != nil {
		base = remote.Clamp()
	} else {
		base = DefaultRisk.add(climateStress(state))
	}

	for _, st := range sel.settings {
		if d, ok := sliders[st.Slider]; ok {
			base = base.add(RiskTriple{
				Flood:    d.risk.Flood * st.Value,
				Drought:  d.risk.Drought * st.Value,
				Heatwave: d.risk.Heatwave * st.Value,
			})
		}
	}
	return base.Clamp()
}

// climateStress is the local stand-in for the remote model. Each component
// rises once its driving variable passes a fixed threshold.
func climateStress(s ClimateState) RiskTriple {
	return RiskTriple{
		Flood:    math.Max(0, s.Rainfall-200) * 0.05,
		Drought:  math.Max(0, 60-s.Rainfall) * 0.25,
		Heatwave: math.Max(0, s.Temperature-30) * 2,
	}
}
