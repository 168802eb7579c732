package domain

import "fmt"

// Hazard names a risk in a RiskTriple.
type Hazard string

const (
	HazardFlood    Hazard = "flood"
	HazardDrought  Hazard = "drought"
	HazardHeatwave Hazard = "heatwave"
)

// Insight is an advisory message for one hazard.
type Insight struct {
	Hazard      Hazard    `json:"hazard"`
	Probability float64   `json:"probability"`
	Level       RiskLevel `json:"level"`
	Message     string    `json:"message"`
}

var advice = map[Hazard]map[RiskLevel]string{
	HazardFlood: {
		RiskLow:      "flood risk is low; routine drainage maintenance is sufficient",
		RiskModerate: "moderate flood risk; review drainage capacity before the wet season",
		RiskHigh:     "high flood risk; prioritise flood defences and early-warning coverage",
		RiskExtreme:  "extreme flood risk; evacuation planning for low-lying areas is advised",
	},
	HazardDrought: {
		RiskLow:      "drought risk is low; current water supply is adequate",
		RiskModerate: "moderate drought risk; encourage water conservation",
		RiskHigh:     "high drought risk; expand storage and restrict non-essential use",
		RiskExtreme:  "extreme drought risk; emergency water allocation may be required",
	},
	HazardHeatwave: {
		RiskLow:      "heatwave risk is low",
		RiskModerate: "moderate heatwave risk; prepare cooling centres for vulnerable residents",
		RiskHigh:     "high heatwave risk; expand urban shade and public cooling access",
		RiskExtreme:  "extreme heatwave risk; activate heat-health emergency plans",
	},
}

// Insights returns one advisory per hazard for the named place, ordered
// flood, drought, heatwave.
func Insights(place string, risk RiskTriple) []Insight {
	risk = risk.Clamp()
	pairs := []struct {
		h Hazard
		p float64
	}{
		{HazardFlood, risk.Flood},
		{HazardDrought, risk.Drought},
		{HazardHeatwave, risk.Heatwave},
	}

	out := make([]Insight, 0, len(pairs))
	for _, pr := range pairs {
		level := LevelOf(pr.p)
		out = append(out, Insight{
			Hazard:      pr.h,
			Probability: pr.p,
			Level:       level,
			Message:     fmt.Sprintf("%s: %s (%.0f%%)", place, advice[pr.h][level], pr.p),
		})
	}
	return out
}
