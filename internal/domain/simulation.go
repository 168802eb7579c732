package domain

import (
	"context"
	"log/slog"
	"time"
)

// Simulation is the full output of one scenario run.
type Simulation struct {
	ID          string          `json:"id"`
	RegionID    string          `json:"region"`
	KnownRegion bool            `json:"knownRegion"`
	Target      TargetVariable  `json:"target"`
	Years       int             `json:"years"`
	Seed        uint64          `json:"seed"`
	Sliders     []SliderSetting `json:"sliders"`
	Baseline    ClimateState    `json:"baseline"`
	Adjusted    ClimateState    `json:"adjusted"`
	Risk        RiskTriple      `json:"risk"`
	RiskLevels  RiskLevels      `json:"riskLevels"`
	RiskSource  RiskSource      `json:"riskSource"`
	MLStatus    string          `json:"mlStatus"`
	Projection  Projection      `json:"projection"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ScenarioInput is everything needed to run one simulation.
type ScenarioInput struct {
	RegionID  string
	Selection Selection
	Years     int
	Seed      uint64
	// Now stamps CreatedAt and picks the first projection year. Zero means
	// the wall clock.
	Now time.Time
}

// RunScenario executes the pipeline: baseline lookup, slider adjustment,
// best-effort remote prediction, risk aggregation and projection.
func RunScenario(ctx context.Context, regions *RegionTable, predictor Predictor, timeout time.Duration, in ScenarioInput, logger *slog.Logger) Simulation {
	_, known := regions.Region(in.RegionID)
	baseline := regions.Lookup(in.RegionID)
	adjusted := Adjust(baseline, in.Selection.Impacts()...)

	remote, status := RemoteRisk(ctx, predictor, adjusted, timeout, logger)
	source := RiskSourceFallback
	if remote != nil {
		source = RiskSourceRemote
	}
	risk := Aggregate(remote, in.Selection, adjusted)

	now := in.Now.UTC()
	if in.Now.IsZero() {
		now = time.Now().UTC()
	}
	projection := NewProjector(now.Year(), NewSeededNoise(in.Seed)).
		Project(adjusted, in.Selection.Target(), in.Years, remote)

	return Simulation{
		RegionID:    in.RegionID,
		KnownRegion: known,
		Target:      in.Selection.Target(),
		Years:       projection.Len(),
		Seed:        in.Seed,
		Sliders:     in.Selection.Settings(),
		Baseline:    baseline,
		Adjusted:    adjusted,
		Risk:        risk,
		RiskLevels:  risk.Levels(),
		RiskSource:  source,
		MLStatus:    status,
		Projection:  projection,
		CreatedAt:   now,
	}
}
