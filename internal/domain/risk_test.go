package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelOf(t *testing.T) {
	tests := []struct {
		p        float64
		expected RiskLevel
	}{
		{0, RiskLow},
		{24.99, RiskLow},
		{25, RiskModerate},
		{49.9, RiskModerate},
		{50, RiskHigh},
		{74.9, RiskHigh},
		{75, RiskExtreme},
		{100, RiskExtreme},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, LevelOf(tt.p), "p=%v", tt.p)
	}
}

func TestAggregate_FallbackDefault(t *testing.T) {
	// Temperate state with no climate stress and all sliders at zero.
	state := ClimateState{Temperature: 20, Rainfall: 100, Humidity: 60, CO2Level: 400}
	got := Aggregate(nil, DefaultSelection(TargetTemperature), state)
	assert.Equal(t, DefaultRisk, got)
}

func TestAggregate_ClimateStress(t *testing.T) {
	// Delhi: 32°C and 65mm adds heatwave stress only.
	state := ClimateState{Temperature: 32, Rainfall: 65, Humidity: 60, CO2Level: 450}
	got := Aggregate(nil, DefaultSelection(TargetTemperature), state)
	assert.InDelta(t, 30.0, got.Flood, 1e-9)
	assert.InDelta(t, 25.0, got.Drought, 1e-9)
	assert.InDelta(t, 39.0, got.Heatwave, 1e-9)

	dry := ClimateState{Temperature: 20, Rainfall: 20, Humidity: 30, CO2Level: 400}
	got = Aggregate(nil, DefaultSelection(TargetTemperature), dry)
	assert.InDelta(t, 35.0, got.Drought, 1e-9)
}

func TestAggregate_RemoteWithSliders(t *testing.T) {
	remote := RiskTriple{Flood: 40, Drought: 50, Heatwave: 60}
	sel, err := NewSelection(TargetTemperature, map[string]float64{"co2Reduction": 40})
	require.NoError(t, err)

	got := Aggregate(&remote, sel, DefaultBaseline)
	assert.InDelta(t, 38.0, got.Flood, 1e-9)
	assert.InDelta(t, 46.8, got.Drought, 1e-9)
	assert.InDelta(t, 54.0, got.Heatwave, 1e-9)
}

func TestAggregate_AlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))

	remotes := []*RiskTriple{
		nil,
		{Flood: 0, Drought: 0, Heatwave: 0},
		{Flood: 100, Drought: 100, Heatwave: 100},
		{Flood: -50, Drought: 250, Heatwave: 1e6},
	}
	states := []ClimateState{
		DefaultBaseline,
		{Temperature: 60, Rainfall: 0, Humidity: 5, CO2Level: 1000},
		{Temperature: -20, Rainfall: 1000, Humidity: 100, CO2Level: 280},
	}

	for _, target := range Targets {
		for trial := 0; trial < 20; trial++ {
			values := map[string]float64{}
			for _, d := range SlidersFor(target) {
				values[string(d.Kind)] = d.Range.Min + rng.Float64()*(d.Range.Max-d.Range.Min)
			}
			sel, err := NewSelection(target, values)
			require.NoError(t, err)

			for _, remote := range remotes {
				for _, state := range states {
					got := Aggregate(remote, sel, state)
					for _, p := range []float64{got.Flood, got.Drought, got.Heatwave} {
						require.True(t, RiskRange.Contains(p), "target=%s remote=%v state=%+v got=%+v", target, remote, state, got)
					}
				}
			}
		}
	}
}

func TestRiskTriple_Levels(t *testing.T) {
	got := RiskTriple{Flood: 10, Drought: 30, Heatwave: 80}.Levels()
	assert.Equal(t, RiskLevels{Flood: RiskLow, Drought: RiskModerate, Heatwave: RiskExtreme}, got)
}
