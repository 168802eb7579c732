package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		trend  TrendDirection
		change float64
	}{
		{"empty", nil, TrendStable, 0},
		{"single", []float64{5}, TrendStable, 0},
		{"increasing", []float64{1, 2, 3, 4}, TrendIncreasing, 2},
		{"decreasing", []float64{10, 8, 6, 4}, TrendDecreasing, -4},
		{"flat", []float64{100, 100.2, 100.1, 100.3}, TrendStable, 0.1},
		{"odd length skips middle", []float64{1, 50, 3}, TrendIncreasing, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(tt.values)
			assert.Equal(t, len(tt.values), got.Count)
			assert.Equal(t, tt.trend, got.Trend)
			assert.InDelta(t, tt.change, got.Change, 1e-9)
		})
	}
}

func TestDescribe_Moments(t *testing.T) {
	got := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, got.Mean)
	assert.Equal(t, 2.0, got.Std)
	assert.Equal(t, 2.0, got.Min)
	assert.Equal(t, 9.0, got.Max)
}

func TestInsights(t *testing.T) {
	got := Insights("Delhi", RiskTriple{Flood: 10, Drought: 55, Heatwave: 130})
	require.Len(t, got, 3)

	assert.Equal(t, HazardFlood, got[0].Hazard)
	assert.Equal(t, RiskLow, got[0].Level)

	assert.Equal(t, HazardDrought, got[1].Hazard)
	assert.Equal(t, RiskHigh, got[1].Level)
	assert.True(t, strings.HasPrefix(got[1].Message, "Delhi: "))
	assert.True(t, strings.HasSuffix(got[1].Message, "(55%)"))

	assert.Equal(t, HazardHeatwave, got[2].Hazard)
	assert.Equal(t, 100.0, got[2].Probability)
	assert.Equal(t, RiskExtreme, got[2].Level)
}
