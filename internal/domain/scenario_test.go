package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		input    string
		expected TargetVariable
		ok       bool
	}{
		{"temperature", TargetTemperature, true},
		{" Rainfall ", TargetRainfall, true},
		{"CO2", TargetCO2, true},
		{"globalwarming", TargetGlobalWarming, true},
		{"sunshine", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTarget(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeTarget_FallsBackToTemperature(t *testing.T) {
	assert.Equal(t, TargetTemperature, NormalizeTarget("sea-level"))
	assert.Equal(t, TargetDrought, NormalizeTarget("drought"))
}

func TestSlidersFor(t *testing.T) {
	defs := SlidersFor(TargetTemperature)
	require.Len(t, defs, 3)
	assert.Equal(t, SliderCO2Reduction, defs[0].Kind)
	assert.Equal(t, SliderRenewableEnergy, defs[1].Kind)
	assert.Equal(t, SliderUrbanHeatControl, defs[2].Kind)

	for _, target := range Targets {
		assert.NotEmpty(t, SlidersFor(target), "target %s has no sliders", target)
	}
}

func TestDefaultSelection(t *testing.T) {
	sel := DefaultSelection(TargetRainfall)

	assert.Equal(t, TargetRainfall, sel.Target())
	settings := sel.Settings()
	require.Len(t, settings, 3)
	for _, st := range settings {
		assert.Equal(t, 0.0, st.Value)
	}

	// Default selection leaves the baseline untouched.
	base := DefaultBaseline
	assert.Equal(t, base, Adjust(base, sel.Impacts()...))
}

func TestNewSelection(t *testing.T) {
	t.Run("applies values in display order", func(t *testing.T) {
		sel, err := NewSelection(TargetTemperature, map[string]float64{
			"urbanHeatControl": 10,
			"co2Reduction":     40,
		})
		require.NoError(t, err)
		assert.Equal(t, []SliderSetting{
			{Slider: SliderCO2Reduction, Value: 40},
			{Slider: SliderRenewableEnergy, Value: 0},
			{Slider: SliderUrbanHeatControl, Value: 10},
		}, sel.Settings())
	})

	t.Run("clamps to slider range", func(t *testing.T) {
		sel, err := NewSelection(TargetRainfall, map[string]float64{"cloudSeeding": 80, "reforestation": -5})
		require.NoError(t, err)
		v, _ := sel.Value(SliderCloudSeeding)
		assert.Equal(t, 50.0, v)
		v, _ = sel.Value(SliderReforestation)
		assert.Equal(t, 0.0, v)
	})

	t.Run("rejects typo", func(t *testing.T) {
		_, err := NewSelection(TargetTemperature, map[string]float64{"co2Reductoin": 40})
		require.ErrorIs(t, err, ErrUnknownSlider)
	})

	t.Run("rejects slider of another target", func(t *testing.T) {
		_, err := NewSelection(TargetTemperature, map[string]float64{"cloudSeeding": 10})
		require.ErrorIs(t, err, ErrUnknownSlider)
	})

	t.Run("rejects NaN", func(t *testing.T) {
		_, err := NewSelection(TargetTemperature, map[string]float64{"co2Reduction": math.NaN()})
		require.ErrorIs(t, err, ErrInvalidSliderValue)
	})

	t.Run("unknown target uses temperature sliders", func(t *testing.T) {
		sel, err := NewSelection("unknown", map[string]float64{"co2Reduction": 5})
		require.NoError(t, err)
		assert.Equal(t, TargetTemperature, sel.Target())
	})
}

func TestSelection_WithDoesNotMutate(t *testing.T) {
	orig := DefaultSelection(TargetCO2)
	changed, err := orig.With("carbonCapture", 30)
	require.NoError(t, err)

	v, _ := orig.Value(SliderCarbonCapture)
	assert.Equal(t, 0.0, v)
	v, _ = changed.Value(SliderCarbonCapture)
	assert.Equal(t, 30.0, v)
}

func TestSlider(t *testing.T) {
	d, ok := Slider(SliderReforestation)
	require.True(t, ok)
	assert.Equal(t, "Reforestation", d.Label)
	assert.Equal(t, Range{0, 100}, d.Range)

	_, ok = Slider("warpDrive")
	assert.False(t, ok)
}
