package domain

import "slices"

// ImpactOf returns the climate deltas a slider contributes at the given value.
// Unknown slider kinds contribute nothing.
func ImpactOf(k SliderKind, value float64) ImpactVector {
	d, ok := sliders[k]
	if !ok {
		return ImpactVector{}
	}
	return d.impact.Scale(value)
}

// Adjust applies every impact to base and clamps the result once.
// Deltas are summed per field in sorted order, so any permutation of impacts
// produces a bit-identical state.
func Adjust(base ClimateState, impacts ...ImpactVector) ClimateState {
	temperature := make([]float64, 0, len(impacts))
	rainfall := make([]float64, 0, len(impacts))
	humidity := make([]float64, 0, len(impacts))
	co2 := make([]float64, 0, len(impacts))
	for _, iv := range impacts {
		temperature = append(temperature, iv.Temperature)
		rainfall = append(rainfall, iv.Rainfall)
		humidity = append(humidity, iv.Humidity)
		co2 = append(co2, iv.CO2Level)
	}

	return ClimateState{
		Temperature: base.Temperature + sortedSum(temperature),
		Rainfall:    base.Rainfall + sortedSum(rainfall),
		Humidity:    base.Humidity + sortedSum(humidity),
		CO2Level:    base.CO2Level + sortedSum(co2),
	}.Clamp()
}

func sortedSum(xs []float64) float64 {
	slices.Sort(xs)
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum
}
