package domain

import "math"

// TrendDirection describes the change between the two halves of a series.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// Stats are descriptive statistics over a numeric series.
type Stats struct {
	Count  int            `json:"count"`
	Mean   float64        `json:"mean"`
	Min    float64        `json:"min"`
	Max    float64        `json:"max"`
	Std    float64        `json:"std"`
	Change float64        `json:"change"`
	Trend  TrendDirection `json:"trend"`
}

// Describe computes count, mean, min, max, population standard deviation and
// the half-over-half trend. Change is mean(second half) - mean(first half);
// a change under 1% of |mean| is stable.
func Describe(values []float64) Stats {
	st := Stats{Count: len(values), Trend: TrendStable}
	if len(values) == 0 {
		return st
	}

	st.Min, st.Max = values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}
	st.Mean = sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - st.Mean
		sq += d * d
	}
	st.Std = math.Sqrt(sq / float64(len(values)))

	half := len(values) / 2
	if half == 0 {
		return st
	}
	st.Change = mean(values[len(values)-half:]) - mean(values[:half])

	threshold := math.Abs(st.Mean) * 0.01
	switch {
	case st.Change > threshold:
		st.Trend = TrendIncreasing
	case st.Change < -threshold:
		st.Trend = TrendDecreasing
	}
	return st
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
