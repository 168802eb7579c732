package domain

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
)

// Confidence band half-width as a fraction of the projected value.
const (
	bandStart = 0.12
	bandEnd   = 0.15
)

// Projection is a projected yearly series with its confidence band.
type Projection struct {
	Target    TargetVariable `json:"target"`
	Unit      string         `json:"unit"`
	Labels    []string       `json:"labels"`
	Values    []float64      `json:"values"`
	UpperBand []float64      `json:"upperBand"`
	LowerBand []float64      `json:"lowerBand"`
}

// Len is the number of projected steps.
func (p Projection) Len() int { return len(p.Values) }

// Noise is a source of uniform values in [0, 1). *rand.Rand satisfies it.
type Noise interface {
	Float64() float64
}

// NewSeededNoise returns a deterministic noise source for seed.
func NewSeededNoise(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// YearsFromFloat converts a possibly fractional horizon to whole years.
func YearsFromFloat(years float64) int {
	if math.IsNaN(years) || years <= 0 {
		return 0
	}
	return int(math.Ceil(years))
}

// YearsFromMonths converts a monthly horizon to whole years.
func YearsFromMonths(months int) int {
	if months <= 0 {
		return 0
	}
	return (months + 11) / 12
}

type targetModel struct {
	unit      string
	bounds    Range
	noise     float64 // uniform noise amplitude per step
	riskSign  float64 // +1 steepens with risk, -1 dampens
	riskScale float64
	start     func(ClimateState) float64
	rate      func(ClimateState) float64
}

var targetModels = map[TargetVariable]targetModel{
	TargetTemperature: {
		unit: "°C", bounds: TemperatureRange, noise: 0.1, riskSign: 1, riskScale: 0.05,
		start: func(s ClimateState) float64 { return s.Temperature },
		rate:  temperatureRate,
	},
	TargetRainfall: {
		unit: "mm", bounds: RainfallRange, noise: 0.5, riskSign: -1, riskScale: 2,
		start: func(s ClimateState) float64 { return s.Rainfall },
		rate:  func(s ClimateState) float64 { return -0.5 - (s.Temperature-25)*0.1 },
	},
	TargetHumidity: {
		unit: "%", bounds: HumidityRange, noise: 0.3, riskSign: -1, riskScale: 0.2,
		start: func(s ClimateState) float64 { return s.Humidity },
		rate:  func(s ClimateState) float64 { return -0.05 - (s.Temperature-25)*0.01 },
	},
	TargetCO2: {
		unit: "ppm", bounds: CO2Range, noise: 0.5, riskSign: 1, riskScale: 1,
		start: func(s ClimateState) float64 { return s.CO2Level },
		rate:  func(s ClimateState) float64 { return 2 + (s.CO2Level-400)*0.005 },
	},
	TargetDrought: {
		unit: "index", bounds: Range{Min: 0, Max: 100}, noise: 0.4, riskSign: 1, riskScale: 0.5,
		start: func(s ClimateState) float64 { return math.Max(0, 100-s.Rainfall/2) },
		rate:  func(s ClimateState) float64 { return 0.3 + (s.Temperature-25)*0.05 },
	},
	TargetDeforestation: {
		unit: "index", bounds: Range{Min: 0, Max: 100}, noise: 0.3, riskSign: 1, riskScale: 0.5,
		start: func(s ClimateState) float64 {
			return Range{Min: 0, Max: 100}.Clamp((s.CO2Level-280)/10 + math.Max(0, 70-s.Humidity)/2)
		},
		rate: func(s ClimateState) float64 { return 0.4 + (s.CO2Level-400)*0.002 },
	},
	TargetGlobalWarming: {
		unit: "°C", bounds: Range{Min: 0, Max: 45}, noise: 0.1, riskSign: 1, riskScale: 0.05,
		start: func(s ClimateState) float64 { return math.Max(0, s.Temperature-15) },
		rate:  temperatureRate,
	},
}

// temperatureRate couples warming to CO₂ above the 400 ppm baseline.
func temperatureRate(s ClimateState) float64 {
	return 0.02 + (s.CO2Level-400)*0.0003
}

// UnitOf returns the display unit of a target variable.
func UnitOf(t TargetVariable) string {
	return targetModels[NormalizeTarget(string(t))].unit
}

// StartValue derives the starting scalar of target t from a climate state.
func StartValue(s ClimateState, t TargetVariable) float64 {
	return targetModels[NormalizeTarget(string(t))].start(s)
}

// Projector produces yearly projections labelled from StartYear+1 onward.
type Projector struct {
	StartYear int
	Noise     Noise // nil disables noise
}

// NewProjector creates a projector with the given first label year offset and
// noise source.
func NewProjector(startYear int, noise Noise) *Projector {
	return &Projector{StartYear: startYear, Noise: noise}
}

// Project steps target t forward years times from state. riskHint, when
// present, blends the mean remote risk into the growth rate. years <= 0
// returns an empty projection; unknown targets project temperature.
func (p *Projector) Project(state ClimateState, t TargetVariable, years int, riskHint *RiskTriple) Projection {
	t = NormalizeTarget(string(t))
	m := targetModels[t]

	if years < 0 {
		years = 0
	}
	proj := Projection{
		Target:    t,
		Unit:      m.unit,
		Labels:    make([]string, 0, years),
		Values:    make([]float64, 0, years),
		UpperBand: make([]float64, 0, years),
		LowerBand: make([]float64, 0, years),
	}
	if years == 0 {
		return proj
	}

	rate := m.rate(state)
	if riskHint != nil {
		rate += m.riskSign * riskHint.Clamp().Mean() / 100 * m.riskScale
	}

	value := m.start(state)
	for i := 0; i < years; i++ {
		value = m.bounds.Clamp(value + rate + p.noise(m.noise))

		spread := math.Abs(value) * bandWidth(i, years)

		proj.Labels = append(proj.Labels, strconv.Itoa(p.StartYear+i+1))
		proj.Values = append(proj.Values, value)
		proj.UpperBand = append(proj.UpperBand, value+spread)
		proj.LowerBand = append(proj.LowerBand, value-spread)
	}
	return proj
}

// bandWidth widens linearly from bandStart at the first step to bandEnd at
// the last.
func bandWidth(i, years int) float64 {
	if years <= 1 {
		return bandStart
	}
	return bandStart + (bandEnd-bandStart)*float64(i)/float64(years-1)
}

// BoundsOf returns the physical range a projection of t is clamped to.
func BoundsOf(t TargetVariable) Range {
	return targetModels[NormalizeTarget(string(t))].bounds
}

// Check verifies a projection's shape: parallel slices of equal length,
// values within the target's bounds and a band of the expected width around
// each value.
func (p Projection) Check() error {
	n := len(p.Values)
	if len(p.Labels) != n || len(p.UpperBand) != n || len(p.LowerBand) != n {
		return fmt.Errorf("projection length mismatch: labels=%d values=%d upper=%d lower=%d",
			len(p.Labels), n, len(p.UpperBand), len(p.LowerBand))
	}
	bounds := BoundsOf(p.Target)
	for i, v := range p.Values {
		if !bounds.Contains(v) {
			return fmt.Errorf("%s: value %.4f outside [%g, %g]", p.Labels[i], v, bounds.Min, bounds.Max)
		}
		want := math.Abs(v) * bandWidth(i, n)
		if math.Abs(p.UpperBand[i]-v-want) > 1e-6 || math.Abs(v-p.LowerBand[i]-want) > 1e-6 {
			return fmt.Errorf("%s: band [%.4f, %.4f] around %.4f, want half-width %.4f",
				p.Labels[i], p.LowerBand[i], p.UpperBand[i], v, want)
		}
	}
	return nil
}

// noise draws a uniform value in [-amplitude, amplitude).
func (p *Projector) noise(amplitude float64) float64 {
	if p.Noise == nil {
		return 0
	}
	return (p.Noise.Float64()*2 - 1) * amplitude
}
