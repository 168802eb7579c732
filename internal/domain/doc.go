// Package domain models the ClimateSphere scenario pipeline: regional climate
// baselines, policy scenario sliders, the adjusted climate state, hazard risk
// and projected time series.
//
// # Pipeline
//
//	region id ──► RegionTable.Lookup ──► baseline ClimateState
//	Selection ──► ImpactOf (per slider) ──► Adjust ──► adjusted ClimateState
//	adjusted state ──► Predictor (remote, best effort) ──► *RiskTriple or nil
//	adjusted state + remote ──► Aggregate ──► RiskTriple
//	adjusted state + remote ──► Projector.Project ──► Projection
//
// Nothing in this package is fatal. Unknown regions resolve to [DefaultBaseline],
// unknown targets to [TargetTemperature], and an unavailable remote predictor
// to [DefaultRisk] plus local climate stress.
//
// # Physical bounds
//
// Every ClimateState leaving [Adjust] is clamped once, after all deltas are
// summed:
//
//	temperature  -20 .. 60    °C
//	rainfall       0 .. 1000  mm
//	humidity       5 .. 100   %
//	co2Level     280 .. 1000  ppm
//
// # Canonical slider coefficients
//
// Impact per unit of slider value (blank = no effect):
//
//	slider               temperature  rainfall  humidity  co2Level
//	co2Reduction            -0.020                          -2.0
//	renewableEnergy         -0.015                          -1.5
//	urbanHeatControl        -0.030               +0.05
//	reforestation           -0.010     +0.80     +0.10      -1.0
//	waterConservation                  +0.30     +0.05
//	cloudSeeding                       +1.50     +0.20
//	irrigationExpansion     -0.005               +0.15
//	urbanGreening           -0.020               +0.10      -0.3
//	carbonCapture                                           -2.5
//	deforestationRate       +0.020     -0.90     -0.12      +1.8
//	protectedAreas                     +0.20                -0.5
//	methaneReduction        -0.025                          -0.5
//
// Earlier drafts of the dashboard used -0.01, -0.015 and -0.002 for the
// co2Reduction temperature coefficient. -0.02 is the value used here; it
// reproduces the reference case india-delhi + co2Reduction=40 → 31.2 °C, 370 ppm.
//
// Risk adjustment per unit of slider value, in percentage points:
//
//	slider               flood   drought  heatwave
//	co2Reduction         -0.05   -0.08    -0.15
//	renewableEnergy      -0.03   -0.05    -0.10
//	urbanHeatControl             -0.02    -0.20
//	reforestation        -0.15   -0.12    -0.08
//	waterConservation            -0.20    -0.02
//	cloudSeeding         +0.10   -0.25    -0.05
//	irrigationExpansion  +0.03   -0.15    -0.03
//	urbanGreening        -0.05   -0.05    -0.12
//	carbonCapture        -0.02   -0.04    -0.08
//	deforestationRate    +0.20   +0.18    +0.10
//	protectedAreas       -0.08   -0.06    -0.04
//	methaneReduction     -0.03   -0.05    -0.12
//
// # Projection derivations
//
// Starting values per target variable:
//
//	temperature    state.Temperature
//	rainfall       state.Rainfall
//	humidity       state.Humidity
//	co2            state.CO2Level
//	drought        max(0, 100 - rainfall/2)
//	deforestation  clamp((co2Level-280)/10 + max(0, 70-humidity)/2, 0, 100)
//	globalwarming  max(0, temperature - 15)
//
// Yearly growth is a hand-tuned linear heuristic of the adjusted state (for
// example temperature grows 0.02 °C/yr plus 0.0003 °C/yr per ppm above 400).
// A remote risk hint adds mean(risk)/100 × scale, steepening harmful
// variables and pulling rainfall and humidity down. Noise is uniform in
// ±amplitude and drawn from an injected [Noise] source so a fixed seed
// reproduces a projection exactly. The confidence band is ±12% of the value at
// the first step widening linearly to ±15% at the last.
package domain
