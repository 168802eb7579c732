package domain

import (
	"context"
	"log/slog"
	"time"
)

// RiskSource records where the base of a RiskTriple came from.
type RiskSource string

const (
	RiskSourceRemote   RiskSource = "remote"
	RiskSourceFallback RiskSource = "fallback"
)

// Status messages shown next to the risk gauges.
const (
	MLStatusOnline   = "ML API online"
	MLStatusOffline  = "ML API offline"
	MLStatusDisabled = "ML API disabled"
)

// RemoteRisk makes one best-effort call to predictor bounded by timeout.
// On any failure it logs and returns nil so callers fall back to local risk
// (graceful degradation). A nil predictor disables the call.
func RemoteRisk(ctx context.Context, predictor Predictor, state ClimateState, timeout time.Duration, logger *slog.Logger) (*RiskTriple, string) {
	if predictor == nil {
		return nil, MLStatusDisabled
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	risk, err := predictor.Predict(callCtx, state)
	if err != nil {
		logger.Warn("remote risk prediction failed, using fallback",
			"temperature", state.Temperature,
			"rainfall", state.Rainfall,
			"co2_level", state.CO2Level,
			"error", err,
		)
		return nil, MLStatusOffline
	}

	risk = risk.Clamp()
	return &risk, MLStatusOnline
}
