package domain

import (
	"context"
	"errors"
)

var (
	// ErrRemoteUnavailable covers network errors, timeouts, non-2xx responses
	// and an open circuit breaker.
	ErrRemoteUnavailable = errors.New("remote predictor unavailable")

	// ErrMalformedResponse is returned when the remote body lacks expected fields.
	ErrMalformedResponse = errors.New("malformed remote predictor response")
)

// Predictor returns hazard risk for a climate state from an external model.
type Predictor interface {
	Predict(ctx context.Context, state ClimateState) (RiskTriple, error)
}

// HealthChecker reports the remote model service status.
type HealthChecker interface {
	Health(ctx context.Context) (MLHealth, error)
}

// MLHealth is the remote service's self-reported status.
type MLHealth struct {
	Status       string   `json:"status"`
	ModelsLoaded []string `json:"models_loaded"`
}
