package mlapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/climatesphere/internal/domain"
	"github.com/couchcryptid/climatesphere/internal/observability"
)

// Options tune the HTTP timeout and circuit breaker.
type Options struct {
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client implements domain.Predictor and domain.HealthChecker against the ML
// prediction API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[domain.RiskTriple]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an ML API client rooted at baseURL.
func NewClient(baseURL string, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker:    newBreaker(opts, logger),
		metrics:    metrics,
		logger:     logger,
	}
}

func newBreaker(opts Options, logger *slog.Logger) *gobreaker.CircuitBreaker[domain.RiskTriple] {
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	return gobreaker.NewCircuitBreaker[domain.RiskTriple](gobreaker.Settings{
		Name:        "ml-api",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A run cancelled because a newer one superseded it says nothing
		// about the remote service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Predict posts the climate state to /predict and returns hazard risk in
// percent. An open breaker fails fast with domain.ErrRemoteUnavailable.
func (c *Client) Predict(ctx context.Context, state domain.ClimateState) (domain.RiskTriple, error) {
	start := time.Now()
	risk, err := c.breaker.Execute(func() (domain.RiskTriple, error) {
		return c.predict(ctx, state)
	})
	c.metrics.PredictorDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.PredictorRequests.WithLabelValues("rejected").Inc()
		c.metrics.MLAvailable.Set(0)
		return domain.RiskTriple{}, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	case err != nil:
		c.metrics.PredictorRequests.WithLabelValues("error").Inc()
		c.metrics.MLAvailable.Set(0)
		return domain.RiskTriple{}, err
	}

	c.metrics.PredictorRequests.WithLabelValues("success").Inc()
	c.metrics.MLAvailable.Set(1)
	return risk, nil
}

func (c *Client) predict(ctx context.Context, state domain.ClimateState) (domain.RiskTriple, error) {
	body, err := json.Marshal(predictRequest{
		Temperature: state.Temperature,
		Rainfall:    state.Rainfall,
		Humidity:    state.Humidity,
		CO2Level:    state.CO2Level,
	})
	if err != nil {
		return domain.RiskTriple{}, fmt.Errorf("encode predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return domain.RiskTriple{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RiskTriple{}, fmt.Errorf("%w: predict request: %w", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.RiskTriple{}, fmt.Errorf("%w: status %d: %s", domain.ErrRemoteUnavailable, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return domain.RiskTriple{}, fmt.Errorf("%w: decode: %w", domain.ErrMalformedResponse, err)
	}
	return pr.risk()
}

// Health queries /health. It bypasses the breaker so the status indicator
// notices recovery even while predictions are short-circuited.
func (c *Client) Health(ctx context.Context) (domain.MLHealth, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return domain.MLHealth{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.MLHealth{}, fmt.Errorf("%w: health request: %w", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.MLHealth{}, fmt.Errorf("%w: health status %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}

	var h domain.MLHealth
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return domain.MLHealth{}, fmt.Errorf("%w: decode health: %w", domain.ErrMalformedResponse, err)
	}
	if h.ModelsLoaded == nil {
		h.ModelsLoaded = []string{}
	}
	return h, nil
}

// ML API wire types.

type predictRequest struct {
	Temperature float64 `json:"temperature"`
	Rainfall    float64 `json:"rainfall"`
	Humidity    float64 `json:"humidity"`
	CO2Level    float64 `json:"co2_level"`
}

type predictResponse struct {
	Predictions map[string]*hazardPrediction `json:"predictions"`
}

type hazardPrediction struct {
	RiskProbability *float64 `json:"risk_probability"`
}

func (r predictResponse) risk() (domain.RiskTriple, error) {
	flood, err := r.probability("flood")
	if err != nil {
		return domain.RiskTriple{}, err
	}
	drought, err := r.probability("drought")
	if err != nil {
		return domain.RiskTriple{}, err
	}
	heatwave, err := r.probability("heatwave")
	if err != nil {
		return domain.RiskTriple{}, err
	}
	return domain.RiskTriple{Flood: flood, Drought: drought, Heatwave: heatwave}.Clamp(), nil
}

func (r predictResponse) probability(hazard string) (float64, error) {
	p, ok := r.Predictions[hazard]
	if !ok || p == nil || p.RiskProbability == nil {
		return 0, fmt.Errorf("%w: missing %s risk_probability", domain.ErrMalformedResponse, hazard)
	}
	return normalizeProbability(*p.RiskProbability), nil
}

// normalizeProbability converts a fraction in [0,1] to percent; larger values
// are already percentages.
func normalizeProbability(p float64) float64 {
	if p <= 1 {
		return p * 100
	}
	return p
}
