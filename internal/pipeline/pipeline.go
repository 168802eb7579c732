package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climatesphere/internal/domain"
	"github.com/couchcryptid/climatesphere/internal/observability"
)

// SnapshotPublisher receives every completed simulation.
type SnapshotPublisher interface {
	Publish(ctx context.Context, sim domain.Simulation) error
}

// Defaults applied by NewSimulator to unset SimulatorOptions fields.
const (
	DefaultPublishTimeout  = 5 * time.Second
	DefaultMaxPublishQueue = 64
)

// SimulatorOptions configures a Simulator.
type SimulatorOptions struct {
	// PredictTimeout bounds each remote predictor call.
	PredictTimeout time.Duration
	// PublishTimeout bounds each background snapshot publish.
	PublishTimeout time.Duration
	// MaxPublishQueue caps in-flight publishes. Snapshots beyond it are dropped.
	MaxPublishQueue int
	Clock           clockwork.Clock
}

// Simulator runs the scenario pipeline and records the outcome.
type Simulator struct {
	regions   *domain.RegionTable
	predictor domain.Predictor
	publisher SnapshotPublisher
	opts      SimulatorOptions
	logger    *slog.Logger
	metrics   *observability.Metrics

	publishSlots chan struct{}
	publishing   sync.WaitGroup
}

// NewSimulator creates a Simulator. predictor and publisher may be nil to
// disable the remote model and snapshot publishing respectively.
func NewSimulator(regions *domain.RegionTable, predictor domain.Predictor, publisher SnapshotPublisher, opts SimulatorOptions, logger *slog.Logger, metrics *observability.Metrics) *Simulator {
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	if opts.MaxPublishQueue <= 0 {
		opts.MaxPublishQueue = DefaultMaxPublishQueue
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Simulator{
		regions:      regions,
		predictor:    predictor,
		publisher:    publisher,
		opts:         opts,
		logger:       logger,
		metrics:      metrics,
		publishSlots: make(chan struct{}, opts.MaxPublishQueue),
	}
}

// Regions returns the region table the simulator reads baselines from.
func (s *Simulator) Regions() *domain.RegionTable { return s.regions }

// Predictor returns the remote predictor, or nil when disabled.
func (s *Simulator) Predictor() domain.Predictor { return s.predictor }

// Timeout bounds each remote predictor call.
func (s *Simulator) Timeout() time.Duration { return s.opts.PredictTimeout }

// CheckReadiness returns nil once a non-empty region table is loaded.
func (s *Simulator) CheckReadiness(_ context.Context) error {
	if s.regions == nil || s.regions.Len() == 0 {
		return errors.New("region table not loaded")
	}
	return nil
}

// Run executes one simulation. The only error is ctx's, returned when the run
// was cancelled before it completed; the partial result is discarded.
func (s *Simulator) Run(ctx context.Context, in domain.ScenarioInput) (domain.Simulation, error) {
	start := time.Now()
	if in.Now.IsZero() {
		in.Now = s.opts.Clock.Now()
	}

	sim := domain.RunScenario(ctx, s.regions, s.predictor, s.opts.PredictTimeout, in, s.logger)
	if err := ctx.Err(); err != nil {
		return domain.Simulation{}, err
	}
	sim.ID = uuid.NewString()

	s.metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	s.metrics.SimulationsTotal.WithLabelValues(string(sim.Target)).Inc()
	s.metrics.RiskSource.WithLabelValues(string(sim.RiskSource)).Inc()

	s.logger.Debug("simulation complete",
		"id", sim.ID,
		"region", sim.RegionID,
		"target", sim.Target,
		"years", sim.Years,
		"risk_source", sim.RiskSource,
	)

	s.publish(sim)
	return sim, nil
}

// publish hands sim to the publisher on a background goroutine with its own
// deadline, detached from the caller's context.
func (s *Simulator) publish(sim domain.Simulation) {
	if s.publisher == nil {
		return
	}
	select {
	case s.publishSlots <- struct{}{}:
	default:
		s.metrics.SnapshotsPublished.WithLabelValues("dropped").Inc()
		s.logger.Warn("publish queue full, dropping snapshot", "id", sim.ID)
		return
	}

	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		defer func() { <-s.publishSlots }()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PublishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, sim); err != nil {
			s.metrics.SnapshotsPublished.WithLabelValues("error").Inc()
			s.logger.Warn("publish snapshot failed", "id", sim.ID, "error", err)
			return
		}
		s.metrics.SnapshotsPublished.WithLabelValues("success").Inc()
	}()
}

// Flush blocks until every in-flight snapshot publish has finished. Each
// publish is bounded by PublishTimeout.
func (s *Simulator) Flush() {
	s.publishing.Wait()
}

// NewSeed derives a noise seed from the wall clock for requests that do not
// carry one.
func NewSeed() uint64 {
	return uint64(time.Now().UnixNano())
}
