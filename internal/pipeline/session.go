package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climatesphere/internal/domain"
	"github.com/couchcryptid/climatesphere/internal/observability"
)

var (
	// ErrSuperseded is returned by a run whose result was discarded because a
	// newer run of the same session started.
	ErrSuperseded = errors.New("simulation superseded by a newer run")

	// ErrSessionClosed is returned for operations on a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// SessionState is a point-in-time view of a session.
type SessionState struct {
	ID        string                 `json:"id"`
	Region    string                 `json:"region"`
	Target    domain.TargetVariable  `json:"target"`
	Sliders   []domain.SliderSetting `json:"sliders"`
	Years     int                    `json:"years"`
	Seed      uint64                 `json:"seed"`
	Pending   bool                   `json:"pending"`
	Running   bool                   `json:"running"`
	LastRun   *domain.Simulation     `json:"lastRun,omitempty"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Session holds the controller state of one interactive user: region,
// target, slider values and the last simulation. Slider edits are debounced;
// a new run cancels and discards the in-flight one (last write wins).
type Session struct {
	id       string
	sim      *Simulator
	debounce time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	baseCtx context.Context
	stop    context.CancelFunc

	mu         sync.Mutex
	region     string
	selection  domain.Selection
	years      int
	seed       uint64
	last       *domain.Simulation
	generation uint64
	cancelRun  context.CancelFunc
	timer      clockwork.Timer
	pendingSeq uint64
	lastUsed   time.Time
	closed     bool
}

func newSession(id string, sim *Simulator, region string, sel domain.Selection, years int, seed uint64, debounce time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Session {
	ctx, stop := context.WithCancel(context.Background())
	return &Session{
		id:        id,
		sim:       sim,
		debounce:  debounce,
		clock:     clock,
		logger:    logger.With("session", id),
		metrics:   metrics,
		baseCtx:   ctx,
		stop:      stop,
		region:    region,
		selection: sel,
		years:     years,
		seed:      seed,
		lastUsed:  clock.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		ID:        s.id,
		Region:    s.region,
		Target:    s.selection.Target(),
		Sliders:   s.selection.Settings(),
		Years:     s.years,
		Seed:      s.seed,
		Pending:   s.timer != nil,
		Running:   s.cancelRun != nil,
		LastRun:   s.last,
		UpdatedAt: s.lastUsed,
	}
}

// Result returns the most recent completed simulation.
func (s *Session) Result() (domain.Simulation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return domain.Simulation{}, false
	}
	return *s.last, true
}

// SetRegion switches the region and schedules a debounced run.
func (s *Session) SetRegion(region string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.region = region
	s.scheduleLocked()
	return nil
}

// SetTarget switches the target variable, resetting its sliders to defaults,
// and schedules a debounced run.
func (s *Session) SetTarget(t domain.TargetVariable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.selection = domain.DefaultSelection(t)
	s.scheduleLocked()
	return nil
}

// SetSlider changes one slider and schedules a debounced run. Unknown slider
// ids leave the session untouched.
func (s *Session) SetSlider(id string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	sel, err := s.selection.With(id, value)
	if err != nil {
		return err
	}
	s.selection = sel
	s.scheduleLocked()
	return nil
}

// SetYears changes the projection horizon and schedules a debounced run.
func (s *Session) SetYears(years int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.years = years
	s.scheduleLocked()
	return nil
}

// Run executes a simulation immediately, cancelling any pending debounce and
// any in-flight run. It returns ErrSuperseded if another run starts before
// this one completes.
func (s *Session) Run(ctx context.Context) (domain.Simulation, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Simulation{}, ErrSessionClosed
	}
	s.stopTimerLocked()
	gen, runCtx, in := s.beginLocked(ctx)
	s.mu.Unlock()

	sim, err := s.sim.Run(runCtx, in)
	return s.finish(gen, sim, err)
}

// Close cancels pending and in-flight work. Further edits fail.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.stop()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = s.clock.Now()
	s.mu.Unlock()
}

func (s *Session) scheduleLocked() {
	s.lastUsed = s.clock.Now()
	s.stopTimerLocked()
	s.pendingSeq++
	seq := s.pendingSeq
	s.timer = s.clock.AfterFunc(s.debounce, func() { s.fire(seq) })
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pendingSeq++
}

// fire runs the debounced simulation unless a newer edit rescheduled it.
func (s *Session) fire(seq uint64) {
	s.mu.Lock()
	if s.closed || seq != s.pendingSeq {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	gen, runCtx, in := s.beginLocked(s.baseCtx)
	s.mu.Unlock()

	sim, err := s.sim.Run(runCtx, in)
	if _, err := s.finish(gen, sim, err); err != nil && !errors.Is(err, ErrSuperseded) {
		s.logger.Debug("debounced run abandoned", "error", err)
	}
}

// beginLocked starts a new generation, cancelling the previous run.
func (s *Session) beginLocked(parent context.Context) (uint64, context.Context, domain.ScenarioInput) {
	s.generation++
	if s.cancelRun != nil {
		s.cancelRun()
	}
	runCtx, cancel := context.WithCancel(parent)
	s.cancelRun = cancel
	s.lastUsed = s.clock.Now()

	return s.generation, runCtx, domain.ScenarioInput{
		RegionID:  s.region,
		Selection: s.selection,
		Years:     s.years,
		Seed:      s.seed,
	}
}

func (s *Session) finish(gen uint64, sim domain.Simulation, err error) (domain.Simulation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.metrics.SupersededRuns.Inc()
		return domain.Simulation{}, ErrSuperseded
	}
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	if err != nil {
		return domain.Simulation{}, err
	}
	s.last = &sim
	return sim, nil
}
