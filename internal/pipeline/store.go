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

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// StoreOptions configure session behaviour.
type StoreOptions struct {
	Debounce     time.Duration
	TTL          time.Duration
	DefaultYears int
	Clock        clockwork.Clock // nil uses the real clock
}

// NewSessionParams seed a new session. Zero values take defaults.
type NewSessionParams struct {
	Region string
	Target domain.TargetVariable
	Years  int
	Seed   *uint64
}

// Store owns the live sessions and expires idle ones.
type Store struct {
	sim     *Simulator
	opts    StoreOptions
	logger  *slog.Logger
	metrics *observability.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore(sim *Simulator, opts StoreOptions, logger *slog.Logger, metrics *observability.Metrics) *Store {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.DefaultYears <= 0 {
		opts.DefaultYears = 10
	}
	return &Store{
		sim:      sim,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with defaults applied.
func (st *Store) Create(p NewSessionParams) *Session {
	years := p.Years
	if years <= 0 {
		years = st.opts.DefaultYears
	}
	seed := NewSeed()
	if p.Seed != nil {
		seed = *p.Seed
	}

	id := uuid.NewString()
	sess := newSession(id, st.sim, p.Region, domain.DefaultSelection(p.Target), years, seed,
		st.opts.Debounce, st.opts.Clock, st.logger, st.metrics)

	st.mu.Lock()
	st.sessions[id] = sess
	n := len(st.sessions)
	st.mu.Unlock()

	st.metrics.ActiveSessions.Set(float64(n))
	st.logger.Debug("session created", "session", id, "region", p.Region, "target", sess.State().Target)
	return sess
}

// Get returns a live session and marks it as used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch()
	return sess, nil
}

// Delete closes and removes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	n := len(st.sessions)
	st.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.Close()
	st.metrics.ActiveSessions.Set(float64(n))
	return nil
}

// Len is the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were removed.
func (st *Store) Sweep() int {
	cutoff := st.opts.Clock.Now().Add(-st.opts.TTL)

	var expired []*Session
	st.mu.Lock()
	for id, sess := range st.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(st.sessions, id)
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		st.logger.Info("expired idle sessions", "count", len(expired), "active", n)
	}
	st.metrics.ActiveSessions.Set(float64(n))
	return len(expired)
}

// RunJanitor sweeps expired sessions every half TTL until ctx is cancelled,
// then closes every remaining session.
func (st *Store) RunJanitor(ctx context.Context) error {
	interval := st.opts.TTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := st.opts.Clock.NewTicker(interval)
	defer ticker.Stop()

	st.logger.Info("session janitor started", "ttl", st.opts.TTL)
	for {
		select {
		case <-ctx.Done():
			st.closeAll()
			st.logger.Info("session janitor stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			st.Sweep()
		}
	}
}

func (st *Store) closeAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
	st.metrics.ActiveSessions.Set(0)
}
