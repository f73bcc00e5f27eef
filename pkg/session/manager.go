package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/Lokiragnarock/srm-cia-survey/internal/logging"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock survives a
// crashed holder.
const DefaultLockTTL = 30 * time.Second

// ErrSubmitFailed wraps sink errors. The terminal state stays in the store
// and Submit retries it.
var ErrSubmitFailed = errors.New("submission not accepted")

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Outcome is the result of a state-changing call.
type Outcome struct {
	// Previous is the state before the call, nil for Start.
	Previous *domain.State
	// State is the state after the call.
	State *domain.State
	// Submission is set once the session reached Terminal and was handed to the sink.
	Submission *domain.Submission
}

// Manager orchestrates respondent sessions: it loads state, applies one
// engine transition, saves the result and hands finished sessions to the
// sink. Calls for the same session id are serialized.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	engine ports.SurveyEngine
	store  ports.StateStore
	sink   ports.SubmissionSink

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	keep    bool
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithSink sets where finished sessions are submitted.
func WithSink(sink ports.SubmissionSink) Option {
	return func(m *Manager) {
		m.sink = sink
	}
}

// WithKeepFinished keeps terminal sessions in the store instead of deleting them after submission.
func WithKeepFinished() Option {
	return func(m *Manager) {
		m.keep = true
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager over an engine and a state store.
func NewManager(engine ports.SurveyEngine, store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		engine:  engine,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Engine returns the engine sessions are driven with.
func (m *Manager) Engine() ports.SurveyEngine {
	return m.engine
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// Start begins a new session. An existing session with the same id is
// replaced.
func (m *Manager) Start(ctx context.Context, sessionID string) (*Outcome, error) {
	var out *Outcome
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := m.engine.Start(ctx, sessionID)
		if err != nil {
			return err
		}
		out = &Outcome{State: state}
		return m.commit(ctx, out)
	})
	return out, err
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// LoadOrStart resumes a session, starting it when the store has none.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*Outcome, error) {
	var out *Outcome
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := m.store.Load(ctx, sessionID)
		if err == nil {
			out = &Outcome{State: state}
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		state, err = m.engine.Start(ctx, sessionID)
		if err != nil {
			return err
		}
		out = &Outcome{State: state}
		return m.commit(ctx, out)
	})
	return out, err
}

// Advance answers the current node of a stored session.
func (m *Manager) Advance(ctx context.Context, sessionID, answer string) (*Outcome, error) {
	var out *Outcome
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		prev, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		next, err := m.engine.Advance(ctx, prev, answer)
		if err != nil {
			return err
		}
		out = &Outcome{Previous: prev, State: next}
		return m.commit(ctx, out)
	})
	return out, err
}

// Retreat undoes the last step of a stored session. The boolean is false
// when there was nothing to undo.
func (m *Manager) Retreat(ctx context.Context, sessionID string) (*Outcome, bool, error) {
	var (
		out    *Outcome
		undone bool
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		prev, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		next, ok, err := m.engine.Retreat(ctx, prev)
		if err != nil {
			return err
		}
		undone = ok
		out = &Outcome{Previous: prev, State: next}
		if !ok {
			return nil
		}
		return m.store.Save(ctx, sessionID, next)
	})
	return out, undone, err
}

// Submit hands a stored terminal session to the sink again, typically after
// the sink failed on the step that finished it.
func (m *Manager) Submit(ctx context.Context, sessionID string) (*Outcome, error) {
	var out *Outcome
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if !state.IsTerminal() {
			return domain.ErrNotTerminal
		}
		out = &Outcome{Previous: state, State: state}
		return m.commit(ctx, out)
	})
	return out, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// commit saves an in-progress state, or submits a terminal one.
func (m *Manager) commit(ctx context.Context, out *Outcome) error {
	state := out.State
	if !state.IsTerminal() {
		return m.store.Save(ctx, state.SessionID, state)
	}

	sub, err := m.engine.Submission(ctx, state)
	if err != nil {
		return err
	}
	if m.sink != nil {
		if err := m.sink.Submit(ctx, sub); err != nil {
			// Keep the finished state so the submission can be retried.
			if err := m.store.Save(ctx, state.SessionID, state); err != nil {
				m.logger.Warn("failed to keep unsubmitted session", "session_id", state.SessionID, "err", err)
			}
			return fmt.Errorf("%w: session %s: %w", ErrSubmitFailed, state.SessionID, err)
		}
	}
	m.engine.Submitted(ctx, sub)
	out.Submission = sub
	m.logger.Info("session submitted", "session_id", state.SessionID, "steps", len(state.Path))

	if m.keep {
		return m.store.Save(ctx, state.SessionID, state)
	}
	return m.store.Delete(ctx, state.SessionID)
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
