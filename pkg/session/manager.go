package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/automata"
	"github.com/aretw0/automata/internal/logging"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/ports"
)

// ErrMachineMismatch is returned when a session is fed with a different
// machine than the one it was started with.
var ErrMachineMismatch = errors.New("session belongs to another machine")

// DefaultHistoryLimit bounds the number of states kept in Run.History.
const DefaultHistoryLimit = 256

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Result is the outcome of a feed: the persisted run and the output of the
// state it stands in.
type Result struct {
	Run    *domain.Run
	Output any
	// Trap is set instead of Output when the state is mapped to a Raise signal.
	Trap *domain.TrapStateError
}

// Manager feeds machines incrementally across calls, persisting where each
// session stands. Feeds of the same session are serialized; reference counting
// garbage collects unused locks.
type Manager struct {
	store   ports.RunStore
	catalog ports.Catalog

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	history int
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

// WithLockTTL bounds how long a crashed replica keeps a distributed lock (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithHistoryLimit sets how many visited states are kept per run.
// Zero or less keeps none.
func WithHistoryLimit(n int) Option {
	return func(m *Manager) {
		m.history = n
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new session Manager over a store and a catalog of machines.
func NewManager(store ports.RunStore, catalog ports.Catalog, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		catalog: catalog,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		history: DefaultHistoryLimit,
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

// Start begins a new run of machine for sessionID, replacing any previous run.
func (m *Manager) Start(ctx context.Context, sessionID, machine string) (*Result, error) {
	var res *Result
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		fsm, err := m.catalog.New(machine)
		if err != nil {
			return err
		}
		run := domain.NewRun(sessionID, machine, fsm.InitialState())
		m.trim(run)
		if err := m.store.Save(ctx, sessionID, run); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		res = m.result(ctx, fsm, run)
		return nil
	})
	return res, err
}

// Feed applies input to the session, starting it with machine if it does not
// exist yet. machine may be empty for an existing session.
//
// Input is split with the machine's splitter and stepped symbol by symbol from
// the stored state. A rejected symbol fails the whole feed and leaves the
// stored run unchanged.
func (m *Manager) Feed(ctx context.Context, sessionID, machine string, input any) (*Result, error) {
	var res *Result
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		run, err := m.store.Load(ctx, sessionID)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			if machine == "" {
				return err
			}
			run = nil
		case err != nil:
			return fmt.Errorf("failed to load session: %w", err)
		case machine != "" && machine != run.Machine:
			return fmt.Errorf("%w: %s is running %s", ErrMachineMismatch, sessionID, run.Machine)
		}

		name := machine
		if run != nil {
			name = run.Machine
		}
		fsm, err := m.catalog.New(name)
		if err != nil {
			return err
		}
		if run == nil {
			run = domain.NewRun(sessionID, name, fsm.InitialState())
		}
		if err := fsm.Restore(run.State); err != nil {
			return fmt.Errorf("session %s: %w", sessionID, err)
		}

		symbols, err := fsm.Split(input)
		if err != nil {
			return err
		}
		for i, symbol := range symbols {
			if err := fsm.Step(ctx, symbol); err != nil {
				var nt *domain.NoTransitionError
				if errors.As(err, &nt) {
					nt.Index = i
				}
				return err
			}
			run.History = append(run.History, fsm.CurrentState().Name)
		}

		run.State = fsm.CurrentState()
		run.Steps += len(symbols)
		run.UpdatedAt = time.Now()
		m.trim(run)

		if err := m.store.Save(ctx, sessionID, run); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		m.logger.Debug("session fed", "session_id", sessionID, "machine", run.Machine,
			"symbols", len(symbols), "state", run.State.Name)

		res = m.result(ctx, fsm, run)
		return nil
	})
	return res, err
}

// Get returns where the session stands and the output of that state.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Result, error) {
	var res *Result
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		run, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		fsm, err := m.catalog.New(run.Machine)
		if err != nil {
			return err
		}
		if err := fsm.Restore(run.State); err != nil {
			return fmt.Errorf("session %s: %w", sessionID, err)
		}
		res = m.result(ctx, fsm, run)
		return nil
	})
	return res, err
}

// Load retrieves an existing run from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Run, error) {
	var run *domain.Run
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		run, err = m.store.Load(ctx, sessionID)
		return err
	})
	return run, err
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

// Store returns the underlying run store.
func (m *Manager) Store() ports.RunStore {
	return m.store
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

func (m *Manager) result(ctx context.Context, fsm *automata.Machine, run *domain.Run) *Result {
	res := &Result{Run: run}
	out, err := fsm.Output(ctx)
	var trap *domain.TrapStateError
	if errors.As(err, &trap) {
		res.Trap = trap
		return res
	}
	res.Output = out
	return res
}

func (m *Manager) trim(run *domain.Run) {
	if m.history <= 0 {
		run.History = nil
		return
	}
	if over := len(run.History) - m.history; over > 0 {
		run.History = append([]string(nil), run.History[over:]...)
	}
}
