package session

import (
	"context"
	"sync"
	"time"

	"github.com/ashvale/vesync-bridge/internal/vesync"
)

// Logger is the minimal logging interface the manager needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// State is the explicit session/backoff state.
//
// Invariant: Backoff stays within [base, max] (clamped to the auth
// ceiling after authentication-class failures), reset to base on
// successful login.
type State struct {
	LastLoginAt        time.Time
	LastLoginAttemptAt time.Time
	Backoff            time.Duration
	Failures           int
	LoggedIn           bool
}

// Config holds the session timing knobs.
type Config struct {
	// Freshness is how long a successful login is trusted before
	// EnsureLogin performs a fresh network login.
	Freshness time.Duration

	// BackoffBase is the initial backoff after the first failure.
	BackoffBase time.Duration

	// BackoffMax is the hard ceiling for network-class failures.
	BackoffMax time.Duration

	// BackoffAuthMax is the short ceiling for authentication-class
	// failures, so recovery after a credentials fix is fast.
	BackoffAuthMax time.Duration
}

// Manager owns login state, exponential backoff, and session-expiry
// recovery for the vendor client.
//
// Login is a process-wide critical section: only one login attempt is
// ever in flight, and concurrent EnsureLogin callers serialize behind
// the backoff/attempt state.
type Manager struct {
	mu     sync.Mutex
	client vesync.Client
	cfg    Config
	state  State
	logger Logger

	// Clock hooks, replaced in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a session manager around the vendor client.
// The backoff starts at the base value; no login is attempted until the
// first EnsureLogin call.
func New(client vesync.Client, cfg Config, logger Logger) *Manager {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Manager{
		client: client,
		cfg:    cfg,
		state:  State{Backoff: cfg.BackoffBase},
		logger: logger,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// EnsureLogin makes sure the session is authenticated.
//
// If force is false and the last successful login is within the
// freshness window, it returns true without a network call. Otherwise
// it waits out any remaining backoff window, attempts a login, and
// adjusts the backoff state:
//
//   - success: backoff resets to base, LastLoginAt is recorded
//   - authentication-class failure: backoff doubles but is clamped to
//     the short auth ceiling
//   - any other failure: backoff doubles up to the hard maximum
//
// Ordinary login failures never propagate as errors - the return value
// is false and the failure is logged. Context cancellation during the
// backoff wait also returns false.
//
// Parameters:
//   - ctx: Context for cancellation during the backoff wait
//   - force: Skip the freshness window and always attempt a login
//
// Returns:
//   - bool: true if the session is authenticated
func (m *Manager) EnsureLogin(ctx context.Context, force bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	// Freshness window short-circuit: no network call.
	if !force && m.state.LoggedIn && now.Sub(m.state.LastLoginAt) < m.cfg.Freshness {
		return true
	}

	// Wait out the remainder of the backoff window. Holding the lock
	// here is deliberate: it is what serializes concurrent callers
	// behind a single attempt.
	if !m.state.LastLoginAttemptAt.IsZero() {
		elapsed := now.Sub(m.state.LastLoginAttemptAt)
		if remaining := m.state.Backoff - elapsed; remaining > 0 {
			if err := m.sleep(ctx, remaining); err != nil {
				return false
			}
		}
	}

	m.state.LastLoginAttemptAt = m.now()

	ok, err := m.client.Login(ctx)
	if err == nil && !ok {
		err = vesync.ErrSoftFailure
	}
	if err != nil {
		m.recordFailure(err)
		return false
	}

	m.state.LoggedIn = true
	m.state.LastLoginAt = m.now()
	m.state.Backoff = m.cfg.BackoffBase
	m.state.Failures = 0
	m.logger.Info("logged in to vendor cloud")
	return true
}

// Invalidate marks the session as expired so the next EnsureLogin
// performs a fresh login. Called when a vendor call reports the
// session is no longer valid server-side.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LoggedIn = false
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// recordFailure classifies the login error and grows the backoff.
// Caller must hold m.mu.
func (m *Manager) recordFailure(err error) {
	m.state.LoggedIn = false
	m.state.Failures++

	class := vesync.Classify(err)

	// First failure waits the base; each further failure doubles.
	next := m.state.Backoff
	if m.state.Failures > 1 {
		next *= 2
	}
	if next < m.cfg.BackoffBase {
		next = m.cfg.BackoffBase
	}

	ceiling := m.cfg.BackoffMax
	if class == vesync.ClassAuth {
		// Short ceiling: a fixed password should not wait out a long
		// network-failure backoff.
		ceiling = m.cfg.BackoffAuthMax
	}
	if next > ceiling {
		next = ceiling
	}
	m.state.Backoff = next

	m.logger.Warn("login failed",
		"class", class.String(),
		"backoff", m.state.Backoff,
		"error", err,
	)
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
