package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"seswa/internal/domain"
	"seswa/internal/metrics"
	"seswa/internal/pkg/logger"
)

// ErrClosedWhileOpening is returned to callers waiting on a session that was
// closed before it finished opening.
var ErrClosedWhileOpening = errors.New("session: closed while opening")

// Manager keeps at most one open Session per user. Sessions left unused for
// longer than Deps.IdleTimeout are closed by Sweep.
type Manager struct {
	deps Deps
	log  *zap.Logger
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// entry is ready once ready is closed; s is set under mu, err before close.
type entry struct {
	s        *Session
	err      error
	ready    chan struct{}
	lastUsed time.Time
}

func NewManager(deps Deps) *Manager {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		deps:     deps,
		log:      logger.OrNop(deps.Logger),
		now:      now,
		sessions: make(map[string]*entry),
	}
}

// GetOrOpen returns the user's open session, opening it first if needed.
// Opening happens outside the manager lock; concurrent callers for the same
// user wait for the same open.
func (m *Manager) GetOrOpen(ctx context.Context, cu domain.CurrentUser) (*Session, error) {
	if !cu.Active() {
		return nil, ErrNotAuthenticated
	}

	m.mu.Lock()
	e, ok := m.sessions[cu.ID]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		m.sessions[cu.ID] = e
	}
	m.mu.Unlock()

	if !ok {
		m.open(ctx, cu, e)
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}

	m.mu.Lock()
	e.lastUsed = m.now()
	m.mu.Unlock()
	return e.s, nil
}

func (m *Manager) open(ctx context.Context, cu domain.CurrentUser, e *entry) {
	defer close(e.ready)

	// other callers may be waiting on this open
	s, err := Open(context.WithoutCancel(ctx), m.deps, cu)

	m.mu.Lock()
	current := m.sessions[cu.ID] == e
	if err != nil {
		if current {
			delete(m.sessions, cu.ID)
		}
		m.mu.Unlock()
		e.err = err
		return
	}
	if !current {
		m.mu.Unlock()
		s.Close()
		e.err = ErrClosedWhileOpening
		return
	}
	e.s = s
	e.lastUsed = m.now()
	metrics.SessionsActive.Inc()
	m.mu.Unlock()
}

func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[userID]
	if !ok || e.s == nil {
		return nil, false
	}
	return e.s, true
}

// Close closes and forgets the user's session. It reports whether one was
// open.
func (m *Manager) Close(userID string) bool {
	m.mu.Lock()
	e, ok := m.sessions[userID]
	if !ok || e.s == nil {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, userID)
	m.mu.Unlock()

	e.s.Close()
	metrics.SessionsActive.Dec()
	return true
}

// CloseAll closes every open session, persisting pending state. Sessions still
// opening are closed by their opener.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	closed := 0
	for _, e := range all {
		if s := m.ready(e); s != nil {
			s.Close()
			metrics.SessionsActive.Dec()
			closed++
		}
	}
	m.log.Info("all sessions closed", zap.Int("count", closed))
}

// ready returns e's session, or nil while it is still opening.
func (m *Manager) ready(e *entry) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return e.s
}

// Sweep closes sessions unused since now minus the idle timeout. A user with a
// live realtime connection counts as active. It returns how many sessions were
// closed.
func (m *Manager) Sweep(now time.Time) int {
	if m.deps.IdleTimeout <= 0 {
		return 0
	}

	m.mu.Lock()
	var idle []*Session
	for id, e := range m.sessions {
		if e.s == nil {
			continue
		}
		if m.deps.Hub != nil && m.deps.Hub.Connections(id) > 0 {
			e.lastUsed = now
			continue
		}
		if now.Sub(e.lastUsed) > m.deps.IdleTimeout {
			delete(m.sessions, id)
			idle = append(idle, e.s)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
		metrics.SessionsActive.Dec()
	}
	if len(idle) > 0 {
		m.log.Info("idle sessions closed", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.sessions {
		if e.s != nil {
			n++
		}
	}
	return n
}

// Sessions returns a snapshot of the open sessions.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		if e.s != nil {
			out = append(out, e.s)
		}
	}
	return out
}
