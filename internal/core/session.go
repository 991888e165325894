package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle session keeps its store.
const DefaultSessionTTL = 12 * time.Hour

// Session is one browser's working state: its record store and the gate
// that serializes imports and exports against that store.
type Session struct {
	ID string

	store *Store
	gate  *OperationGate

	mu       sync.Mutex
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		store:    NewStore(),
		gate:     newSessionGate(),
		lastSeen: now,
	}
}

// Store returns the session's record store.
func (s *Session) Store() *Store {
	return s.store
}

// LastSeen returns the last time the session was used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// begin claims the session for one store operation. The returned func
// releases it.
func (s *Session) begin(ctx context.Context) (func(), error) {
	return s.gate.Enter(ctx)
}

// SessionManager owns every live session, keyed by id.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionManager creates a manager that expires sessions idle for
// longer than ttl. A non-positive ttl selects DefaultSessionTTL.
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session for id and marks it used.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(m.now())
	return sess, nil
}

// Create starts a new, empty session with a fresh id.
func (m *SessionManager) Create() *Session {
	sess := newSession(uuid.NewString(), m.now())
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

// GetOrCreate returns the session for id, or a new session when id is
// unknown or empty. created reports which happened.
func (m *SessionManager) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, err := m.Get(id); err == nil {
			return sess, false
		}
	}
	return m.Create(), true
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *SessionManager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if sess.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper periodically removes idle sessions until ctx is cancelled.
// It is meant to run in its own goroutine.
func (m *SessionManager) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	slog.Info("session sweeper started", "ttl", m.ttl, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if removed := m.Sweep(); removed > 0 {
				slog.Info("expired idle sessions", "removed", removed, "remaining", m.Len())
			}
		}
	}
}
