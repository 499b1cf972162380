package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/bug-fixer/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is awaiting a reply")
)

// SessionGauge tracks how many sessions are held in memory.
type SessionGauge interface {
	SetActiveSessions(n int)
}

type entry struct {
	session  chat.Session
	lastSeen time.Time
}

// Service keeps one session per interactive client and serialises the
// submissions made against each of them.
type Service struct {
	mu       sync.RWMutex
	driver   *Driver
	sessions map[string]*entry
	gauge    SessionGauge
	now      func() time.Time
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithSessionGauge reports the session count to g after every change.
func WithSessionGauge(g SessionGauge) ServiceOption {
	return func(s *Service) { s.gauge = g }
}

// WithServiceClock replaces time.Now, for tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService bootstraps the in-memory session registry.
func NewService(driver *Driver, opts ...ServiceOption) *Service {
	s := &Service{
		driver:   driver,
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession provisions a session seeded with the welcome turn.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	session := s.driver.NewSession(uuid.NewString())

	s.mu.Lock()
	s.sessions[session.ID] = &entry{session: session, lastSeen: s.now()}
	count := len(s.sessions)
	s.mu.Unlock()

	s.reportCount(count)
	return session.Clone(), nil
}

// GetSession retrieves a session by identifier and marks it as seen.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return e.session.Clone(), nil
}

// Submit runs one user submission against the session. The session is
// awaiting-reply until the completion call returns; concurrent Submit or
// Reset calls fail with ErrSessionBusy meanwhile. Cancelling ctx does not
// abort the call once started.
func (s *Service) Submit(ctx context.Context, sessionID, text string) (chat.Session, error) {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return chat.Session{}, ErrSessionNotFound
	}
	if e.session.State == chat.StateAwaitingReply {
		s.mu.Unlock()
		return chat.Session{}, ErrSessionBusy
	}
	current := e.session.Clone()
	e.session.State = chat.StateAwaitingReply
	e.lastSeen = s.now()
	s.mu.Unlock()

	stored := false
	defer func() {
		if stored {
			return
		}
		// the driver panicked; hand the untouched session back as idle
		s.mu.Lock()
		e.session = current
		e.lastSeen = s.now()
		s.mu.Unlock()
		log.Printf("[chat] submission aborted session=%s", sessionID)
	}()

	next := s.driver.Submit(context.WithoutCancel(ctx), current, text)

	s.mu.Lock()
	// busy sessions are never evicted, so e is still registered
	e.session = next
	e.lastSeen = s.now()
	s.mu.Unlock()
	stored = true

	log.Printf("[chat] submission handled session=%s, turns=%d", sessionID, next.Len())
	return next.Clone(), nil
}

// Reset replaces the session history with the cleared greeting.
func (s *Service) Reset(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	if e.session.State == chat.StateAwaitingReply {
		return chat.Session{}, ErrSessionBusy
	}

	e.session = s.driver.Reset(e.session)
	e.lastSeen = s.now()
	return e.session.Clone(), nil
}

// EvictIdle drops idle sessions not seen for longer than ttl and returns
// how many were removed. Sessions awaiting a reply are kept.
func (s *Service) EvictIdle(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	removed := 0
	for id, e := range s.sessions {
		if e.session.State == chat.StateAwaitingReply {
			continue
		}
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.reportCount(count)
	}
	return removed
}

// Len returns the number of sessions currently held.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) reportCount(n int) {
	if s.gauge != nil {
		s.gauge.SetActiveSessions(n)
	}
}
