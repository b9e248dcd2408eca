package app

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"whorep/internal/hierarchy"
	"whorep/internal/metrics"
	"whorep/internal/traverse"
)

const DefaultSessionTTL = 30 * time.Minute

var ErrSessionNotFound = errors.New("session not found")

// session serializes inputs to one machine; the registry lock only guards
// the map.
type session struct {
	mu        sync.Mutex
	machine   *traverse.Machine
	notices   []Notice
	expiresAt time.Time
}

// Sessions holds one traversal machine per browsing session. Sessions idle
// longer than the TTL are swept on access.
type Sessions struct {
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessions(ttl time.Duration, m *metrics.Metrics) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		ttl:      ttl,
		metrics:  m,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Open starts a session at the root of h and returns its id.
func (s *Sessions) Open(h *hierarchy.Hierarchy, notices []Notice) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[id] = &session{
		machine:   traverse.New(h),
		notices:   notices,
		expiresAt: s.now().Add(s.ttl),
	}
	s.metrics.SessionOpened()
	return id
}

// With runs fn against the session's machine while holding the session.
func (s *Sessions) With(id string, fn func(m *traverse.Machine, notices []Notice) error) error {
	s.mu.Lock()
	s.sweepLocked()
	sess, ok := s.sessions[id]
	if ok {
		sess.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.machine, sess.notices)
}

func (s *Sessions) Close(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	s.metrics.SessionClosed()
	return true
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.sessions)
}

func (s *Sessions) sweepLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, id)
			s.metrics.SessionClosed()
		}
	}
}
