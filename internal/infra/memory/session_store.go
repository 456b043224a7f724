package memory

import (
	"context"
	"sync"

	"exam-session-service/internal/domain"
)

// SessionStore is an in-memory implementation of session.SessionStore.
// Sessions are cloned on the way in and out so callers never share mutable
// state with the store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
	}
}

func (s *SessionStore) Create(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return domain.E(domain.KindConflict, "session already exists").WithSession(sess.ID)
	}
	sess.Version = 1
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.E(domain.KindNotFound, "session not found").WithSession(sessionID)
	}
	return sess.Clone(), nil
}

func (s *SessionStore) Update(_ context.Context, sess *domain.Session, expectedVersion int64) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[sess.ID]
	if !ok {
		return nil, domain.E(domain.KindNotFound, "session not found").WithSession(sess.ID)
	}
	if current.Version != expectedVersion {
		return nil, domain.E(domain.KindConflict, "session was modified concurrently (version %d, expected %d)", current.Version, expectedVersion).
			WithSession(sess.ID)
	}
	updated := sess.Clone()
	updated.Version = expectedVersion + 1
	s.sessions[sess.ID] = updated
	return updated.Clone(), nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(s.sessions, sessionID)
	return true, nil
}
