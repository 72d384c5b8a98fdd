package activation

import (
	"context"
	"errors"
	"sort"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore builds an in-memory session store for tests.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]Session)}
}

func (s *memoryStore) Create(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return errors.New("session exists")
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *memoryStore) Find(_ context.Context, leaseID string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[leaseID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *memoryStore) ListByUser(_ context.Context, userID string) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sessions []Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (s *memoryStore) UpdateStatus(_ context.Context, leaseID string, status Status, otp string) (Session, error) {
	if err := validateTransition(status, otp); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[leaseID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if session.Status.Terminal() {
		return Session{}, ErrSessionTerminal
	}
	session.Status = status
	session.OTP = otp
	s.sessions[leaseID] = session
	return session, nil
}
