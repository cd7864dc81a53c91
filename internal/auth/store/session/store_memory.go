package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"portcullis/internal/auth/models"
	id "portcullis/pkg/domain"
	"portcullis/pkg/platform/sentinel"
)

// InMemorySessionStore indexes sessions by ID and by opaque token.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]models.Session
	byToken  map[string]id.SessionID
}

func New() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[id.SessionID]models.Session),
		byToken:  make(map[string]id.SessionID),
	}
}

func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byToken[session.Token]; taken {
		return fmt.Errorf("session token: %w", sentinel.ErrConflict)
	}
	s.sessions[session.ID] = *session
	s.byToken[session.Token] = session.ID
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	return &session, nil
}

func (s *InMemorySessionStore) FindByToken(_ context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessionID, ok := s.byToken[token]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	session := s.sessions[sessionID]
	return &session, nil
}

// UpdateExpiry persists a refreshed expiry. The token is immutable.
func (s *InMemorySessionStore) UpdateExpiry(_ context.Context, sessionID id.SessionID, expiresAt, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	session.ExpiresAt = expiresAt
	session.UpdatedAt = now
	s.sessions[sessionID] = session
	return nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	s.remove(session)
	return nil
}

func (s *InMemorySessionStore) DeleteByUser(_ context.Context, userID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, session := range s.sessions {
		if session.UserID == userID {
			s.remove(session)
			count++
		}
	}
	return count, nil
}

// DeleteExpired removes every session whose expiry is at or before now.
func (s *InMemorySessionStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, session := range s.sessions {
		if session.IsExpired(now) {
			s.remove(session)
			count++
		}
	}
	return count, nil
}

// ListByUser returns the user's sessions, newest first.
func (s *InMemorySessionStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, &session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemorySessionStore) remove(session models.Session) {
	delete(s.sessions, session.ID)
	delete(s.byToken, session.Token)
}
